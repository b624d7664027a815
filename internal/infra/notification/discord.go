package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DiscordClient implements the Client interface for Discord webhooks.
type DiscordClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordClient creates a new Discord notification client.
func NewDiscordClient(config Config) (*DiscordClient, error) {
	if config.WebhookURL == "" {
		return nil, fmt.Errorf("discord webhook URL is required")
	}

	return &DiscordClient{
		webhookURL: config.WebhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Provider returns the provider name.
func (c *DiscordClient) Provider() string {
	return string(ProviderDiscord)
}

// discordMessage represents a Discord webhook payload.
type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Send sends a notification message to Discord.
func (c *DiscordClient) Send(ctx context.Context, msg Message) (*SendResult, error) {
	payload, err := json.Marshal(c.buildMessage(msg))
	if err != nil {
		return nil, fmt.Errorf("marshal discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &SendResult{
			Success: false,
			Error:   fmt.Sprintf("send request failed: %v", err),
		}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	// Discord webhooks answer 204 on success
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return &SendResult{
			Success: false,
			Error:   fmt.Sprintf("discord returned status %d: %s", resp.StatusCode, string(body)),
		}, nil
	}

	return &SendResult{Success: true}, nil
}

func (c *DiscordClient) buildMessage(msg Message) discordMessage {
	description := msg.Body
	if len(msg.Lines) > 0 {
		description += "\n" + strings.Join(msg.Lines, "\n")
	}

	fields := make([]discordField, 0, len(msg.Fields))
	for k, v := range msg.Fields {
		fields = append(fields, discordField{Name: k, Value: v, Inline: true})
	}

	return discordMessage{
		Embeds: []discordEmbed{
			{
				Title:       msg.Title,
				Description: description,
				URL:         msg.URL,
				Color:       severityColor(msg.Severity),
				Fields:      fields,
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
			},
		},
	}
}

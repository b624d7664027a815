// Package notification provides clients for delivering alerts to
// webhook-based providers.
package notification

import (
	"context"
	"fmt"
)

// Message represents a notification message.
type Message struct {
	Title    string            // Message title/subject
	Body     string            // Main message body
	Severity string            // critical, high, medium, low, info
	URL      string            // Optional link URL
	Fields   map[string]string // Additional fields to display
	Lines    []string          // Optional detail lines appended to the body
}

// SendResult represents the result of sending a notification.
type SendResult struct {
	Success bool
	Error   string
}

// Client defines the interface for notification providers.
type Client interface {
	// Send sends a notification message.
	Send(ctx context.Context, msg Message) (*SendResult, error)

	// Provider returns the provider name.
	Provider() string
}

// Provider represents a notification provider.
type Provider string

const (
	ProviderSlack   Provider = "slack"
	ProviderDiscord Provider = "discord"
	ProviderWebhook Provider = "webhook"
)

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Severity constants.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// Config holds the configuration for creating a notification client.
type Config struct {
	Provider   Provider
	WebhookURL string
}

// NewClient creates a notification client based on the configuration.
func NewClient(config Config) (Client, error) {
	switch config.Provider {
	case ProviderSlack:
		return NewSlackClient(config)
	case ProviderDiscord:
		return NewDiscordClient(config)
	case ProviderWebhook:
		return NewWebhookClient(config)
	default:
		return nil, fmt.Errorf("unsupported notification provider: %s", config.Provider)
	}
}

// severityColor maps a severity to a hex embed color.
func severityColor(severity string) int {
	switch severity {
	case SeverityCritical:
		return 0xe01e5a
	case SeverityHigh:
		return 0xff5733
	case SeverityMedium:
		return 0xffa500
	case SeverityLow:
		return 0x36a64f
	default:
		return 0x439fe0
	}
}

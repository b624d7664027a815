package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/scopewatch/api/pkg/logger"
)

// Client manages enqueueing background jobs using Asynq.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &Client{
		client: client,
		logger: log.With("component", "job_client"),
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueScopeCheck enqueues a scope check for one program.
func (c *Client) EnqueueScopeCheck(ctx context.Context, programID string) error {
	task, err := NewScopeCheckProgramTask(programID)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue scope check",
			"program_id", programID,
			"error", err,
		)
		return fmt.Errorf("enqueue scope check: %w", err)
	}

	c.logger.Info("scope check queued",
		"task_id", info.ID,
		"program_id", programID,
		"queue", info.Queue,
	)
	return nil
}

// EnqueueScopeCheckAll enqueues a full monitoring cycle.
func (c *Client) EnqueueScopeCheckAll(ctx context.Context) error {
	task, err := NewScopeCheckAllTask()
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue monitoring cycle", "error", err)
		return fmt.Errorf("enqueue monitoring cycle: %w", err)
	}

	c.logger.Info("monitoring cycle queued", "task_id", info.ID, "queue", info.Queue)
	return nil
}

// EnqueueProbeIngest enqueues one probe record for processing.
func (c *Client) EnqueueProbeIngest(ctx context.Context, payload ProbeIngestPayload) error {
	task, err := NewProbeIngestTask(payload)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue probe",
			"value", payload.Value,
			"error", err,
		)
		return fmt.Errorf("enqueue probe: %w", err)
	}

	c.logger.Debug("probe queued",
		"task_id", info.ID,
		"value", payload.Value,
		"queue", info.Queue,
	)
	return nil
}

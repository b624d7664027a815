package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/scopewatch/api/internal/app"
	"github.com/scopewatch/api/internal/metrics"
	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/logger"
)

// WorkerConfig holds the configuration for the job worker.
type WorkerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// Worker processes background jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *logger.Logger
}

// NewWorker creates a new background job worker.
func NewWorker(cfg WorkerConfig, monitor *app.MonitorService, diff *app.DiffService, log *logger.Logger) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				"scope":  5,
				"probes": 10,
			},
		},
	)

	h := &taskHandler{
		monitor: monitor,
		diff:    diff,
		logger:  log.With("component", "job_worker"),
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeScopeCheckProgram, h.handleScopeCheckProgram)
	mux.HandleFunc(TypeScopeCheckAll, h.handleScopeCheckAll)
	mux.HandleFunc(TypeProbeIngest, h.handleProbeIngest)

	return &Worker{
		server: server,
		mux:    mux,
		logger: log,
	}
}

// Start starts the worker.
func (w *Worker) Start() error {
	w.logger.Info("starting job worker")
	return w.server.Start(w.mux)
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() {
	w.logger.Info("stopping job worker")
	w.server.Shutdown()
}

type taskHandler struct {
	monitor *app.MonitorService
	diff    *app.DiffService
	logger  *logger.Logger
}

func (h *taskHandler) handleScopeCheckProgram(ctx context.Context, t *asynq.Task) error {
	var payload ScopeCheckProgramPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal scope check payload: %v: %w", err, asynq.SkipRetry)
	}

	programID, err := shared.IDFromString(payload.ProgramID)
	if err != nil {
		return fmt.Errorf("invalid program id %q: %w", payload.ProgramID, asynq.SkipRetry)
	}

	res, err := h.monitor.CheckProgram(ctx, programID)
	if err != nil {
		if shared.IsNotFound(err) {
			// the program was deleted between enqueue and execution
			h.logger.Warn("scope check skipped, program gone", "program_id", payload.ProgramID)
			return nil
		}
		return err
	}

	h.logger.Info("scope check task finished",
		"program", res.Handle,
		"changed", res.Comparison.HasChanges,
	)
	return nil
}

func (h *taskHandler) handleScopeCheckAll(ctx context.Context, _ *asynq.Task) error {
	results, err := h.monitor.CheckAll(ctx)
	if err != nil {
		return err
	}

	changed := 0
	for _, r := range results {
		if r.Comparison.HasChanges {
			changed++
		}
	}
	h.logger.Info("monitoring cycle task finished", "checked", len(results), "changed", changed)
	return nil
}

func (h *taskHandler) handleProbeIngest(ctx context.Context, t *asynq.Task) error {
	var payload ProbeIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		metrics.ProbesProcessedTotal.WithLabelValues("malformed").Inc()
		return fmt.Errorf("unmarshal probe payload: %v: %w", err, asynq.SkipRetry)
	}

	_, err := h.diff.CompareAndUpdate(ctx, app.CompareAndUpdateInput{
		ProgramID: payload.ProgramID,
		AssetType: payload.AssetType,
		Value:     payload.Value,
		Probe:     payload.Probe,
	})
	if err != nil {
		if shared.IsValidation(err) {
			// bad input never becomes good on retry
			metrics.ProbesProcessedTotal.WithLabelValues("rejected").Inc()
			return fmt.Errorf("probe rejected: %v: %w", err, asynq.SkipRetry)
		}
		metrics.ProbesProcessedTotal.WithLabelValues("error").Inc()
		return err
	}
	return nil
}

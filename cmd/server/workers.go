package main

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/scopewatch/api/internal/config"
	"github.com/scopewatch/api/internal/infra/jobs"
	"github.com/scopewatch/api/pkg/logger"
)

// Workers holds all background worker instances.
type Workers struct {
	JobWorker *jobs.Worker
	Scheduler *cron.Cron
}

// NewWorkers initializes the job worker and the scope check scheduler.
// The scheduler only enqueues; the worker does the checking.
func NewWorkers(cfg *config.Config, services *Services, jobClient *jobs.Client, log *logger.Logger) (*Workers, error) {
	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Concurrency:   cfg.Worker.Concurrency,
	}, services.Monitor, services.Diff, log)

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Monitor.ScopeCheckCron, func() {
		if err := jobClient.EnqueueScopeCheckAll(context.Background()); err != nil {
			log.Error("failed to enqueue scheduled monitoring cycle", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}

	return &Workers{
		JobWorker: worker,
		Scheduler: scheduler,
	}, nil
}

// Start starts all workers.
func (w *Workers) Start(log *logger.Logger) error {
	if err := w.JobWorker.Start(); err != nil {
		return err
	}
	w.Scheduler.Start()
	log.Info("workers started")
	return nil
}

// Stop stops all workers gracefully.
func (w *Workers) Stop(log *logger.Logger) {
	ctx := w.Scheduler.Stop()
	<-ctx.Done()
	w.JobWorker.Stop()
	log.Info("workers stopped")
}

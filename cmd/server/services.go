package main

import (
	"github.com/scopewatch/api/internal/app"
	"github.com/scopewatch/api/internal/config"
	"github.com/scopewatch/api/internal/infra/notification"
	"github.com/scopewatch/api/internal/infra/platform"
	"github.com/scopewatch/api/internal/infra/redis"
	"github.com/scopewatch/api/pkg/logger"
)

// Services holds all service instances.
type Services struct {
	Alert   *app.AlertService
	Program *app.ProgramService
	Monitor *app.MonitorService
	Diff    *app.DiffService
}

// ServiceDeps contains dependencies needed to create services.
type ServiceDeps struct {
	Config      *config.Config
	Log         *logger.Logger
	Repos       *Repositories
	RedisClient *redis.Client
}

// NewServices initializes all application services.
func NewServices(deps *ServiceDeps) (*Services, error) {
	cfg := deps.Config
	log := deps.Log
	repos := deps.Repos

	clients, err := notificationClients(cfg)
	if err != nil {
		return nil, err
	}
	alerts := app.NewAlertService(clients, log)

	fetchers := platform.NewRegistry()
	fetchers.Register(platform.NewHackerOneFetcher(cfg.Platforms, log))
	fetchers.Register(platform.NewBugcrowdFetcher(cfg.Platforms, log))

	cache := redis.NewChecksumCache(deps.RedisClient, cfg.Monitor.ChecksumCacheTTL)

	diff := app.NewDiffService(repos.Asset, repos.AssetChange, alerts, log)
	monitor := app.NewMonitorService(
		repos.Program,
		repos.Asset,
		repos.ScopeHistory,
		fetchers,
		cache,
		alerts,
		cfg.Monitor.Concurrency,
		log,
	)

	return &Services{
		Alert:   alerts,
		Program: app.NewProgramService(repos.Program, log),
		Monitor: monitor,
		Diff:    diff,
	}, nil
}

// notificationClients builds one client per configured webhook.
func notificationClients(cfg *config.Config) ([]notification.Client, error) {
	type target struct {
		provider notification.Provider
		url      string
	}
	targets := []target{
		{notification.ProviderSlack, cfg.Notification.SlackWebhookURL},
		{notification.ProviderDiscord, cfg.Notification.DiscordWebhookURL},
		{notification.ProviderWebhook, cfg.Notification.WebhookURL},
	}

	clients := make([]notification.Client, 0, len(targets))
	for _, t := range targets {
		if t.url == "" {
			continue
		}
		c, err := notification.NewClient(notification.Config{
			Provider:   t.provider,
			WebhookURL: t.url,
		})
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, nil
}

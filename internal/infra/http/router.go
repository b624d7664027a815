package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scopewatch/api/internal/config"
	"github.com/scopewatch/api/internal/infra/http/handler"
	"github.com/scopewatch/api/pkg/logger"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health   *handler.HealthHandler
	Programs *handler.ProgramHandler
	Assets   *handler.AssetHandler
}

// NewRouter assembles the chi router with the global middleware chain
// and all routes.
func NewRouter(cfg *config.Config, h Handlers, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.CleanPath)
	r.Use(chimw.StripSlashes)
	r.Use(chimw.RequestID)
	r.Use(recovery(log))
	r.Use(httpMetrics())
	r.Use(requestLogger(log))
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/programs", func(r chi.Router) {
			r.Post("/", h.Programs.Create)
			r.Get("/", h.Programs.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Programs.Get)
				r.Patch("/active", h.Programs.SetActive)
				r.Delete("/", h.Programs.Delete)

				r.Post("/scope/check", h.Programs.TriggerCheck)
				r.Get("/scope/validate", h.Programs.ValidateValue)
				r.Get("/scope/history", h.Programs.History)

				r.Get("/assets", h.Assets.List)
				r.Get("/scan-queue", h.Assets.ScanQueue)
			})
		})

		r.Route("/assets/{id}", func(r chi.Router) {
			r.Get("/", h.Assets.Get)
			r.Get("/changes", h.Assets.Changes)
			r.Get("/scan-decision", h.Assets.ScanDecision)
		})

		r.Get("/changes", h.Assets.RecentChanges)
		r.Post("/probes", h.Assets.IngestProbe)
	})

	return r
}

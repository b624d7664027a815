package app

import (
	"context"
	"fmt"

	"github.com/scopewatch/api/internal/infra/notification"
	"github.com/scopewatch/api/internal/metrics"
	"github.com/scopewatch/api/pkg/domain/asset"
	"github.com/scopewatch/api/pkg/domain/program"
	"github.com/scopewatch/api/pkg/domain/scope"
	"github.com/scopewatch/api/pkg/logger"
)

// AlertService fans alert events out to the configured notification
// clients. Delivery failure is logged and counted but never propagated;
// a broken webhook must not fail a monitoring cycle.
type AlertService struct {
	clients []notification.Client
	logger  *logger.Logger
}

// NewAlertService creates a new AlertService.
func NewAlertService(clients []notification.Client, log *logger.Logger) *AlertService {
	return &AlertService{
		clients: clients,
		logger:  log.With("service", "alert"),
	}
}

// ScopeChanged announces a scope change for a program.
func (s *AlertService) ScopeChanged(ctx context.Context, p *program.Program, cmp scope.Comparison) {
	lines := cmp.FormatChanges()
	if len(lines) > 10 {
		lines = append(lines[:10], fmt.Sprintf("... and %d more", len(cmp.Changes)-10))
	}

	s.send(ctx, notification.Message{
		Title:    fmt.Sprintf("Scope change: %s", p.Name()),
		Body:     cmp.Summary(),
		Severity: notification.SeverityHigh,
		URL:      p.URL(),
		Fields: map[string]string{
			"platform": p.Platform().String(),
			"program":  p.Handle(),
		},
		Lines: lines,
	})
}

// NewAsset announces a newly discovered asset.
func (s *AlertService) NewAsset(ctx context.Context, a *asset.Asset) {
	s.send(ctx, notification.Message{
		Title:    "New asset discovered",
		Body:     a.Value(),
		Severity: notification.SeverityMedium,
		Fields: map[string]string{
			"type":       a.Type().String(),
			"program_id": a.ProgramID().String(),
		},
	})
}

// AssetChanged announces detected field changes on an asset.
func (s *AlertService) AssetChanged(ctx context.Context, a *asset.Asset, changes []asset.FieldChange) {
	lines := make([]string, 0, len(changes))
	for _, fc := range changes {
		old, curr := "<none>", "<none>"
		if fc.Old != nil {
			old = *fc.Old
		}
		if fc.New != nil {
			curr = *fc.New
		}
		lines = append(lines, fmt.Sprintf("%s: %s -> %s", fc.Field, old, curr))
	}

	s.send(ctx, notification.Message{
		Title:    fmt.Sprintf("Asset changed: %s", a.Value()),
		Body:     fmt.Sprintf("%d field(s) changed", len(changes)),
		Severity: notification.SeverityMedium,
		Fields: map[string]string{
			"type":       a.Type().String(),
			"program_id": a.ProgramID().String(),
		},
		Lines: lines,
	})
}

func (s *AlertService) send(ctx context.Context, msg notification.Message) {
	for _, client := range s.clients {
		result, err := client.Send(ctx, msg)
		switch {
		case err != nil:
			metrics.NotificationsSentTotal.WithLabelValues(client.Provider(), "error").Inc()
			s.logger.Error("notification delivery failed",
				"provider", client.Provider(),
				"error", err,
			)
		case !result.Success:
			metrics.NotificationsSentTotal.WithLabelValues(client.Provider(), "rejected").Inc()
			s.logger.Warn("notification rejected",
				"provider", client.Provider(),
				"detail", result.Error,
			)
		default:
			metrics.NotificationsSentTotal.WithLabelValues(client.Provider(), "ok").Inc()
		}
	}
}

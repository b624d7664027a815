package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scopewatch/api/internal/infra/platform"
	"github.com/scopewatch/api/internal/metrics"
	"github.com/scopewatch/api/pkg/domain/asset"
	"github.com/scopewatch/api/pkg/domain/program"
	"github.com/scopewatch/api/pkg/domain/scope"
	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/logger"
)

// ChecksumCache is the cheap scope pre-check store. A miss returns ""
// with a nil error.
type ChecksumCache interface {
	Get(ctx context.Context, programID shared.ID) (string, error)
	Set(ctx context.Context, programID shared.ID, checksum string) error
}

// MonitorService runs the scope monitoring cycle: fetch the current
// scope, compare against the previous check, persist history, alert on
// change and re-validate the program's assets.
type MonitorService struct {
	programRepo program.Repository
	assetRepo   asset.Repository
	historyRepo scope.HistoryRepository
	fetchers    *platform.Registry
	cache       ChecksumCache
	alerts      *AlertService
	logger      *logger.Logger
	concurrency int
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(
	programRepo program.Repository,
	assetRepo asset.Repository,
	historyRepo scope.HistoryRepository,
	fetchers *platform.Registry,
	cache ChecksumCache,
	alerts *AlertService,
	concurrency int,
	log *logger.Logger,
) *MonitorService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &MonitorService{
		programRepo: programRepo,
		assetRepo:   assetRepo,
		historyRepo: historyRepo,
		fetchers:    fetchers,
		cache:       cache,
		alerts:      alerts,
		logger:      log.With("service", "monitor"),
		concurrency: concurrency,
	}
}

// ScopeCheckResult summarizes one program's scope check.
type ScopeCheckResult struct {
	ProgramID      shared.ID        `json:"program_id"`
	Handle         string           `json:"handle"`
	Comparison     scope.Comparison `json:"comparison"`
	Revalidated    int              `json:"revalidated_assets"`
	ScopeFlipped   int              `json:"scope_flipped_assets"`
	SkippedByCache bool             `json:"skipped_by_cache"`
}

// CheckProgram runs one scope check for the program.
func (s *MonitorService) CheckProgram(ctx context.Context, programID shared.ID) (*ScopeCheckResult, error) {
	p, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	return s.checkProgram(ctx, p)
}

// CheckAll runs the scope check over every active program, bounded by
// the configured concurrency. Per-program failures are logged and
// skipped; the cycle itself only fails when no program list could be
// loaded.
func (s *MonitorService) CheckAll(ctx context.Context) ([]*ScopeCheckResult, error) {
	programs, err := s.programRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active programs: %w", err)
	}

	s.logger.Info("scope monitoring cycle started", "programs", len(programs))

	results := make([]*ScopeCheckResult, len(programs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range programs {
		i, p := i, p
		g.Go(func() error {
			res, err := s.checkProgram(gctx, p)
			if err != nil {
				s.logger.Error("scope check failed",
					"program", p.Handle(),
					"platform", p.Platform().String(),
					"error", err,
				)
				metrics.ScopeChecksTotal.WithLabelValues(p.Platform().String(), "error").Inc()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*ScopeCheckResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}

	s.logger.Info("scope monitoring cycle finished", "checked", len(out))
	return out, nil
}

func (s *MonitorService) checkProgram(ctx context.Context, p *program.Program) (*ScopeCheckResult, error) {
	started := time.Now()
	log := s.logger.With("program", p.Handle(), "platform", p.Platform().String())

	fetcher, err := s.fetchers.Get(p.Platform())
	if err != nil {
		return nil, err
	}

	snapshot, err := fetcher.FetchScope(ctx, p.Handle())
	if err != nil {
		return nil, fmt.Errorf("fetch scope: %w", err)
	}

	result := &ScopeCheckResult{
		ProgramID: p.ID(),
		Handle:    p.Handle(),
	}

	// cheap pre-check: identical checksum since the last cycle means
	// nothing to compare or persist
	if cached, cerr := s.cache.Get(ctx, p.ID()); cerr == nil && cached != "" && cached == snapshot.Checksum() {
		p.MarkChecked(time.Now().UTC())
		if err := s.programRepo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("stamp scope check: %w", err)
		}
		result.SkippedByCache = true
		result.Comparison = scope.Comparison{CurrentChecksum: snapshot.Checksum()}
		metrics.ScopeChecksTotal.WithLabelValues(p.Platform().String(), "unchanged").Inc()
		log.Debug("scope unchanged (cache)")
		return result, nil
	}

	var previous *scope.Snapshot
	latest, err := s.historyRepo.Latest(ctx, p.ID())
	switch {
	case err == nil:
		snap := latest.Snapshot()
		previous = &snap
	case errors.Is(err, shared.ErrNotFound):
		// first check for this program, compare against nothing
	default:
		return nil, fmt.Errorf("load previous scope: %w", err)
	}

	cmp := scope.Compare(previous, snapshot)
	result.Comparison = cmp

	now := time.Now().UTC()
	if cmp.HasChanges {
		h, err := scope.NewHistory(p.ID(), snapshot, cmp.Changes, p.Platform().String())
		if err != nil {
			return nil, err
		}
		if err := s.historyRepo.Append(ctx, h); err != nil {
			return nil, fmt.Errorf("append scope history: %w", err)
		}

		p.UpdateScope(snapshot.InScope(), snapshot.OutOfScope(), now)

		for _, ch := range cmp.Changes {
			metrics.ScopeChangesTotal.WithLabelValues(p.Platform().String(), string(ch.Type)).Inc()
		}

		if cmp.IsFirstCheck {
			log.Info("scope baseline recorded",
				"in_scope", len(snapshot.InScope()),
				"out_of_scope", len(snapshot.OutOfScope()),
			)
		} else {
			log.Info("scope changed", "summary", cmp.Summary())
			s.alerts.ScopeChanged(ctx, p, cmp)
		}
	} else {
		p.MarkChecked(now)
		log.Debug("scope unchanged")
	}

	if err := s.programRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update program: %w", err)
	}
	if err := s.cache.Set(ctx, p.ID(), snapshot.Checksum()); err != nil {
		log.Warn("checksum cache write failed", "error", err)
	}

	// scope changes force re-validation of every known asset
	if cmp.HasChanges && !cmp.IsFirstCheck {
		revalidated, flipped, err := s.revalidateAssets(ctx, p, snapshot)
		if err != nil {
			return nil, err
		}
		result.Revalidated = revalidated
		result.ScopeFlipped = flipped
	}

	outcome := "unchanged"
	if cmp.HasChanges {
		outcome = "changed"
	}
	metrics.ScopeChecksTotal.WithLabelValues(p.Platform().String(), outcome).Inc()
	metrics.ScopeCheckDuration.WithLabelValues(p.Platform().String()).Observe(time.Since(started).Seconds())

	return result, nil
}

// revalidateAssets re-classifies every asset of the program under the
// new scope, persisting only the ones whose classification flipped.
func (s *MonitorService) revalidateAssets(ctx context.Context, p *program.Program, snapshot scope.Snapshot) (int, int, error) {
	assets, err := s.assetRepo.ListByProgram(ctx, p.ID())
	if err != nil {
		return 0, 0, fmt.Errorf("list assets for revalidation: %w", err)
	}

	v := scope.NewValidator(snapshot)
	flipped := 0
	for _, a := range assets {
		r := v.Validate(a.Value())
		if r.InScope == a.InScope() {
			continue
		}
		a.SetInScope(r.InScope)
		if err := s.assetRepo.Update(ctx, a); err != nil {
			return 0, 0, fmt.Errorf("update asset %s: %w", a.Value(), err)
		}
		flipped++
		s.logger.Info("asset scope flipped",
			"asset", a.Value(),
			"in_scope", r.InScope,
			"reason", r.Reason,
		)
	}

	return len(assets), flipped, nil
}

// ValidateValue classifies a single value against a program's current
// scope without touching any asset.
func (s *MonitorService) ValidateValue(ctx context.Context, programID shared.ID, value string) (scope.ValidationResult, error) {
	p, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		return scope.ValidationResult{}, err
	}
	v := scope.NewValidatorFromLists(p.InScope(), p.OutOfScope())
	return v.Validate(value), nil
}

// History returns the recent scope check history of a program.
func (s *MonitorService) History(ctx context.Context, programID shared.ID, limit int) ([]*scope.History, error) {
	if _, err := s.programRepo.GetByID(ctx, programID); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByProgram(ctx, programID, limit)
}

// Package app provides the application services that orchestrate the
// domain layer against persistence, platforms and notification channels.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scopewatch/api/internal/metrics"
	"github.com/scopewatch/api/pkg/domain/asset"
	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/logger"
	"github.com/scopewatch/api/pkg/pagination"
	"github.com/scopewatch/api/pkg/validator"
)

// DiffService turns probe records into asset updates and change log
// entries. The per-field comparison itself is pure; this service adds
// the read-modify-write cycle around it.
type DiffService struct {
	assetRepo  asset.Repository
	changeRepo asset.ChangeRepository
	alerts     *AlertService
	validate   *validator.Validator
	logger     *logger.Logger
}

// NewDiffService creates a new DiffService.
func NewDiffService(
	assetRepo asset.Repository,
	changeRepo asset.ChangeRepository,
	alerts *AlertService,
	log *logger.Logger,
) *DiffService {
	return &DiffService{
		assetRepo:  assetRepo,
		changeRepo: changeRepo,
		alerts:     alerts,
		validate:   validator.New(),
		logger:     log.With("service", "diff"),
	}
}

// CompareAndUpdateInput identifies the asset and carries its fresh probe.
type CompareAndUpdateInput struct {
	ProgramID string `validate:"required,uuid"`
	AssetType string `validate:"required"`
	Value     string `validate:"required,max=500"`
	Probe     asset.ProbeRecord
}

// CompareAndUpdateResult reports what the probe did to the asset.
type CompareAndUpdateResult struct {
	Asset         *asset.Asset
	IsNew         bool
	ChangedFields []string
}

// CompareAndUpdate applies one probe record to the (program, value)
// asset. An unknown asset is created as-is with no change records and
// IsNew set; an existing one is diffed field by field and gets one
// change log entry per materially changed field.
//
// Callers must not run concurrent updates for the same (program, value)
// pair; the read-modify-write sequence here relies on the repository's
// per-key serialization.
func (s *DiffService) CompareAndUpdate(ctx context.Context, input CompareAndUpdateInput) (*CompareAndUpdateResult, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	programID, err := shared.IDFromString(input.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid program id", shared.ErrValidation)
	}
	assetType, err := asset.ParseType(input.AssetType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	existing, err := s.assetRepo.GetByValue(ctx, programID, input.Value)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("load asset %s: %w", input.Value, err)
		}
		return s.createNew(ctx, programID, assetType, input, now)
	}

	fieldChanges := asset.ApplyProbe(existing, input.Probe, now)

	if err := s.assetRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update asset %s: %w", existing.Value(), err)
	}

	changedFields := make([]string, 0, len(fieldChanges))
	if len(fieldChanges) > 0 {
		records := make([]*asset.Change, 0, len(fieldChanges))
		for _, fc := range fieldChanges {
			rec, err := asset.NewFieldChange(existing.ID(), fc.Field, fc.Old, fc.New)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
			changedFields = append(changedFields, fc.Field)
			metrics.AssetFieldChangesTotal.WithLabelValues(fc.Field).Inc()
		}
		if err := s.changeRepo.AppendBatch(ctx, records); err != nil {
			return nil, fmt.Errorf("append changes for %s: %w", existing.Value(), err)
		}

		s.logger.Info("asset changed",
			"asset", existing.Value(),
			"fields", changedFields,
		)
		s.alerts.AssetChanged(ctx, existing, fieldChanges)
	}

	metrics.ProbesProcessedTotal.WithLabelValues("ok").Inc()

	return &CompareAndUpdateResult{
		Asset:         existing,
		IsNew:         false,
		ChangedFields: changedFields,
	}, nil
}

func (s *DiffService) createNew(ctx context.Context, programID shared.ID, assetType asset.Type, input CompareAndUpdateInput, now time.Time) (*CompareAndUpdateResult, error) {
	a, err := asset.NewAsset(programID, assetType, input.Value)
	if err != nil {
		return nil, err
	}
	asset.InitializeFromProbe(a, input.Probe, now)

	if err := s.assetRepo.Create(ctx, a); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// lost a create race; re-run as an update against the
			// winner's row
			return s.CompareAndUpdate(ctx, input)
		}
		return nil, fmt.Errorf("create asset %s: %w", a.Value(), err)
	}

	// the change log records the discovery itself, not field values
	rec, err := asset.NewLifecycleChange(a.ID(), asset.ChangeTypeNew)
	if err != nil {
		return nil, err
	}
	if err := s.changeRepo.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append new-asset change: %w", err)
	}

	metrics.NewAssetsTotal.Inc()
	metrics.ProbesProcessedTotal.WithLabelValues("ok").Inc()
	s.logger.Info("new asset discovered", "asset", a.Value(), "type", assetType)
	s.alerts.NewAsset(ctx, a)

	return &CompareAndUpdateResult{
		Asset:         a,
		IsNew:         true,
		ChangedFields: []string{},
	}, nil
}

// GetAsset retrieves an asset by ID.
func (s *DiffService) GetAsset(ctx context.Context, assetID shared.ID) (*asset.Asset, error) {
	return s.assetRepo.GetByID(ctx, assetID)
}

// ListAssets retrieves assets matching the filter with pagination.
func (s *DiffService) ListAssets(ctx context.Context, filter asset.ListFilter, p pagination.Pagination) (pagination.Result[*asset.Asset], error) {
	return s.assetRepo.List(ctx, filter, p)
}

// AssetChanges retrieves the change log of one asset, newest first.
func (s *DiffService) AssetChanges(ctx context.Context, assetID shared.ID, limit int) ([]*asset.Change, error) {
	if _, err := s.assetRepo.GetByID(ctx, assetID); err != nil {
		return nil, err
	}
	return s.changeRepo.ListByAsset(ctx, assetID, limit)
}

// RecentChanges retrieves the change feed across all assets.
func (s *DiffService) RecentChanges(ctx context.Context, p pagination.Pagination) (pagination.Result[*asset.Change], error) {
	return s.changeRepo.ListRecent(ctx, p)
}

// DecideScan evaluates the scan policy for one asset.
func (s *DiffService) DecideScan(ctx context.Context, assetID shared.ID, force bool) (asset.Decision, error) {
	a, err := s.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return asset.Decision{}, err
	}

	d := asset.Decide(time.Now().UTC(), a, force)
	metrics.ScanDecisionsTotal.WithLabelValues(fmt.Sprintf("%t", d.Scan), d.Reason).Inc()
	return d, nil
}

// BuildScanQueue evaluates the scan policy over all assets of a program
// and returns those due for a scan this cycle.
func (s *DiffService) BuildScanQueue(ctx context.Context, programID shared.ID, force bool) ([]*asset.Asset, error) {
	assets, err := s.assetRepo.ListByProgram(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("list assets for scan queue: %w", err)
	}

	now := time.Now().UTC()
	due := make([]*asset.Asset, 0, len(assets))
	for _, a := range assets {
		d := asset.Decide(now, a, force)
		metrics.ScanDecisionsTotal.WithLabelValues(fmt.Sprintf("%t", d.Scan), d.Reason).Inc()
		if d.Scan {
			due = append(due, a)
		}
	}

	s.logger.Info("scan queue built",
		"program_id", programID.String(),
		"total", len(assets),
		"due", len(due),
	)
	return due, nil
}

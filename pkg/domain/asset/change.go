package asset

import (
	"fmt"
	"time"

	"github.com/scopewatch/api/pkg/domain/shared"
)

// ChangeType classifies an asset change record.
type ChangeType string

const (
	ChangeTypeNew      ChangeType = "new"
	ChangeTypeModified ChangeType = "modified"
	ChangeTypeDeleted  ChangeType = "deleted"
)

// String returns the string representation of the change type.
func (t ChangeType) String() string {
	return string(t)
}

// Change is one append-only log entry: a single field transition on a
// single asset, observed at a point in time. Never mutated after
// creation except for the alerted/reviewed workflow flags.
type Change struct {
	id         shared.ID
	assetID    shared.ID
	changeType ChangeType
	fieldName  string
	oldValue   *string
	newValue   *string
	detectedAt time.Time
	alerted    bool
	reviewed   bool
}

// NewFieldChange records a modified field on an existing asset.
func NewFieldChange(assetID shared.ID, fieldName string, oldValue, newValue *string) (*Change, error) {
	if assetID.IsZero() {
		return nil, fmt.Errorf("%w: asset id is required", shared.ErrValidation)
	}
	if fieldName == "" {
		return nil, fmt.Errorf("%w: field name is required", shared.ErrValidation)
	}
	return &Change{
		id:         shared.NewID(),
		assetID:    assetID,
		changeType: ChangeTypeModified,
		fieldName:  fieldName,
		oldValue:   oldValue,
		newValue:   newValue,
		detectedAt: time.Now().UTC(),
	}, nil
}

// NewLifecycleChange records a whole-asset transition ("new"/"deleted"),
// produced by orchestration rather than the detector.
func NewLifecycleChange(assetID shared.ID, changeType ChangeType) (*Change, error) {
	if assetID.IsZero() {
		return nil, fmt.Errorf("%w: asset id is required", shared.ErrValidation)
	}
	if changeType != ChangeTypeNew && changeType != ChangeTypeDeleted {
		return nil, fmt.Errorf("%w: invalid lifecycle change type %q", shared.ErrValidation, changeType)
	}
	return &Change{
		id:         shared.NewID(),
		assetID:    assetID,
		changeType: changeType,
		fieldName:  "asset",
		detectedAt: time.Now().UTC(),
	}, nil
}

// ReconstituteChange rebuilds a Change from persistence.
func ReconstituteChange(
	id, assetID shared.ID,
	changeType ChangeType,
	fieldName string,
	oldValue, newValue *string,
	detectedAt time.Time,
	alerted, reviewed bool,
) *Change {
	return &Change{
		id:         id,
		assetID:    assetID,
		changeType: changeType,
		fieldName:  fieldName,
		oldValue:   oldValue,
		newValue:   newValue,
		detectedAt: detectedAt,
		alerted:    alerted,
		reviewed:   reviewed,
	}
}

func (c *Change) ID() shared.ID          { return c.id }
func (c *Change) AssetID() shared.ID     { return c.assetID }
func (c *Change) Type() ChangeType       { return c.changeType }
func (c *Change) FieldName() string      { return c.fieldName }
func (c *Change) OldValue() *string      { return c.oldValue }
func (c *Change) NewValue() *string      { return c.newValue }
func (c *Change) DetectedAt() time.Time  { return c.detectedAt }
func (c *Change) Alerted() bool          { return c.alerted }
func (c *Change) Reviewed() bool         { return c.reviewed }

// MarkAlerted flags the change as delivered to notification channels.
func (c *Change) MarkAlerted() {
	c.alerted = true
}

// MarkReviewed flags the change as triaged by an operator.
func (c *Change) MarkReviewed() {
	c.reviewed = true
}

// Describe renders the change for logs and notifications.
func (c *Change) Describe() string {
	if c.changeType != ChangeTypeModified {
		return fmt.Sprintf("%s asset", c.changeType)
	}
	return fmt.Sprintf("%s: %s -> %s", c.fieldName, derefOr(c.oldValue, "<none>"), derefOr(c.newValue, "<none>"))
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

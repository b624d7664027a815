package scope

import (
	"context"
	"time"

	"github.com/scopewatch/api/pkg/domain/shared"
)

// History is one persisted scope check: the snapshot the fetcher returned
// plus the comparison outcome against the previous check. Append-only.
type History struct {
	id         shared.ID
	programID  shared.ID
	inScope    []string
	outOfScope []string
	changes    []Change
	checksum   string
	source     string
	checkedAt  time.Time
}

// NewHistory records a scope check result for a program.
func NewHistory(programID shared.ID, snapshot Snapshot, changes []Change, source string) (*History, error) {
	if programID.IsZero() {
		return nil, shared.ErrInvalidInput
	}
	if changes == nil {
		changes = []Change{}
	}
	return &History{
		id:         shared.NewID(),
		programID:  programID,
		inScope:    snapshot.InScope(),
		outOfScope: snapshot.OutOfScope(),
		changes:    changes,
		checksum:   snapshot.Checksum(),
		source:     source,
		checkedAt:  time.Now().UTC(),
	}, nil
}

// ReconstituteHistory rebuilds a History from persistence.
func ReconstituteHistory(
	id, programID shared.ID,
	inScope, outOfScope []string,
	changes []Change,
	checksum, source string,
	checkedAt time.Time,
) *History {
	return &History{
		id:         id,
		programID:  programID,
		inScope:    inScope,
		outOfScope: outOfScope,
		changes:    changes,
		checksum:   checksum,
		source:     source,
		checkedAt:  checkedAt,
	}
}

func (h *History) ID() shared.ID        { return h.id }
func (h *History) ProgramID() shared.ID { return h.programID }
func (h *History) InScope() []string    { return h.inScope }
func (h *History) OutOfScope() []string { return h.outOfScope }
func (h *History) Changes() []Change    { return h.changes }
func (h *History) Checksum() string     { return h.checksum }
func (h *History) Source() string       { return h.source }
func (h *History) CheckedAt() time.Time { return h.checkedAt }

// Snapshot rebuilds the scope snapshot this history row recorded.
func (h *History) Snapshot() Snapshot {
	return NewSnapshot(h.inScope, h.outOfScope, SnapshotMeta{})
}

// HistoryRepository persists scope check history.
type HistoryRepository interface {
	Append(ctx context.Context, history *History) error
	// Latest returns the most recent history row for the program, or
	// shared.ErrNotFound when the program has never been checked.
	Latest(ctx context.Context, programID shared.ID) (*History, error)
	ListByProgram(ctx context.Context, programID shared.ID, limit int) ([]*History, error)
}

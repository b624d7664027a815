package asset

import (
	"context"

	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/pagination"
)

// ListFilter narrows asset listings.
type ListFilter struct {
	ProgramID shared.ID
	Type      *Type
	IsAlive   *bool
	InScope   *bool
}

// Repository persists assets.
//
// Implementations must guarantee at most one in-flight mutation per
// (program id, value) key; change detection reads the current stored
// state before comparing, and unserialized concurrent updates to the
// same asset can lose change records.
type Repository interface {
	GetByID(ctx context.Context, id shared.ID) (*Asset, error)
	// GetByValue returns shared.ErrNotFound when no asset exists for the
	// (program id, normalized value) pair.
	GetByValue(ctx context.Context, programID shared.ID, value string) (*Asset, error)
	Create(ctx context.Context, a *Asset) error
	Update(ctx context.Context, a *Asset) error
	List(ctx context.Context, filter ListFilter, p pagination.Pagination) (pagination.Result[*Asset], error)
	ListByProgram(ctx context.Context, programID shared.ID) ([]*Asset, error)
	CountByProgram(ctx context.Context, programID shared.ID) (int64, error)
}

// ChangeRepository persists the append-only asset change log.
type ChangeRepository interface {
	Append(ctx context.Context, c *Change) error
	AppendBatch(ctx context.Context, changes []*Change) error
	ListByAsset(ctx context.Context, assetID shared.ID, limit int) ([]*Change, error)
	ListRecent(ctx context.Context, p pagination.Pagination) (pagination.Result[*Change], error)
	MarkAlerted(ctx context.Context, ids []shared.ID) error
}

package program

import (
	"context"

	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/pagination"
)

// Repository persists monitored programs.
type Repository interface {
	GetByID(ctx context.Context, id shared.ID) (*Program, error)
	// GetByHandle returns shared.ErrNotFound when no program exists for
	// the (platform, handle) pair.
	GetByHandle(ctx context.Context, platform Platform, handle string) (*Program, error)
	Create(ctx context.Context, p *Program) error
	Update(ctx context.Context, p *Program) error
	List(ctx context.Context, pg pagination.Pagination) (pagination.Result[*Program], error)
	ListActive(ctx context.Context) ([]*Program, error)
	Delete(ctx context.Context, id shared.ID) error
}

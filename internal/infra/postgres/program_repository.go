package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/scopewatch/api/pkg/domain/program"
	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/pagination"
)

// ProgramRepository implements program.Repository using PostgreSQL.
type ProgramRepository struct {
	db *DB
}

// NewProgramRepository creates a new ProgramRepository.
func NewProgramRepository(db *DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

func (r *ProgramRepository) selectQuery() string {
	return `
		SELECT p.id, p.platform, p.handle, p.name, p.url,
		       p.in_scope, p.out_of_scope,
		       p.is_active, p.last_scope_check, p.created_at, p.updated_at
		FROM programs p
	`
}

// GetByID retrieves a program by its ID.
func (r *ProgramRepository) GetByID(ctx context.Context, id shared.ID) (*program.Program, error) {
	query := r.selectQuery() + " WHERE p.id = $1"
	row := r.db.QueryRowContext(ctx, query, id.String())
	return r.scanProgram(row)
}

// GetByHandle retrieves a program by its (platform, handle) pair.
func (r *ProgramRepository) GetByHandle(ctx context.Context, platform program.Platform, handle string) (*program.Program, error) {
	query := r.selectQuery() + " WHERE p.platform = $1 AND p.handle = $2"
	row := r.db.QueryRowContext(ctx, query, platform.String(), handle)
	return r.scanProgram(row)
}

// Create inserts a new program.
func (r *ProgramRepository) Create(ctx context.Context, p *program.Program) error {
	query := `
		INSERT INTO programs (
			id, platform, handle, name, url,
			in_scope, out_of_scope,
			is_active, last_scope_check, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID().String(),
		p.Platform().String(),
		p.Handle(),
		p.Name(),
		nullString(p.URL()),
		pq.Array(p.InScope()),
		pq.Array(p.OutOfScope()),
		p.IsActive(),
		nullTime(p.LastScopeCheck()),
		p.CreatedAt(),
		p.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return program.ErrDuplicateHandle
		}
		return fmt.Errorf("failed to create program: %w", err)
	}

	return nil
}

// Update persists program mutations.
func (r *ProgramRepository) Update(ctx context.Context, p *program.Program) error {
	query := `
		UPDATE programs SET
			name = $2, url = $3,
			in_scope = $4, out_of_scope = $5,
			is_active = $6, last_scope_check = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		p.ID().String(),
		p.Name(),
		nullString(p.URL()),
		pq.Array(p.InScope()),
		pq.Array(p.OutOfScope()),
		p.IsActive(),
		nullTime(p.LastScopeCheck()),
		p.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update program: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return program.ErrProgramNotFound
	}

	return nil
}

// List retrieves programs with pagination, newest first.
func (r *ProgramRepository) List(ctx context.Context, pg pagination.Pagination) (pagination.Result[*program.Program], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM programs").Scan(&total); err != nil {
		return pagination.Result[*program.Program]{}, fmt.Errorf("failed to count programs: %w", err)
	}

	query := r.selectQuery() + " ORDER BY p.created_at DESC LIMIT $1 OFFSET $2"
	rows, err := r.db.QueryContext(ctx, query, pg.Limit(), pg.Offset())
	if err != nil {
		return pagination.Result[*program.Program]{}, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	programs, err := r.collectPrograms(rows)
	if err != nil {
		return pagination.Result[*program.Program]{}, err
	}

	return pagination.NewResult(programs, total, pg), nil
}

// ListActive retrieves all actively monitored programs.
func (r *ProgramRepository) ListActive(ctx context.Context) ([]*program.Program, error) {
	query := r.selectQuery() + " WHERE p.is_active = TRUE ORDER BY p.handle"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active programs: %w", err)
	}
	defer rows.Close()

	return r.collectPrograms(rows)
}

// Delete removes a program.
func (r *ProgramRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM programs WHERE id = $1", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return program.ErrProgramNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProgramRepository) scanProgram(row rowScanner) (*program.Program, error) {
	var (
		id             shared.ID
		platform       string
		handle         string
		name           string
		url            sql.NullString
		inScope        pq.StringArray
		outOfScope     pq.StringArray
		isActive       bool
		lastScopeCheck sql.NullTime
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&id, &platform, &handle, &name, &url,
		&inScope, &outOfScope,
		&isActive, &lastScopeCheck, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, program.ErrProgramNotFound
		}
		return nil, fmt.Errorf("failed to scan program: %w", err)
	}

	return program.Reconstitute(
		id,
		program.Platform(platform),
		handle,
		name,
		nullStringValue(url),
		[]string(inScope),
		[]string(outOfScope),
		isActive,
		nullTimeValue(lastScopeCheck),
		createdAt,
		updatedAt,
	), nil
}

func (r *ProgramRepository) collectPrograms(rows *sql.Rows) ([]*program.Program, error) {
	programs := make([]*program.Program, 0)
	for rows.Next() {
		p, err := r.scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate programs: %w", err)
	}
	return programs, nil
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

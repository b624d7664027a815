package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/scopewatch/api/pkg/domain/scope"
	"github.com/scopewatch/api/pkg/domain/shared"
)

// ScopeHistoryRepository implements scope.HistoryRepository using
// PostgreSQL. History rows are append-only; the changes column stores
// the comparison result as JSON for audit.
type ScopeHistoryRepository struct {
	db *DB
}

// NewScopeHistoryRepository creates a new ScopeHistoryRepository.
func NewScopeHistoryRepository(db *DB) *ScopeHistoryRepository {
	return &ScopeHistoryRepository{db: db}
}

func (r *ScopeHistoryRepository) selectQuery() string {
	return `
		SELECT h.id, h.program_id, h.in_scope, h.out_of_scope,
		       h.changes, h.checksum, h.source, h.checked_at
		FROM scope_history h
	`
}

// Append inserts one history row.
func (r *ScopeHistoryRepository) Append(ctx context.Context, h *scope.History) error {
	changesJSON, err := json.Marshal(h.Changes())
	if err != nil {
		return fmt.Errorf("failed to marshal scope changes: %w", err)
	}

	query := `
		INSERT INTO scope_history (
			id, program_id, in_scope, out_of_scope,
			changes, checksum, source, checked_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		h.ID().String(),
		h.ProgramID().String(),
		pq.Array(h.InScope()),
		pq.Array(h.OutOfScope()),
		changesJSON,
		h.Checksum(),
		nullString(h.Source()),
		h.CheckedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to append scope history: %w", err)
	}
	return nil
}

// Latest retrieves the most recent history row for a program.
func (r *ScopeHistoryRepository) Latest(ctx context.Context, programID shared.ID) (*scope.History, error) {
	query := r.selectQuery() + " WHERE h.program_id = $1 ORDER BY h.checked_at DESC LIMIT 1"
	row := r.db.QueryRowContext(ctx, query, programID.String())
	return r.scanHistory(row)
}

// ListByProgram retrieves history rows for a program, newest first.
func (r *ScopeHistoryRepository) ListByProgram(ctx context.Context, programID shared.ID, limit int) ([]*scope.History, error) {
	if limit < 1 {
		limit = 50
	}
	query := r.selectQuery() + " WHERE h.program_id = $1 ORDER BY h.checked_at DESC LIMIT $2"
	rows, err := r.db.QueryContext(ctx, query, programID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scope history: %w", err)
	}
	defer rows.Close()

	histories := make([]*scope.History, 0)
	for rows.Next() {
		h, err := r.scanHistory(rows)
		if err != nil {
			return nil, err
		}
		histories = append(histories, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scope history: %w", err)
	}
	return histories, nil
}

func (r *ScopeHistoryRepository) scanHistory(row rowScanner) (*scope.History, error) {
	var (
		id          shared.ID
		programID   shared.ID
		inScope     pq.StringArray
		outOfScope  pq.StringArray
		changesJSON []byte
		checksum    string
		source      sql.NullString
		checkedAt   time.Time
	)

	err := row.Scan(
		&id, &programID, &inScope, &outOfScope,
		&changesJSON, &checksum, &source, &checkedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan scope history: %w", err)
	}

	var changes []scope.Change
	if len(changesJSON) > 0 {
		if err := json.Unmarshal(changesJSON, &changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scope changes: %w", err)
		}
	}

	return scope.ReconstituteHistory(
		id, programID,
		[]string(inScope),
		[]string(outOfScope),
		changes,
		checksum,
		nullStringValue(source),
		checkedAt,
	), nil
}

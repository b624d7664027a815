package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/scopewatch/api/pkg/domain/asset"
	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/pagination"
)

// AssetChangeRepository implements asset.ChangeRepository using
// PostgreSQL. The change log is append-only; only the alerted and
// reviewed flags are ever updated.
type AssetChangeRepository struct {
	db *DB
}

// NewAssetChangeRepository creates a new AssetChangeRepository.
func NewAssetChangeRepository(db *DB) *AssetChangeRepository {
	return &AssetChangeRepository{db: db}
}

const assetChangeInsert = `
	INSERT INTO asset_changes (
		id, asset_id, change_type, field_name,
		old_value, new_value, detected_at, alerted, reviewed
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func (r *AssetChangeRepository) selectQuery() string {
	return `
		SELECT c.id, c.asset_id, c.change_type, c.field_name,
		       c.old_value, c.new_value, c.detected_at, c.alerted, c.reviewed
		FROM asset_changes c
	`
}

// Append inserts one change record.
func (r *AssetChangeRepository) Append(ctx context.Context, c *asset.Change) error {
	_, err := r.db.ExecContext(ctx, assetChangeInsert,
		c.ID().String(),
		c.AssetID().String(),
		c.Type().String(),
		c.FieldName(),
		nullStringPtr(c.OldValue()),
		nullStringPtr(c.NewValue()),
		c.DetectedAt(),
		c.Alerted(),
		c.Reviewed(),
	)
	if err != nil {
		return fmt.Errorf("failed to append asset change: %w", err)
	}
	return nil
}

// AppendBatch inserts multiple change records in a single transaction.
func (r *AssetChangeRepository) AppendBatch(ctx context.Context, changes []*asset.Change) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, assetChangeInsert)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range changes {
		_, err := stmt.ExecContext(ctx,
			c.ID().String(),
			c.AssetID().String(),
			c.Type().String(),
			c.FieldName(),
			nullStringPtr(c.OldValue()),
			nullStringPtr(c.NewValue()),
			c.DetectedAt(),
			c.Alerted(),
			c.Reviewed(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert asset change: %w", err)
		}
	}

	return tx.Commit()
}

// ListByAsset retrieves the most recent changes of one asset.
func (r *AssetChangeRepository) ListByAsset(ctx context.Context, assetID shared.ID, limit int) ([]*asset.Change, error) {
	if limit < 1 {
		limit = 50
	}
	query := r.selectQuery() + " WHERE c.asset_id = $1 ORDER BY c.detected_at DESC LIMIT $2"
	rows, err := r.db.QueryContext(ctx, query, assetID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset changes: %w", err)
	}
	defer rows.Close()

	return r.collectChanges(rows)
}

// ListRecent retrieves the newest changes across all assets.
func (r *AssetChangeRepository) ListRecent(ctx context.Context, pg pagination.Pagination) (pagination.Result[*asset.Change], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM asset_changes").Scan(&total); err != nil {
		return pagination.Result[*asset.Change]{}, fmt.Errorf("failed to count asset changes: %w", err)
	}

	query := r.selectQuery() + " ORDER BY c.detected_at DESC LIMIT $1 OFFSET $2"
	rows, err := r.db.QueryContext(ctx, query, pg.Limit(), pg.Offset())
	if err != nil {
		return pagination.Result[*asset.Change]{}, fmt.Errorf("failed to list asset changes: %w", err)
	}
	defer rows.Close()

	changes, err := r.collectChanges(rows)
	if err != nil {
		return pagination.Result[*asset.Change]{}, err
	}

	return pagination.NewResult(changes, total, pg), nil
}

// MarkAlerted flags the given changes as delivered.
func (r *AssetChangeRepository) MarkAlerted(ctx context.Context, ids []shared.ID) error {
	if len(ids) == 0 {
		return nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE asset_changes SET alerted = TRUE WHERE id = ANY($1)",
		pq.Array(strIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to mark changes alerted: %w", err)
	}
	return nil
}

func (r *AssetChangeRepository) scanChange(row rowScanner) (*asset.Change, error) {
	var (
		id         shared.ID
		assetID    shared.ID
		changeType string
		fieldName  string
		oldValue   sql.NullString
		newValue   sql.NullString
		detectedAt time.Time
		alerted    bool
		reviewed   bool
	)

	err := row.Scan(
		&id, &assetID, &changeType, &fieldName,
		&oldValue, &newValue, &detectedAt, &alerted, &reviewed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan asset change: %w", err)
	}

	return asset.ReconstituteChange(
		id, assetID,
		asset.ChangeType(changeType),
		fieldName,
		nullStringPtrValue(oldValue),
		nullStringPtrValue(newValue),
		detectedAt,
		alerted, reviewed,
	), nil
}

func (r *AssetChangeRepository) collectChanges(rows *sql.Rows) ([]*asset.Change, error) {
	changes := make([]*asset.Change, 0)
	for rows.Next() {
		c, err := r.scanChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate asset changes: %w", err)
	}
	return changes, nil
}

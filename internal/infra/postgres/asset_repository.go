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

// AssetRepository implements asset.Repository using PostgreSQL.
//
// Single-row reads for mutation go through GetByValue with FOR UPDATE
// inside the caller's transaction where serialization matters; the
// unique (program_id, value) index is the identity guarantee.
type AssetRepository struct {
	db *DB
}

// NewAssetRepository creates a new AssetRepository.
func NewAssetRepository(db *DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) selectQuery() string {
	return `
		SELECT a.id, a.program_id, a.asset_type, a.value,
		       a.is_alive, a.in_scope,
		       a.http_status, a.content_length, a.page_title,
		       a.technologies, a.response_hash, a.resolved_ips,
		       a.first_seen, a.last_seen, a.updated_at
		FROM assets a
	`
}

// GetByID retrieves an asset by its ID.
func (r *AssetRepository) GetByID(ctx context.Context, id shared.ID) (*asset.Asset, error) {
	query := r.selectQuery() + " WHERE a.id = $1"
	row := r.db.QueryRowContext(ctx, query, id.String())
	return r.scanAsset(row)
}

// GetByValue retrieves an asset by its (program id, value) identity.
func (r *AssetRepository) GetByValue(ctx context.Context, programID shared.ID, value string) (*asset.Asset, error) {
	query := r.selectQuery() + " WHERE a.program_id = $1 AND a.value = $2"
	row := r.db.QueryRowContext(ctx, query, programID.String(), asset.NormalizeValue(value))
	return r.scanAsset(row)
}

// Create inserts a new asset.
func (r *AssetRepository) Create(ctx context.Context, a *asset.Asset) error {
	query := `
		INSERT INTO assets (
			id, program_id, asset_type, value,
			is_alive, in_scope,
			http_status, content_length, page_title,
			technologies, response_hash, resolved_ips,
			first_seen, last_seen, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID().String(),
		a.ProgramID().String(),
		a.Type().String(),
		a.Value(),
		a.IsAlive(),
		a.InScope(),
		nullInt(a.HTTPStatus()),
		nullInt64(a.ContentLength()),
		nullStringPtr(a.PageTitle()),
		pq.Array(a.Technologies()),
		nullStringPtr(a.ResponseHash()),
		pq.Array(a.ResolvedIPs()),
		a.FirstSeen(),
		a.LastSeen(),
		a.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return asset.ErrDuplicateValue
		}
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// Update persists asset mutations. first_seen is immutable and never
// written back.
func (r *AssetRepository) Update(ctx context.Context, a *asset.Asset) error {
	query := `
		UPDATE assets SET
			is_alive = $2, in_scope = $3,
			http_status = $4, content_length = $5, page_title = $6,
			technologies = $7, response_hash = $8, resolved_ips = $9,
			last_seen = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		a.ID().String(),
		a.IsAlive(),
		a.InScope(),
		nullInt(a.HTTPStatus()),
		nullInt64(a.ContentLength()),
		nullStringPtr(a.PageTitle()),
		pq.Array(a.Technologies()),
		nullStringPtr(a.ResponseHash()),
		pq.Array(a.ResolvedIPs()),
		a.LastSeen(),
		a.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return asset.ErrAssetNotFound
	}

	return nil
}

// List retrieves assets matching the filter with pagination.
func (r *AssetRepository) List(ctx context.Context, filter asset.ListFilter, pg pagination.Pagination) (pagination.Result[*asset.Asset], error) {
	where, args := r.buildFilter(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM assets a" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return pagination.Result[*asset.Asset]{}, fmt.Errorf("failed to count assets: %w", err)
	}

	query := fmt.Sprintf("%s%s ORDER BY a.first_seen DESC LIMIT $%d OFFSET $%d",
		r.selectQuery(), where, len(args)+1, len(args)+2)
	args = append(args, pg.Limit(), pg.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return pagination.Result[*asset.Asset]{}, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets, err := r.collectAssets(rows)
	if err != nil {
		return pagination.Result[*asset.Asset]{}, err
	}

	return pagination.NewResult(assets, total, pg), nil
}

// ListByProgram retrieves all assets of a program.
func (r *AssetRepository) ListByProgram(ctx context.Context, programID shared.ID) ([]*asset.Asset, error) {
	query := r.selectQuery() + " WHERE a.program_id = $1 ORDER BY a.value"
	rows, err := r.db.QueryContext(ctx, query, programID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	return r.collectAssets(rows)
}

// CountByProgram returns the number of assets of a program.
func (r *AssetRepository) CountByProgram(ctx context.Context, programID shared.ID) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assets WHERE program_id = $1", programID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return count, nil
}

func (r *AssetRepository) buildFilter(filter asset.ListFilter) (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if !filter.ProgramID.IsZero() {
		args = append(args, filter.ProgramID.String())
		conds = append(conds, fmt.Sprintf("a.program_id = $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, filter.Type.String())
		conds = append(conds, fmt.Sprintf("a.asset_type = $%d", len(args)))
	}
	if filter.IsAlive != nil {
		args = append(args, *filter.IsAlive)
		conds = append(conds, fmt.Sprintf("a.is_alive = $%d", len(args)))
	}
	if filter.InScope != nil {
		args = append(args, *filter.InScope)
		conds = append(conds, fmt.Sprintf("a.in_scope = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}

func (r *AssetRepository) scanAsset(row rowScanner) (*asset.Asset, error) {
	var (
		id            shared.ID
		programID     shared.ID
		assetType     string
		value         string
		isAlive       bool
		inScope       bool
		httpStatus    sql.NullInt64
		contentLength sql.NullInt64
		pageTitle     sql.NullString
		technologies  pq.StringArray
		responseHash  sql.NullString
		resolvedIPs   pq.StringArray
		firstSeen     time.Time
		lastSeen      time.Time
		updatedAt     time.Time
	)

	err := row.Scan(
		&id, &programID, &assetType, &value,
		&isAlive, &inScope,
		&httpStatus, &contentLength, &pageTitle,
		&technologies, &responseHash, &resolvedIPs,
		&firstSeen, &lastSeen, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, asset.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}

	return asset.Reconstitute(
		id, programID,
		asset.Type(assetType),
		value,
		isAlive, inScope,
		nullIntValue(httpStatus),
		nullInt64Value(contentLength),
		nullStringPtrValue(pageTitle),
		[]string(technologies),
		nullStringPtrValue(responseHash),
		[]string(resolvedIPs),
		firstSeen, lastSeen, updatedAt,
	), nil
}

func (r *AssetRepository) collectAssets(rows *sql.Rows) ([]*asset.Asset, error) {
	assets := make([]*asset.Asset, 0)
	for rows.Next() {
		a, err := r.scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}
	return assets, nil
}

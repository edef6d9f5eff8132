package ads

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradepost/tradepost/internal/shared"
)

// RepositoryPort defines persistence operations for advertisements.
type RepositoryPort interface {
	Create(ctx context.Context, ownerID int64, draft Draft) (Advertisement, error)
	Get(ctx context.Context, id int64) (Advertisement, error)
	Update(ctx context.Context, id int64, draft Draft) (Advertisement, error)
	SetStatus(ctx context.Context, id int64, status Status) (Advertisement, error)
	Publish(ctx context.Context, id int64, lifetimeDays int) (Advertisement, error)
	Delete(ctx context.Context, id int64) error
	ListPublished(ctx context.Context, filter ListFilter) ([]Advertisement, int, error)
	ListByOwner(ctx context.Context, ownerID int64, filter ListFilter) ([]Advertisement, int, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const adColumns = `id, owner_id, category_id, title, description, price_cents, currency, status, attributes, created_at, updated_at, published_at, expires_at`

func scanAd(row pgx.Row) (Advertisement, error) {
	var ad Advertisement
	err := row.Scan(&ad.ID, &ad.OwnerID, &ad.CategoryID, &ad.Title, &ad.Description, &ad.PriceCents,
		&ad.Currency, &ad.Status, &ad.Attributes, &ad.CreatedAt, &ad.UpdatedAt, &ad.PublishedAt, &ad.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Advertisement{}, shared.ErrNotFound
		}
		return Advertisement{}, err
	}
	return ad, nil
}

// Create inserts a draft advertisement.
func (r *Repository) Create(ctx context.Context, ownerID int64, draft Draft) (Advertisement, error) {
	return scanAd(r.pool.QueryRow(ctx, `INSERT INTO advertisements
		(owner_id, category_id, title, description, price_cents, currency, status, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, 'draft', $7)
		RETURNING `+adColumns,
		ownerID, draft.CategoryID, draft.Title, draft.Description, draft.PriceCents, draft.Currency, draft.Attributes))
}

// Get fetches an advertisement by id.
func (r *Repository) Get(ctx context.Context, id int64) (Advertisement, error) {
	return scanAd(r.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM advertisements WHERE id=$1`, id))
}

// Update rewrites the caller-editable fields.
func (r *Repository) Update(ctx context.Context, id int64, draft Draft) (Advertisement, error) {
	return scanAd(r.pool.QueryRow(ctx, `UPDATE advertisements
		SET category_id=$2, title=$3, description=$4, price_cents=$5, currency=$6, attributes=$7, updated_at=NOW()
		WHERE id=$1
		RETURNING `+adColumns,
		id, draft.CategoryID, draft.Title, draft.Description, draft.PriceCents, draft.Currency, draft.Attributes))
}

// SetStatus moves an advertisement to the given status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status) (Advertisement, error) {
	return scanAd(r.pool.QueryRow(ctx, `UPDATE advertisements SET status=$2, updated_at=NOW()
		WHERE id=$1 RETURNING `+adColumns, id, status))
}

// Publish marks an advertisement published with an expiry window.
func (r *Repository) Publish(ctx context.Context, id int64, lifetimeDays int) (Advertisement, error) {
	return scanAd(r.pool.QueryRow(ctx, `UPDATE advertisements
		SET status='published', published_at=NOW(), expires_at=NOW() + make_interval(days => $2), updated_at=NOW()
		WHERE id=$1 RETURNING `+adColumns, id, lifetimeDays))
}

// Delete removes an advertisement.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM advertisements WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListPublished returns published advertisements, optionally narrowed by
// category, newest first.
func (r *Repository) ListPublished(ctx context.Context, filter ListFilter) ([]Advertisement, int, error) {
	limit, offset := limitOffset(filter)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM advertisements
		WHERE status='published' AND ($1 = 0 OR category_id=$1)`, filter.CategoryID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+adColumns+` FROM advertisements
		WHERE status='published' AND ($1 = 0 OR category_id=$1)
		ORDER BY published_at DESC LIMIT $2 OFFSET $3`, filter.CategoryID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectAds(rows)
	return out, total, err
}

// ListByOwner returns all advertisements of one owner regardless of status.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64, filter ListFilter) ([]Advertisement, int, error) {
	limit, offset := limitOffset(filter)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM advertisements WHERE owner_id=$1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+adColumns+` FROM advertisements
		WHERE owner_id=$1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectAds(rows)
	return out, total, err
}

// ExpireOverdue flips published advertisements whose expiry passed.
func (r *Repository) ExpireOverdue(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE advertisements SET status='expired', updated_at=NOW()
		WHERE status='published' AND expires_at IS NOT NULL AND expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectAds(rows pgx.Rows) ([]Advertisement, error) {
	defer rows.Close()
	var out []Advertisement
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ad)
	}
	return out, rows.Err()
}

func limitOffset(filter ListFilter) (int, int) {
	perPage := filter.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	return perPage, (page - 1) * perPage
}

var _ RepositoryPort = (*Repository)(nil)

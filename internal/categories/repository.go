package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradepost/tradepost/internal/shared"
)

// RepositoryPort defines persistence operations for the taxonomy.
type RepositoryPort interface {
	Create(ctx context.Context, draft Draft, slug string) (Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	GetBySlug(ctx context.Context, slug string) (Category, error)
	Update(ctx context.Context, id int64, draft Draft, slug string) (Category, error)
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]Category, error)
	ListChildren(ctx context.Context, parentID int64) ([]Category, error)
	CountAds(ctx context.Context, id int64) (int64, error)

	ListAttributes(ctx context.Context, categoryID int64) ([]AttributeDefinition, error)
	CreateAttribute(ctx context.Context, def AttributeDefinition) (AttributeDefinition, error)
	DeleteAttribute(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const categoryColumns = `id, parent_id, name, slug, sort_order, created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var cat Category
	err := row.Scan(&cat.ID, &cat.ParentID, &cat.Name, &cat.Slug, &cat.SortOrder, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, mapUniqueViolation(err)
	}
	return cat, nil
}

// Create inserts a category node.
func (r *Repository) Create(ctx context.Context, draft Draft, slug string) (Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `INSERT INTO categories (parent_id, name, slug, sort_order)
		VALUES ($1, $2, $3, $4) RETURNING `+categoryColumns,
		draft.ParentID, draft.Name, slug, draft.SortOrder))
}

// Get fetches a category by id.
func (r *Repository) Get(ctx context.Context, id int64) (Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id))
}

// GetBySlug fetches a category by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug=$1`, slug))
}

// Update rewrites a category node.
func (r *Repository) Update(ctx context.Context, id int64, draft Draft, slug string) (Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `UPDATE categories
		SET parent_id=$2, name=$3, slug=$4, sort_order=$5, updated_at=NOW()
		WHERE id=$1 RETURNING `+categoryColumns,
		id, draft.ParentID, draft.Name, slug, draft.SortOrder))
}

// Delete removes a category node.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListAll returns the whole taxonomy ordered for tree assembly.
func (r *Repository) ListAll(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories
		ORDER BY parent_id NULLS FIRST, sort_order, name`)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

// ListChildren returns the direct children of one node.
func (r *Repository) ListChildren(ctx context.Context, parentID int64) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories
		WHERE parent_id=$1 ORDER BY sort_order, name`, parentID)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

// CountAds counts advertisements attached to a category.
func (r *Repository) CountAds(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM advertisements WHERE category_id=$1`, id).Scan(&n)
	return n, err
}

// ListAttributes returns the attribute definitions of a category.
func (r *Repository) ListAttributes(ctx context.Context, categoryID int64) ([]AttributeDefinition, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, category_id, name, kind, required, options
		FROM category_attributes WHERE category_id=$1 ORDER BY id`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AttributeDefinition
	for rows.Next() {
		var def AttributeDefinition
		if err := rows.Scan(&def.ID, &def.CategoryID, &def.Name, &def.Kind, &def.Required, &def.Options); err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

// CreateAttribute inserts an attribute definition.
func (r *Repository) CreateAttribute(ctx context.Context, def AttributeDefinition) (AttributeDefinition, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO category_attributes (category_id, name, kind, required, options)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		def.CategoryID, def.Name, def.Kind, def.Required, def.Options).Scan(&def.ID)
	if err != nil {
		return AttributeDefinition{}, mapUniqueViolation(err)
	}
	return def, nil
}

// DeleteAttribute removes an attribute definition.
func (r *Repository) DeleteAttribute(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM category_attributes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func collectCategories(rows pgx.Rows) ([]Category, error) {
	defer rows.Close()
	var out []Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, rows.Err()
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)

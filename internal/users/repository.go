package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradepost/tradepost/internal/shared"
)

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	SetActive(ctx context.Context, id int64, active bool) (User, error)
	UpdateProfile(ctx context.Context, id int64, profile Profile) (User, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, display_name, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// List returns accounts matching the filter, newest first. An empty query
// matches everything; otherwise email and display name are searched.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	limit, offset := limitOffset(filter)
	pattern := "%" + filter.Query + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users
		WHERE $1 = '%%' OR email ILIKE $1 OR display_name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users
		WHERE $1 = '%%' OR email ILIKE $1 OR display_name ILIKE $1
		ORDER BY id DESC LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, user)
	}
	return out, total, rows.Err()
}

// Get fetches one account by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// SetActive toggles the account's active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `UPDATE users SET is_active=$2, updated_at=NOW()
		WHERE id=$1 RETURNING `+userColumns, id, active))
}

// UpdateProfile rewrites the self-editable fields.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, profile Profile) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `UPDATE users SET display_name=$2, updated_at=NOW()
		WHERE id=$1 RETURNING `+userColumns, id, profile.DisplayName))
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

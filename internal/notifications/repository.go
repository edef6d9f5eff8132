package notifications

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradepost/tradepost/internal/shared"
)

// RepositoryPort defines persistence operations for subscriptions.
type RepositoryPort interface {
	Subscribe(ctx context.Context, userID, categoryID int64) (Subscription, error)
	Unsubscribe(ctx context.Context, userID, categoryID int64) error
	ListByUser(ctx context.Context, userID int64) ([]Subscription, error)
	RecipientsForCategory(ctx context.Context, categoryID int64) ([]Recipient, error)
	EmailOf(ctx context.Context, userID int64) (string, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Subscribe inserts a subscription. Subscribing twice is a conflict.
func (r *Repository) Subscribe(ctx context.Context, userID, categoryID int64) (Subscription, error) {
	var sub Subscription
	err := r.pool.QueryRow(ctx, `INSERT INTO category_subscriptions (user_id, category_id)
		VALUES ($1, $2) RETURNING id, user_id, category_id, created_at`, userID, categoryID).
		Scan(&sub.ID, &sub.UserID, &sub.CategoryID, &sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return Subscription{}, shared.ErrDuplicate
			case "23503":
				return Subscription{}, shared.ErrNotFound
			}
		}
		return Subscription{}, err
	}
	return sub, nil
}

// Unsubscribe removes a subscription.
func (r *Repository) Unsubscribe(ctx context.Context, userID, categoryID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM category_subscriptions
		WHERE user_id=$1 AND category_id=$2`, userID, categoryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListByUser returns one user's subscriptions.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Subscription, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, category_id, created_at
		FROM category_subscriptions WHERE user_id=$1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.CategoryID, &sub.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// RecipientsForCategory resolves active subscribers of a category to
// addresses.
func (r *Repository) RecipientsForCategory(ctx context.Context, categoryID int64) ([]Recipient, error) {
	rows, err := r.pool.Query(ctx, `SELECT u.id, u.email
		FROM category_subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE s.category_id=$1 AND u.is_active`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.UserID, &rec.Email); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// EmailOf resolves one active user's address.
func (r *Repository) EmailOf(ctx context.Context, userID int64) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx, `SELECT email FROM users WHERE id=$1 AND is_active`, userID).Scan(&email)
	if err != nil {
		return "", shared.ErrNotFound
	}
	return email, nil
}

var _ RepositoryPort = (*Repository)(nil)

package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradepost/tradepost/internal/shared"
)

// RepositoryPort defines persistence operations for payments.
type RepositoryPort interface {
	Insert(ctx context.Context, payerID int64, rec Record) (Payment, error)
	GetByClientRef(ctx context.Context, payerID int64, clientRef string) (Payment, error)
	ListByPayer(ctx context.Context, payerID int64) ([]Payment, error)
	ListAll(ctx context.Context, limit, offset int) ([]Payment, int, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentColumns = `id, payer_id, advertisement_id, kind, amount_cents, currency, client_ref, created_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.PayerID, &p.AdvertisementID, &p.Kind, &p.AmountCents, &p.Currency, &p.ClientRef, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Payment{}, shared.ErrDuplicate
		}
		return Payment{}, err
	}
	return p, nil
}

// Insert records a payment. client_ref is unique per payer; replays surface
// as ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, payerID int64, rec Record) (Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `INSERT INTO payments
		(payer_id, advertisement_id, kind, amount_cents, currency, client_ref)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+paymentColumns,
		payerID, rec.AdvertisementID, rec.Kind, rec.AmountCents, rec.Currency, rec.ClientRef))
}

// GetByClientRef fetches the payer's payment carrying the given reference.
func (r *Repository) GetByClientRef(ctx context.Context, payerID int64, clientRef string) (Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE payer_id=$1 AND client_ref=$2`, payerID, clientRef))
}

// ListByPayer returns one payer's payments, newest first.
func (r *Repository) ListByPayer(ctx context.Context, payerID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE payer_id=$1 ORDER BY id DESC`, payerID)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// ListAll returns every payment for back-office review.
func (r *Repository) ListAll(ctx context.Context, limit, offset int) ([]Payment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments
		ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectPayments(rows)
	return out, total, err
}

func collectPayments(rows pgx.Rows) ([]Payment, error) {
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)

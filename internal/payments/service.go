package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tradepost/tradepost/internal/shared"
)

// Service handles payment recording rules.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance. audit may be nil.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Record stores a payment. Replaying the same client reference returns the
// original record instead of a second charge.
func (s *Service) Record(ctx context.Context, payerID int64, rec Record) (Payment, bool, error) {
	if err := validateRecord(&rec); err != nil {
		return Payment{}, false, err
	}
	payment, err := s.repo.Insert(ctx, payerID, rec)
	if errors.Is(err, shared.ErrDuplicate) {
		existing, getErr := s.repo.GetByClientRef(ctx, payerID, rec.ClientRef)
		if getErr != nil {
			return Payment{}, false, getErr
		}
		return existing, true, nil
	}
	if err != nil {
		return Payment{}, false, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  payerID,
			Action:   "record",
			Entity:   "payment",
			EntityID: payment.ClientRef,
			Meta:     map[string]any{"amount_cents": payment.AmountCents, "kind": string(payment.Kind)},
		})
	}
	return payment, false, nil
}

// ListOwn returns the actor's payments.
func (s *Service) ListOwn(ctx context.Context, actorID int64) ([]Payment, error) {
	return s.repo.ListByPayer(ctx, actorID)
}

// ListAll returns payments for back-office review.
func (s *Service) ListAll(ctx context.Context, page, perPage int) ([]Payment, shared.Pagination, error) {
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	out, total, err := s.repo.ListAll(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(page, perPage, total), nil
}

func validateRecord(rec *Record) error {
	rec.ClientRef = strings.TrimSpace(rec.ClientRef)
	if rec.ClientRef == "" {
		return fmt.Errorf("%w: client reference required", shared.ErrInvalidInput)
	}
	if rec.AmountCents <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrInvalidInput)
	}
	switch rec.Kind {
	case KindPromotion, KindListingFee, KindSubscription:
	default:
		return fmt.Errorf("%w: unknown payment kind %q", shared.ErrInvalidInput, rec.Kind)
	}
	if rec.Currency == "" {
		rec.Currency = "EUR"
	}
	return nil
}

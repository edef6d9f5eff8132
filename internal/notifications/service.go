package notifications

import (
	"context"
	"fmt"

	"github.com/tradepost/tradepost/internal/shared"
)

// Service handles subscription rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Subscribe registers interest in a category. Subscribing twice surfaces
// as ErrDuplicate.
func (s *Service) Subscribe(ctx context.Context, userID, categoryID int64) (Subscription, error) {
	if categoryID <= 0 {
		return Subscription{}, fmt.Errorf("%w: category required", shared.ErrInvalidInput)
	}
	return s.repo.Subscribe(ctx, userID, categoryID)
}

// Unsubscribe removes interest in a category.
func (s *Service) Unsubscribe(ctx context.Context, userID, categoryID int64) error {
	return s.repo.Unsubscribe(ctx, userID, categoryID)
}

// ListFor returns the actor's subscriptions.
func (s *Service) ListFor(ctx context.Context, userID int64) ([]Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

// RecipientsForCategory resolves who should hear about a new listing.
func (s *Service) RecipientsForCategory(ctx context.Context, categoryID int64) ([]Recipient, error) {
	return s.repo.RecipientsForCategory(ctx, categoryID)
}

// EmailOf resolves one active user's address.
func (s *Service) EmailOf(ctx context.Context, userID int64) (string, error) {
	return s.repo.EmailOf(ctx, userID)
}

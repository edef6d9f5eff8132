package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradepost/tradepost/internal/shared"
)

// Service handles account management rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns accounts matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, shared.Pagination, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	out, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Deactivate disables an account. Admins cannot lock themselves out.
func (s *Service) Deactivate(ctx context.Context, actorID, id int64) (User, error) {
	if actorID == id {
		return User{}, fmt.Errorf("%w: cannot deactivate own account", shared.ErrInvalidInput)
	}
	return s.repo.SetActive(ctx, id, false)
}

// Reactivate re-enables an account.
func (s *Service) Reactivate(ctx context.Context, id int64) (User, error) {
	return s.repo.SetActive(ctx, id, true)
}

// UpdateProfile rewrites the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, actorID int64, profile Profile) (User, error) {
	profile.DisplayName = strings.TrimSpace(profile.DisplayName)
	if profile.DisplayName == "" {
		return User{}, fmt.Errorf("%w: display name required", shared.ErrInvalidInput)
	}
	return s.repo.UpdateProfile(ctx, actorID, profile)
}

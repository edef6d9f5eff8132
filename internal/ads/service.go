package ads

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"github.com/tradepost/tradepost/internal/shared"
)

// DefaultLifetimeDays is the publish-to-expiry window for listings.
const DefaultLifetimeDays = 30

// PermissionChecker answers moderation-permission queries. Implemented by
// the rbac service; consulted only when the actor is not the owner.
type PermissionChecker interface {
	UserHasAnyPermission(ctx context.Context, userID int64, names []string) (bool, error)
}

// Publisher is notified after an advertisement goes live so subscription
// fan-out can run in the background.
type Publisher interface {
	AdPublished(ctx context.Context, ad Advertisement) error
}

// Service handles advertisement business rules.
type Service struct {
	repo      RepositoryPort
	perms     PermissionChecker
	publisher Publisher
	audit     *shared.AuditLogger
	logger    *slog.Logger
}

// NewService builds a Service instance. publisher and audit may be nil.
func NewService(repo RepositoryPort, perms PermissionChecker, publisher Publisher, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, perms: perms, publisher: publisher, audit: audit, logger: logger}
}

// Create stores a new draft owned by the actor.
func (s *Service) Create(ctx context.Context, actorID int64, draft Draft) (Advertisement, error) {
	if err := validateDraft(&draft); err != nil {
		return Advertisement{}, err
	}
	return s.repo.Create(ctx, actorID, draft)
}

// Get returns an advertisement. Drafts and archived listings are visible
// only to their owner or to moderators holding ads.edit.any.
func (s *Service) Get(ctx context.Context, actorID int64, id int64) (Advertisement, error) {
	ad, err := s.repo.Get(ctx, id)
	if err != nil {
		return Advertisement{}, err
	}
	if ad.Status == StatusPublished || ad.OwnerID == actorID {
		return ad, nil
	}
	ok, err := s.canModerate(ctx, actorID, shared.PermAdsEditAny)
	if err != nil {
		return Advertisement{}, err
	}
	if !ok {
		return Advertisement{}, shared.ErrNotFound
	}
	return ad, nil
}

// ListPublished lists live advertisements.
func (s *Service) ListPublished(ctx context.Context, filter ListFilter) ([]Advertisement, shared.Pagination, error) {
	out, total, err := s.repo.ListPublished(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// ListOwn lists the actor's advertisements in every status.
func (s *Service) ListOwn(ctx context.Context, actorID int64, filter ListFilter) ([]Advertisement, shared.Pagination, error) {
	out, total, err := s.repo.ListByOwner(ctx, actorID, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Update rewrites a listing. Owners edit their own; anyone else needs
// ads.edit.any.
func (s *Service) Update(ctx context.Context, actorID int64, id int64, draft Draft) (Advertisement, error) {
	if err := validateDraft(&draft); err != nil {
		return Advertisement{}, err
	}
	if err := s.authorizeMutation(ctx, actorID, id, shared.PermAdsEditAny); err != nil {
		return Advertisement{}, err
	}
	return s.repo.Update(ctx, id, draft)
}

// Publish takes a draft live and triggers subscription fan-out. Republishing
// an already-published listing is rejected.
func (s *Service) Publish(ctx context.Context, actorID int64, id int64) (Advertisement, error) {
	ad, err := s.repo.Get(ctx, id)
	if err != nil {
		return Advertisement{}, err
	}
	if ad.OwnerID != actorID {
		ok, err := s.canModerate(ctx, actorID, shared.PermAdsEditAny)
		if err != nil {
			return Advertisement{}, err
		}
		if !ok {
			return Advertisement{}, shared.ErrForbidden
		}
	}
	if ad.Status == StatusPublished {
		return Advertisement{}, fmt.Errorf("%w: already published", shared.ErrInvalidInput)
	}
	published, err := s.repo.Publish(ctx, id, DefaultLifetimeDays)
	if err != nil {
		return Advertisement{}, err
	}
	if s.publisher != nil {
		if err := s.publisher.AdPublished(ctx, published); err != nil && s.logger != nil {
			// Fan-out is best effort; the listing is live either way.
			s.logger.Warn("ad publish fan-out", slog.Int64("ad_id", published.ID), slog.Any("error", err))
		}
	}
	s.recordAudit(ctx, actorID, "publish", published.ID)
	return published, nil
}

// Archive takes a listing offline.
func (s *Service) Archive(ctx context.Context, actorID int64, id int64) (Advertisement, error) {
	if err := s.authorizeMutation(ctx, actorID, id, shared.PermAdsEditAny); err != nil {
		return Advertisement{}, err
	}
	ad, err := s.repo.SetStatus(ctx, id, StatusArchived)
	if err != nil {
		return Advertisement{}, err
	}
	s.recordAudit(ctx, actorID, "archive", id)
	return ad, nil
}

// Delete removes a listing. Owners delete their own; anyone else needs
// ads.delete.any.
func (s *Service) Delete(ctx context.Context, actorID int64, id int64) error {
	if err := s.authorizeMutation(ctx, actorID, id, shared.PermAdsDeleteAny); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "delete", id)
	return nil
}

// OwnerOfPublished resolves the owner of a live listing; used by messaging
// to open buyer threads. Non-published listings read as not found.
func (s *Service) OwnerOfPublished(ctx context.Context, id int64) (int64, error) {
	ad, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if ad.Status != StatusPublished {
		return 0, shared.ErrNotFound
	}
	return ad.OwnerID, nil
}

// ExpireOverdue flips published listings past their expiry; run by the
// nightly job.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.repo.ExpireOverdue(ctx)
}

func (s *Service) authorizeMutation(ctx context.Context, actorID, adID int64, overridePerm string) error {
	ad, err := s.repo.Get(ctx, adID)
	if err != nil {
		return err
	}
	if ad.OwnerID == actorID {
		return nil
	}
	ok, err := s.canModerate(ctx, actorID, overridePerm)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrForbidden
	}
	return nil
}

func (s *Service) canModerate(ctx context.Context, actorID int64, perm string) (bool, error) {
	if s.perms == nil {
		return false, nil
	}
	return s.perms.UserHasAnyPermission(ctx, actorID, []string{perm})
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, adID int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "advertisement",
		EntityID: fmt.Sprintf("%d", adID),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}

func validateDraft(draft *Draft) error {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	if draft.Title == "" {
		return fmt.Errorf("%w: title required", shared.ErrInvalidInput)
	}
	if draft.CategoryID <= 0 {
		return fmt.Errorf("%w: category required", shared.ErrInvalidInput)
	}
	if draft.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", shared.ErrInvalidInput)
	}
	if draft.Currency == "" {
		draft.Currency = "EUR"
	}
	return nil
}

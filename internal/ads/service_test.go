package ads

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/shared"
)

type mockRepository struct {
	ads    map[int64]Advertisement
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{ads: make(map[int64]Advertisement), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, ownerID int64, draft Draft) (Advertisement, error) {
	ad := Advertisement{
		ID:          m.nextID,
		OwnerID:     ownerID,
		CategoryID:  draft.CategoryID,
		Title:       draft.Title,
		Description: draft.Description,
		PriceCents:  draft.PriceCents,
		Currency:    draft.Currency,
		Status:      StatusDraft,
		Attributes:  draft.Attributes,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.ads[ad.ID] = ad
	m.nextID++
	return ad, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Advertisement, error) {
	ad, ok := m.ads[id]
	if !ok {
		return Advertisement{}, shared.ErrNotFound
	}
	return ad, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, draft Draft) (Advertisement, error) {
	ad, ok := m.ads[id]
	if !ok {
		return Advertisement{}, shared.ErrNotFound
	}
	ad.CategoryID = draft.CategoryID
	ad.Title = draft.Title
	ad.Description = draft.Description
	ad.PriceCents = draft.PriceCents
	ad.Currency = draft.Currency
	ad.Attributes = draft.Attributes
	ad.UpdatedAt = time.Now()
	m.ads[id] = ad
	return ad, nil
}

func (m *mockRepository) SetStatus(ctx context.Context, id int64, status Status) (Advertisement, error) {
	ad, ok := m.ads[id]
	if !ok {
		return Advertisement{}, shared.ErrNotFound
	}
	ad.Status = status
	m.ads[id] = ad
	return ad, nil
}

func (m *mockRepository) Publish(ctx context.Context, id int64, lifetimeDays int) (Advertisement, error) {
	ad, ok := m.ads[id]
	if !ok {
		return Advertisement{}, shared.ErrNotFound
	}
	now := time.Now()
	expires := now.AddDate(0, 0, lifetimeDays)
	ad.Status = StatusPublished
	ad.PublishedAt = &now
	ad.ExpiresAt = &expires
	m.ads[id] = ad
	return ad, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.ads[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.ads, id)
	return nil
}

func (m *mockRepository) ListPublished(ctx context.Context, filter ListFilter) ([]Advertisement, int, error) {
	var out []Advertisement
	for _, ad := range m.ads {
		if ad.Status != StatusPublished {
			continue
		}
		if filter.CategoryID != 0 && ad.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, ad)
	}
	return out, len(out), nil
}

func (m *mockRepository) ListByOwner(ctx context.Context, ownerID int64, filter ListFilter) ([]Advertisement, int, error) {
	var out []Advertisement
	for _, ad := range m.ads {
		if ad.OwnerID == ownerID {
			out = append(out, ad)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) ExpireOverdue(ctx context.Context) (int64, error) {
	var n int64
	now := time.Now()
	for id, ad := range m.ads {
		if ad.Status == StatusPublished && ad.ExpiresAt != nil && ad.ExpiresAt.Before(now) {
			ad.Status = StatusExpired
			m.ads[id] = ad
			n++
		}
	}
	return n, nil
}

var _ RepositoryPort = (*mockRepository)(nil)

type stubPerms struct {
	grants map[int64][]string
}

func (s *stubPerms) UserHasAnyPermission(ctx context.Context, userID int64, names []string) (bool, error) {
	for _, held := range s.grants[userID] {
		for _, name := range names {
			if held == name {
				return true, nil
			}
		}
	}
	return false, nil
}

type recordingPublisher struct {
	published []Advertisement
}

func (p *recordingPublisher) AdPublished(ctx context.Context, ad Advertisement) error {
	p.published = append(p.published, ad)
	return nil
}

func fixture() (*Service, *mockRepository, *stubPerms, *recordingPublisher) {
	repo := newMockRepository()
	perms := &stubPerms{grants: make(map[int64][]string)}
	publisher := &recordingPublisher{}
	svc := NewService(repo, perms, publisher, nil, nil)
	return svc, repo, perms, publisher
}

func validDraft() Draft {
	return Draft{CategoryID: 3, Title: "Vintage bicycle", Description: "Rides fine", PriceCents: 12500}
}

func TestCreateValidatesDraft(t *testing.T) {
	svc, _, _, _ := fixture()

	_, err := svc.Create(context.Background(), 1, Draft{CategoryID: 3})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Create(context.Background(), 1, Draft{Title: "No category"})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Create(context.Background(), 1, Draft{CategoryID: 3, Title: "Negative", PriceCents: -1})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCreateDefaultsCurrency(t *testing.T) {
	svc, _, _, _ := fixture()

	ad, err := svc.Create(context.Background(), 1, validDraft())
	require.NoError(t, err)
	assert.Equal(t, "EUR", ad.Currency)
	assert.Equal(t, StatusDraft, ad.Status)
	assert.Equal(t, int64(1), ad.OwnerID)
}

func TestGetHidesDraftsFromStrangers(t *testing.T) {
	svc, _, perms, _ := fixture()
	ad, err := svc.Create(context.Background(), 1, validDraft())
	require.NoError(t, err)

	// Owner sees the draft.
	got, err := svc.Get(context.Background(), 1, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, ad.ID, got.ID)

	// A stranger gets not-found, not forbidden: existence is hidden.
	_, err = svc.Get(context.Background(), 2, ad.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	// A moderator with ads.edit.any sees it.
	perms.grants[3] = []string{shared.PermAdsEditAny}
	got, err = svc.Get(context.Background(), 3, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, ad.ID, got.ID)
}

func TestUpdateRequiresOwnershipOrOverride(t *testing.T) {
	svc, _, perms, _ := fixture()
	ad, err := svc.Create(context.Background(), 1, validDraft())
	require.NoError(t, err)

	draft := validDraft()
	draft.Title = "Vintage bicycle, serviced"

	_, err = svc.Update(context.Background(), 2, ad.ID, draft)
	require.ErrorIs(t, err, shared.ErrForbidden)

	updated, err := svc.Update(context.Background(), 1, ad.ID, draft)
	require.NoError(t, err)
	assert.Equal(t, "Vintage bicycle, serviced", updated.Title)

	perms.grants[2] = []string{shared.PermAdsEditAny}
	_, err = svc.Update(context.Background(), 2, ad.ID, draft)
	require.NoError(t, err)
}

func TestPublishNotifiesSubscribers(t *testing.T) {
	svc, _, _, publisher := fixture()
	ad, err := svc.Create(context.Background(), 1, validDraft())
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), 1, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	require.NotNil(t, published.ExpiresAt)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, ad.ID, publisher.published[0].ID)
}

func TestPublishRejectsRepublish(t *testing.T) {
	svc, _, _, _ := fixture()
	ad, err := svc.Create(context.Background(), 1, validDraft())
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), 1, ad.ID)
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), 1, ad.ID)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPublishByStrangerForbidden(t *testing.T) {
	svc, _, _, publisher := fixture()
	ad, err := svc.Create(context.Background(), 1, validDraft())
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), 2, ad.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Empty(t, publisher.published)
}

func TestDeleteRequiresDeleteAnyForStrangers(t *testing.T) {
	svc, repo, perms, _ := fixture()
	ad, err := svc.Create(context.Background(), 1, validDraft())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), 2, ad.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	// ads.edit.any is not enough for deletion.
	perms.grants[2] = []string{shared.PermAdsEditAny}
	err = svc.Delete(context.Background(), 2, ad.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	perms.grants[2] = []string{shared.PermAdsDeleteAny}
	require.NoError(t, svc.Delete(context.Background(), 2, ad.ID))
	assert.Empty(t, repo.ads)
}

func TestExpireOverdue(t *testing.T) {
	svc, repo, _, _ := fixture()
	ad, err := svc.Create(context.Background(), 1, validDraft())
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), 1, ad.ID)
	require.NoError(t, err)

	// Force the expiry into the past.
	stored := repo.ads[ad.ID]
	past := time.Now().Add(-time.Hour)
	stored.ExpiresAt = &past
	repo.ads[ad.ID] = stored

	n, err := svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, StatusExpired, repo.ads[ad.ID].Status)
}

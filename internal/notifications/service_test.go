package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/shared"
)

type mockRepository struct {
	subs   map[int64]Subscription
	emails map[int64]string
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{subs: make(map[int64]Subscription), emails: make(map[int64]string), nextID: 1}
}

func (m *mockRepository) Subscribe(ctx context.Context, userID, categoryID int64) (Subscription, error) {
	for _, sub := range m.subs {
		if sub.UserID == userID && sub.CategoryID == categoryID {
			return Subscription{}, shared.ErrDuplicate
		}
	}
	sub := Subscription{ID: m.nextID, UserID: userID, CategoryID: categoryID}
	m.subs[sub.ID] = sub
	m.nextID++
	return sub, nil
}

func (m *mockRepository) Unsubscribe(ctx context.Context, userID, categoryID int64) error {
	for id, sub := range m.subs {
		if sub.UserID == userID && sub.CategoryID == categoryID {
			delete(m.subs, id)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *mockRepository) ListByUser(ctx context.Context, userID int64) ([]Subscription, error) {
	var out []Subscription
	for _, sub := range m.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *mockRepository) RecipientsForCategory(ctx context.Context, categoryID int64) ([]Recipient, error) {
	var out []Recipient
	for _, sub := range m.subs {
		if sub.CategoryID == categoryID {
			if email, ok := m.emails[sub.UserID]; ok {
				out = append(out, Recipient{UserID: sub.UserID, Email: email})
			}
		}
	}
	return out, nil
}

func (m *mockRepository) EmailOf(ctx context.Context, userID int64) (string, error) {
	email, ok := m.emails[userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return email, nil
}

var _ RepositoryPort = (*mockRepository)(nil)

func TestSubscribeValidatesAndDeduplicates(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Subscribe(context.Background(), 1, 0)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	sub, err := svc.Subscribe(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sub.CategoryID)

	_, err = svc.Subscribe(context.Background(), 1, 5)
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUnsubscribe(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Subscribe(context.Background(), 1, 5)
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(context.Background(), 1, 5))
	err = svc.Unsubscribe(context.Background(), 1, 5)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecipientsForCategory(t *testing.T) {
	repo := newMockRepository()
	repo.emails[1] = "one@example.com"
	repo.emails[2] = "two@example.com"
	svc := NewService(repo)

	_, err := svc.Subscribe(context.Background(), 1, 5)
	require.NoError(t, err)
	_, err = svc.Subscribe(context.Background(), 2, 5)
	require.NoError(t, err)
	_, err = svc.Subscribe(context.Background(), 2, 7)
	require.NoError(t, err)

	recipients, err := svc.RecipientsForCategory(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, recipients, 2)
}

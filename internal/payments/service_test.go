package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/shared"
)

type mockRepository struct {
	payments map[int64]Payment
	nextID   int64
	inserts  int
}

func newMockRepository() *mockRepository {
	return &mockRepository{payments: make(map[int64]Payment), nextID: 1}
}

func (m *mockRepository) Insert(ctx context.Context, payerID int64, rec Record) (Payment, error) {
	m.inserts++
	for _, p := range m.payments {
		if p.PayerID == payerID && p.ClientRef == rec.ClientRef {
			return Payment{}, shared.ErrDuplicate
		}
	}
	p := Payment{
		ID:              m.nextID,
		PayerID:         payerID,
		AdvertisementID: rec.AdvertisementID,
		Kind:            rec.Kind,
		AmountCents:     rec.AmountCents,
		Currency:        rec.Currency,
		ClientRef:       rec.ClientRef,
		CreatedAt:       time.Now(),
	}
	m.payments[p.ID] = p
	m.nextID++
	return p, nil
}

func (m *mockRepository) GetByClientRef(ctx context.Context, payerID int64, clientRef string) (Payment, error) {
	for _, p := range m.payments {
		if p.PayerID == payerID && p.ClientRef == clientRef {
			return p, nil
		}
	}
	return Payment{}, shared.ErrNotFound
}

func (m *mockRepository) ListByPayer(ctx context.Context, payerID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range m.payments {
		if p.PayerID == payerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepository) ListAll(ctx context.Context, limit, offset int) ([]Payment, int, error) {
	var out []Payment
	for _, p := range m.payments {
		out = append(out, p)
	}
	return out, len(out), nil
}

var _ RepositoryPort = (*mockRepository)(nil)

func validRecord() Record {
	return Record{Kind: KindPromotion, AmountCents: 500, ClientRef: "order-1"}
}

func TestRecordValidates(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	rec := validRecord()
	rec.ClientRef = "  "
	_, _, err := svc.Record(context.Background(), 1, rec)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	rec = validRecord()
	rec.AmountCents = 0
	_, _, err = svc.Record(context.Background(), 1, rec)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	rec = validRecord()
	rec.Kind = "tip"
	_, _, err = svc.Record(context.Background(), 1, rec)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestRecordDefaultsCurrency(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	payment, replayed, err := svc.Record(context.Background(), 1, validRecord())
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, "EUR", payment.Currency)
}

func TestRecordReplayReturnsOriginal(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	first, replayed, err := svc.Record(context.Background(), 1, validRecord())
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := svc.Record(context.Background(), 1, validRecord())
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.payments, 1)
}

func TestRecordSameRefDifferentPayers(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, _, err := svc.Record(context.Background(), 1, validRecord())
	require.NoError(t, err)
	_, replayed, err := svc.Record(context.Background(), 2, validRecord())
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Len(t, repo.payments, 2)
}

package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tradepost/tradepost/internal/shared"
)

const refreshKeyPrefix = "tradepost:refresh:"

// RefreshStore keeps opaque refresh tokens in Redis with a TTL. Tokens are
// single use: redeeming one deletes it, so a stolen token races its owner.
type RefreshStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshStore constructs a RefreshStore.
func NewRefreshStore(client *redis.Client, ttl time.Duration) *RefreshStore {
	return &RefreshStore{client: client, ttl: ttl}
}

// Issue creates and stores a new refresh token for the user.
func (s *RefreshStore) Issue(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, refreshKeyPrefix+token, strconv.FormatInt(userID, 10), s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Redeem consumes a refresh token and returns the user it belongs to.
// Unknown or expired tokens map to shared.ErrTokenInvalid.
func (s *RefreshStore) Redeem(ctx context.Context, token string) (int64, error) {
	raw, err := s.client.GetDel(ctx, refreshKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, shared.ErrTokenInvalid
		}
		return 0, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, shared.ErrTokenInvalid
	}
	return userID, nil
}

// Revoke discards a refresh token. Revoking an unknown token is a no-op.
func (s *RefreshStore) Revoke(ctx context.Context, token string) error {
	err := s.client.Del(ctx, refreshKeyPrefix+token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/shared"
	_ "github.com/tradepost/tradepost/testing"
)

type stubRepo struct {
	byEmail map[string]*auth.User
	byID    map[int64]*auth.User
	nextID  int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{byEmail: make(map[string]*auth.User), byID: make(map[int64]*auth.User), nextID: 1}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, email, name, passwordHash string) (*auth.User, error) {
	if _, ok := s.byEmail[email]; ok {
		return nil, shared.ErrDuplicate
	}
	user := &auth.User{ID: s.nextID, Email: email, Name: name, PasswordHash: passwordHash, IsActive: true, CreatedAt: time.Now()}
	s.byEmail[email] = user
	s.byID[user.ID] = user
	s.nextID++
	return user, nil
}

func (s *stubRepo) add(t *testing.T, email, password string, active bool) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &auth.User{ID: s.nextID, Email: email, PasswordHash: string(hash), IsActive: active}
	s.byEmail[email] = user
	s.byID[user.ID] = user
	s.nextID++
	return user
}

func newAuthService(t *testing.T, repo auth.Repository) *auth.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := auth.NewTokenIssuer("token-secret", 15*time.Minute)
	refresh := auth.NewRefreshStore(client, 24*time.Hour)
	return auth.NewService(repo, tokens, refresh)
}

func TestRegisterNormalisesEmail(t *testing.T) {
	repo := newStubRepo()
	svc := newAuthService(t, repo)

	user, err := svc.Register(context.Background(), "  Seller@Tradepost.LOCAL ", "Seller", "correcthorse")
	require.NoError(t, err)
	assert.Equal(t, "seller@tradepost.local", user.Email)
	assert.NotEqual(t, "correcthorse", user.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubRepo()
	svc := newAuthService(t, repo)

	_, err := svc.Register(context.Background(), "seller@tradepost.local", "Seller", "correcthorse")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "seller@tradepost.local", "Other", "correcthorse")
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestLoginIssuesUsableTokenPair(t *testing.T) {
	repo := newStubRepo()
	svc := newAuthService(t, repo)
	repo.add(t, "seller@tradepost.local", "correcthorse", true)

	user, pair, err := svc.Login(context.Background(), "seller@tradepost.local", "correcthorse")
	require.NoError(t, err)
	assert.Equal(t, "seller@tradepost.local", user.Email)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.ExpiresAt.After(time.Now()))
}

func TestLoginFailuresAreUniform(t *testing.T) {
	repo := newStubRepo()
	svc := newAuthService(t, repo)
	repo.add(t, "seller@tradepost.local", "correcthorse", true)
	repo.add(t, "banned@tradepost.local", "correcthorse", false)

	cases := []struct{ email, password string }{
		{"nobody@tradepost.local", "correcthorse"},
		{"seller@tradepost.local", "wrongpass"},
		{"banned@tradepost.local", "correcthorse"},
	}
	for _, tc := range cases {
		_, _, err := svc.Login(context.Background(), tc.email, tc.password)
		require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newStubRepo()
	svc := newAuthService(t, repo)
	repo.add(t, "seller@tradepost.local", "correcthorse", true)

	_, pair, err := svc.Login(context.Background(), "seller@tradepost.local", "correcthorse")
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The redeemed token is single use.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	svc := newAuthService(t, newStubRepo())

	_, err := svc.Refresh(context.Background(), "unknown")
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	repo := newStubRepo()
	svc := newAuthService(t, repo)
	repo.add(t, "seller@tradepost.local", "correcthorse", true)

	_, pair, err := svc.Login(context.Background(), "seller@tradepost.local", "correcthorse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestMeResolvesPrincipal(t *testing.T) {
	repo := newStubRepo()
	svc := newAuthService(t, repo)
	user := repo.add(t, "seller@tradepost.local", "correcthorse", true)

	got, err := svc.Me(context.Background(), &shared.Principal{Subject: "1"})
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.Me(context.Background(), &shared.Principal{Subject: "not-a-number"})
	require.ErrorIs(t, err, shared.ErrTokenInvalid)

	_, err = svc.Me(context.Background(), nil)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

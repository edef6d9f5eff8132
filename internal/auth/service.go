package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tradepost/tradepost/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	tokens  *TokenIssuer
	refresh *RefreshStore
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenIssuer, refresh *RefreshStore) *Service {
	return &Service{repo: repo, tokens: tokens, refresh: refresh}
}

// Register creates a new account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, email, strings.TrimSpace(name), string(hash))
}

// Login validates credentials and issues a token pair. Unknown accounts,
// wrong passwords and deactivated accounts all fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*User, TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, TokenPair{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, TokenPair{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, TokenPair{}, shared.ErrInvalidCredentials
	}
	pair, err := s.issuePair(ctx, *user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token into a new token pair. The presented token
// is consumed whether or not the rotation succeeds.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, err := s.refresh.Redeem(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return TokenPair{}, shared.ErrTokenInvalid
	}
	if !user.IsActive {
		return TokenPair{}, shared.ErrTokenInvalid
	}
	return s.issuePair(ctx, *user)
}

// Logout revokes a refresh token. Access tokens simply age out.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.refresh.Revoke(ctx, refreshToken)
}

// Me loads the account behind a principal.
func (s *Service) Me(ctx context.Context, principal *shared.Principal) (*User, error) {
	if principal == nil {
		return nil, shared.ErrTokenInvalid
	}
	userID, ok := principal.UserID()
	if !ok {
		return nil, shared.ErrTokenInvalid
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *Service) issuePair(ctx context.Context, user User) (TokenPair, error) {
	access, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

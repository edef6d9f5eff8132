package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tradepost/tradepost/internal/shared"
)

const tokenIssuerName = "tradepost"

type accessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 access tokens. The subject claim
// carries the numeric user id; authorization only ever reads that claim, it
// never re-loads the user record.
type TokenIssuer struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, accessTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL, now: time.Now}
}

// Issue signs an access token for the user.
func (i *TokenIssuer) Issue(user User) (string, time.Time, error) {
	now := i.now().UTC()
	expiresAt := now.Add(i.accessTTL)
	claims := accessClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    tokenIssuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies a bearer token and returns the principal it carries. Any
// verification failure maps to shared.ErrTokenInvalid; the subject claim is
// passed through unparsed, downstream authorization treats a malformed value
// as "cannot authorize".
func (i *TokenIssuer) Parse(token string) (*shared.Principal, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(tokenIssuerName), jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil || !parsed.Valid {
		return nil, shared.ErrTokenInvalid
	}
	return &shared.Principal{Subject: claims.Subject, Email: claims.Email}, nil
}

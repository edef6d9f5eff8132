package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/shared"
	_ "github.com/tradepost/tradepost/testing"
)

func TestBearerMiddlewareAttachesPrincipal(t *testing.T) {
	issuer := auth.NewTokenIssuer("token-secret", time.Hour)
	token, _, err := issuer.Issue(auth.User{ID: 42, Email: "seller@tradepost.local"})
	require.NoError(t, err)

	var seen *shared.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	auth.BearerMiddleware(issuer, nil)(next).ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "42", seen.Subject)
}

func TestBearerMiddlewarePassesThroughWithoutHeader(t *testing.T) {
	issuer := auth.NewTokenIssuer("token-secret", time.Hour)

	var seen *shared.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	auth.BearerMiddleware(issuer, nil)(next).ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Nil(t, seen)
}

func TestBearerMiddlewareRejectsInvalidToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("token-secret", time.Hour)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next must not run for an invalid token")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	res := httptest.NewRecorder()
	auth.BearerMiddleware(issuer, nil)(next).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestBearerMiddlewareRejectsOtherSchemes(t *testing.T) {
	issuer := auth.NewTokenIssuer("token-secret", time.Hour)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next must not run for a non-bearer scheme")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	res := httptest.NewRecorder()
	auth.BearerMiddleware(issuer, nil)(next).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

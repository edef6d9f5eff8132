package authz_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/authz"
	"github.com/tradepost/tradepost/internal/shared"
	_ "github.com/tradepost/tradepost/testing"
)

type guardStore struct {
	grants map[int64][]string
	err    error
}

func (s *guardStore) UserHasAnyPermission(ctx context.Context, userID int64, names []string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, held := range s.grants[userID] {
		for _, name := range names {
			if held == name {
				return true, nil
			}
		}
	}
	return false, nil
}

func newGuard(store *guardStore) authz.Middleware {
	factory := authz.StoreFactoryFunc(func(ctx context.Context) (authz.PermissionStore, func(), error) {
		return store, func() {}, nil
	})
	return authz.Middleware{
		Provider:  authz.DefaultProvider(),
		Evaluator: authz.NewEvaluator(factory),
	}
}

func doGuarded(t *testing.T, guard func(http.Handler) http.Handler, principal *shared.Principal) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
	}
	res := httptest.NewRecorder()
	guard(next).ServeHTTP(res, req)
	return res
}

func TestRequirePermissionWithoutPrincipal(t *testing.T) {
	m := newGuard(&guardStore{})
	res := doGuarded(t, m.RequirePermission(shared.PermMessagesView), nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequirePermissionDenied(t *testing.T) {
	m := newGuard(&guardStore{grants: map[int64][]string{42: {shared.PermMessagesView}}})
	res := doGuarded(t, m.RequirePermission(shared.PermUsersView), &shared.Principal{Subject: "42"})
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequirePermissionGranted(t *testing.T) {
	m := newGuard(&guardStore{grants: map[int64][]string{42: {shared.PermMessagesView}}})
	res := doGuarded(t, m.RequirePermission(shared.PermMessagesView), &shared.Principal{Subject: "42"})
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireAnyPermissionGranted(t *testing.T) {
	m := newGuard(&guardStore{grants: map[int64][]string{42: {shared.PermMessagesView}}})
	guard := m.RequireAnyPermission(shared.PermUsersView, shared.PermMessagesView)
	res := doGuarded(t, guard, &shared.Principal{Subject: "42"})
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireAuthenticated(t *testing.T) {
	m := newGuard(&guardStore{})

	res := doGuarded(t, m.RequireAuthenticated(), &shared.Principal{Subject: "7"})
	assert.Equal(t, http.StatusOK, res.Code)

	res = doGuarded(t, m.RequireAuthenticated(), &shared.Principal{Subject: "not-a-number"})
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestStoreFaultReturnsServerError(t *testing.T) {
	m := newGuard(&guardStore{err: errors.New("timeout")})
	res := doGuarded(t, m.RequirePermission(shared.PermMessagesView), &shared.Principal{Subject: "42"})
	assert.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestGuardPolicyNamesMatchCatalog(t *testing.T) {
	// A guard built from catalog entry P resolves policy name P exactly.
	provider := authz.DefaultProvider()
	for _, perm := range shared.AllPermissions() {
		policy := provider.Resolve(perm)
		req, ok := policy.Requirement.(authz.PermissionRequirement)
		require.True(t, ok)
		assert.Equal(t, perm, req.Name)
	}
}

package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/shared"
)

// stubStore answers permission queries from an in-memory user -> permissions
// map and records usage so tests can assert the acquire/release discipline.
type stubStore struct {
	grants   map[int64][]string
	queryErr error
	queries  int
}

func (s *stubStore) UserHasAnyPermission(ctx context.Context, userID int64, names []string) (bool, error) {
	s.queries++
	if s.queryErr != nil {
		return false, s.queryErr
	}
	held := make(map[string]struct{}, len(s.grants[userID]))
	for _, p := range s.grants[userID] {
		held[p] = struct{}{}
	}
	for _, name := range names {
		if _, ok := held[name]; ok {
			return true, nil
		}
	}
	return false, nil
}

type stubFactory struct {
	store      *stubStore
	acquireErr error
	acquired   int
	released   int
}

func (f *stubFactory) Acquire(ctx context.Context) (PermissionStore, func(), error) {
	if f.acquireErr != nil {
		return nil, nil, f.acquireErr
	}
	f.acquired++
	return f.store, func() { f.released++ }, nil
}

func principal(subject string) *shared.Principal {
	return &shared.Principal{Subject: subject}
}

// Moderator holds messages.view; user 42 is a Moderator.
func moderatorFixture() (*Evaluator, *stubFactory) {
	factory := &stubFactory{store: &stubStore{grants: map[int64][]string{
		42: {shared.PermMessagesView},
	}}}
	return NewEvaluator(factory), factory
}

func TestEvaluatePermissionGranted(t *testing.T) {
	eval, factory := moderatorFixture()

	decision, err := eval.Evaluate(context.Background(), principal("42"), PermissionRequirement{Name: shared.PermMessagesView})
	require.NoError(t, err)
	assert.Equal(t, DecisionGranted, decision)
	assert.Equal(t, 1, factory.acquired)
	assert.Equal(t, 1, factory.released)
}

func TestEvaluatePermissionDeniedWithoutLink(t *testing.T) {
	eval, _ := moderatorFixture()

	decision, err := eval.Evaluate(context.Background(), principal("42"), PermissionRequirement{Name: shared.PermUsersView})
	require.NoError(t, err)
	assert.Equal(t, DecisionDenied, decision)
}

func TestEvaluateAnyOfGrantedBySecondMember(t *testing.T) {
	eval, _ := moderatorFixture()

	req := NewAnyOfRequirement([]string{shared.PermUsersView, shared.PermMessagesView})
	decision, err := eval.Evaluate(context.Background(), principal("42"), req)
	require.NoError(t, err)
	assert.Equal(t, DecisionGranted, decision)
}

func TestEvaluateAnyOfDeniedWhenNoMemberMatches(t *testing.T) {
	eval, _ := moderatorFixture()

	req := NewAnyOfRequirement([]string{shared.PermUsersView, shared.PermRolesView})
	decision, err := eval.Evaluate(context.Background(), principal("42"), req)
	require.NoError(t, err)
	assert.Equal(t, DecisionDenied, decision)
}

func TestEvaluateMalformedSubjectAlwaysDenies(t *testing.T) {
	eval, factory := moderatorFixture()

	for _, subject := range []string{"", "abc", "12.5", "-7"} {
		for _, req := range []Requirement{
			AuthenticatedRequirement{},
			PermissionRequirement{Name: shared.PermMessagesView},
			NewAnyOfRequirement([]string{shared.PermMessagesView}),
		} {
			decision, err := eval.Evaluate(context.Background(), principal(subject), req)
			require.NoError(t, err)
			assert.Equal(t, DecisionDenied, decision, "subject %q must deny", subject)
		}
	}
	// Malformed claims short-circuit before the store is touched.
	assert.Equal(t, 0, factory.acquired)
}

func TestEvaluateNilPrincipalDenies(t *testing.T) {
	eval, _ := moderatorFixture()

	decision, err := eval.Evaluate(context.Background(), nil, PermissionRequirement{Name: shared.PermMessagesView})
	require.NoError(t, err)
	assert.Equal(t, DecisionDenied, decision)
}

func TestEvaluateAuthenticatedRequirementSkipsStore(t *testing.T) {
	eval, factory := moderatorFixture()

	decision, err := eval.Evaluate(context.Background(), principal("7"), AuthenticatedRequirement{})
	require.NoError(t, err)
	assert.Equal(t, DecisionGranted, decision)
	assert.Equal(t, 0, factory.acquired)
}

func TestEvaluateEmptyAnyOfDeniesWithoutQuery(t *testing.T) {
	eval, factory := moderatorFixture()

	decision, err := eval.Evaluate(context.Background(), principal("42"), AnyOfPermissionsRequirement{})
	require.NoError(t, err)
	assert.Equal(t, DecisionDenied, decision)
	assert.Equal(t, 0, factory.acquired)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	eval, factory := moderatorFixture()
	req := PermissionRequirement{Name: shared.PermMessagesView}

	first, err := eval.Evaluate(context.Background(), principal("42"), req)
	require.NoError(t, err)
	second, err := eval.Evaluate(context.Background(), principal("42"), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// One fresh store per evaluation, each released.
	assert.Equal(t, 2, factory.acquired)
	assert.Equal(t, 2, factory.released)
}

func TestEvaluateSeesRevocationOnNextCall(t *testing.T) {
	eval, factory := moderatorFixture()
	req := PermissionRequirement{Name: shared.PermMessagesView}

	decision, err := eval.Evaluate(context.Background(), principal("42"), req)
	require.NoError(t, err)
	require.Equal(t, DecisionGranted, decision)

	// Revoke the only qualifying link.
	factory.store.grants = map[int64][]string{}

	decision, err = eval.Evaluate(context.Background(), principal("42"), req)
	require.NoError(t, err)
	assert.Equal(t, DecisionDenied, decision)
}

func TestEvaluateStoreFaultSurfacesAsError(t *testing.T) {
	boom := errors.New("connection reset")
	factory := &stubFactory{store: &stubStore{queryErr: boom}}
	eval := NewEvaluator(factory)

	decision, err := eval.Evaluate(context.Background(), principal("42"), PermissionRequirement{Name: shared.PermMessagesView})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, DecisionDenied, decision)
	// The store is released even on the fault path.
	assert.Equal(t, 1, factory.released)
}

func TestEvaluateAcquireFaultSurfacesAsError(t *testing.T) {
	boom := errors.New("pool exhausted")
	factory := &stubFactory{acquireErr: boom}
	eval := NewEvaluator(factory)

	decision, err := eval.Evaluate(context.Background(), principal("42"), PermissionRequirement{Name: shared.PermMessagesView})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, DecisionDenied, decision)
}

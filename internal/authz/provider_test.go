package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/shared"
)

func TestProviderResolvesBasePolicyFirst(t *testing.T) {
	provider := DefaultProvider()

	policy := provider.Resolve(PolicyAuthenticated)
	assert.Equal(t, PolicyAuthenticated, policy.Name)
	assert.IsType(t, AuthenticatedRequirement{}, policy.Requirement)
}

func TestProviderBasePolicyShadowsPermissionName(t *testing.T) {
	// A registered policy whose name equals a catalog permission must win over
	// the permission-derived fallback.
	provider := NewProvider(map[string]Requirement{
		shared.PermUsersView: AuthenticatedRequirement{},
	})

	policy := provider.Resolve(shared.PermUsersView)
	assert.IsType(t, AuthenticatedRequirement{}, policy.Requirement)
}

func TestProviderResolvesAnyOfPolicy(t *testing.T) {
	provider := DefaultProvider()

	policy := provider.Resolve(AnyOfPolicyName(shared.PermUsersView, shared.PermMessagesView))
	anyOf, ok := policy.Requirement.(AnyOfPermissionsRequirement)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{shared.PermUsersView, shared.PermMessagesView}, anyOf.Names)
}

func TestProviderNeverFailsForUnknownNames(t *testing.T) {
	provider := DefaultProvider()

	policy := provider.Resolve("no.such.permission")
	single, ok := policy.Requirement.(PermissionRequirement)
	require.True(t, ok)
	assert.Equal(t, "no.such.permission", single.Name)

	policy = provider.Resolve("")
	single, ok = policy.Requirement.(PermissionRequirement)
	require.True(t, ok)
	assert.Equal(t, "", single.Name)
}

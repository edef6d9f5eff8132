package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/shared"
)

func TestParsePolicyNameSinglePermission(t *testing.T) {
	for _, perm := range shared.AllPermissions() {
		req := ParsePolicyName(perm)
		single, ok := req.(PermissionRequirement)
		require.True(t, ok, "catalog name %q must parse as a single-permission requirement", perm)
		assert.Equal(t, perm, single.Name)
	}
}

func TestAnyOfPolicyNameRoundTrip(t *testing.T) {
	names := []string{shared.PermUsersView, shared.PermMessagesView, shared.PermAdsView}
	policyName := AnyOfPolicyName(names...)
	assert.Equal(t, "anyof:users.view,messages.view,ads.view", policyName)

	req := ParsePolicyName(policyName)
	anyOf, ok := req.(AnyOfPermissionsRequirement)
	require.True(t, ok)
	assert.ElementsMatch(t, names, anyOf.Names)
}

func TestNewAnyOfRequirementDeduplicates(t *testing.T) {
	req := NewAnyOfRequirement([]string{"a", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, req.Names)
}

func TestParsePolicyNameMalformedAnyOf(t *testing.T) {
	// A bare prefix still constructs a requirement; the blank name matches no
	// permission so evaluation denies everyone.
	req := ParsePolicyName(AnyOfPolicyPrefix)
	anyOf, ok := req.(AnyOfPermissionsRequirement)
	require.True(t, ok)
	assert.Equal(t, []string{""}, anyOf.Names)
}

func TestAnyOfContains(t *testing.T) {
	req := NewAnyOfRequirement([]string{shared.PermAdsView, shared.PermAdsPublish})
	assert.True(t, req.Contains(shared.PermAdsPublish))
	assert.False(t, req.Contains(shared.PermAdsDeleteAny))
	assert.False(t, req.Contains(""))
}

func TestCatalogHasNoDuplicatesOrReservedCharacters(t *testing.T) {
	seen := make(map[string]struct{})
	for _, perm := range shared.AllPermissions() {
		require.NotEmpty(t, perm)
		assert.NotContains(t, perm, ":", "catalog names must not collide with the any-of prefix")
		assert.NotContains(t, perm, ",", "catalog names must survive comma-joined policy names")
		_, dup := seen[perm]
		assert.False(t, dup, "duplicate catalog entry %q", perm)
		seen[perm] = struct{}{}
	}
}

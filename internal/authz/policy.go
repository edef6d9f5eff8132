package authz

import "strings"

// AnyOfPolicyPrefix marks a policy name that bundles several permissions of
// which the caller needs at least one. Catalog names never contain a colon,
// so the prefix cannot collide with a plain permission policy.
const AnyOfPolicyPrefix = "anyof:"

// PolicyAuthenticated is the registered base policy requiring only a valid
// principal, no specific permission.
const PolicyAuthenticated = "authenticated"

// Requirement is what must hold for a request to proceed. Exactly one of the
// concrete types below is produced per policy; raw policy strings never reach
// the evaluation layer.
type Requirement interface {
	requirement()
}

// AuthenticatedRequirement is satisfied by any principal with a usable
// numeric subject claim.
type AuthenticatedRequirement struct{}

func (AuthenticatedRequirement) requirement() {}

// PermissionRequirement demands one specific permission. Immutable after
// construction.
type PermissionRequirement struct {
	Name string
}

func (PermissionRequirement) requirement() {}

// AnyOfPermissionsRequirement demands at least one permission out of Names.
// Names is de-duplicated at construction; order carries no meaning for
// evaluation.
type AnyOfPermissionsRequirement struct {
	Names []string
}

func (AnyOfPermissionsRequirement) requirement() {}

// NewAnyOfRequirement builds an any-of requirement, dropping duplicates while
// preserving first-seen order. An empty or all-blank list yields a
// requirement no user can satisfy: malformed policy names fail closed at
// evaluation instead of failing resolution.
func NewAnyOfRequirement(names []string) AnyOfPermissionsRequirement {
	seen := make(map[string]struct{}, len(names))
	deduped := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		deduped = append(deduped, name)
	}
	return AnyOfPermissionsRequirement{Names: deduped}
}

// Contains reports whether name is part of the requirement's permission set.
func (r AnyOfPermissionsRequirement) Contains(name string) bool {
	for _, n := range r.Names {
		if n == name {
			return true
		}
	}
	return false
}

// AnyOfPolicyName renders the wire form of an any-of policy: the reserved
// prefix followed by the comma-joined permission names in the order given.
func AnyOfPolicyName(perms ...string) string {
	return AnyOfPolicyPrefix + strings.Join(perms, ",")
}

// ParsePolicyName turns a policy name into a permission-derived requirement.
// Names carrying the any-of prefix split on commas; everything else is read
// as a single permission name. Parsing never fails: a name matching no real
// permission simply denies at evaluation time.
func ParsePolicyName(name string) Requirement {
	if rest, ok := strings.CutPrefix(name, AnyOfPolicyPrefix); ok {
		return NewAnyOfRequirement(strings.Split(rest, ","))
	}
	return PermissionRequirement{Name: name}
}

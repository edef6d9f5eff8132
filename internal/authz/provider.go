package authz

// Policy pairs a resolvable name with the requirement it demands.
type Policy struct {
	Name        string
	Requirement Requirement
}

// Resolver maps a policy name to a policy, or nil when it does not recognise
// the name.
type Resolver func(name string) *Policy

// Provider resolves policy names through an ordered resolver chain; the first
// non-nil result wins. Registered base policies are consulted before the
// permission-derived fallbacks so that reserved names are never shadowed by
// a permission of the same name.
type Provider struct {
	resolvers []Resolver
}

// NewProvider builds a provider whose chain is: the given base policy
// registry, then the any-of prefix parser, then the single-permission
// fallback. Resolution never fails for a plain string.
func NewProvider(base map[string]Requirement) *Provider {
	registry := make(map[string]Requirement, len(base))
	for name, req := range base {
		registry[name] = req
	}
	return &Provider{
		resolvers: []Resolver{
			func(name string) *Policy {
				req, ok := registry[name]
				if !ok {
					return nil
				}
				return &Policy{Name: name, Requirement: req}
			},
			func(name string) *Policy {
				req := ParsePolicyName(name)
				if _, ok := req.(AnyOfPermissionsRequirement); !ok {
					return nil
				}
				return &Policy{Name: name, Requirement: req}
			},
			func(name string) *Policy {
				return &Policy{Name: name, Requirement: PermissionRequirement{Name: name}}
			},
		},
	}
}

// DefaultProvider returns a provider preloaded with the built-in base
// policies.
func DefaultProvider() *Provider {
	return NewProvider(map[string]Requirement{
		PolicyAuthenticated: AuthenticatedRequirement{},
	})
}

// Resolve maps a policy name to a policy. The terminal resolver manufactures
// a single-permission requirement for any unrecognised name, so the result is
// never nil; unknown permission names deny deterministically at evaluation.
func (p *Provider) Resolve(name string) Policy {
	for _, resolve := range p.resolvers {
		if policy := resolve(name); policy != nil {
			return *policy
		}
	}
	return Policy{Name: name, Requirement: PermissionRequirement{Name: name}}
}

package shared

import (
	"context"
	"strconv"
)

// Principal carries the claims of the authenticated caller. Subject holds the
// raw subject claim from the bearer token; authorization code parses it on
// demand and treats an unparsable value as "cannot authorize", never as an
// error.
type Principal struct {
	Subject string
	Email   string
}

// UserID parses the subject claim as a non-negative integer user id. The
// second return is false when the claim is absent or malformed.
func (p Principal) UserID() (int64, bool) {
	if p.Subject == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(p.Subject, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. Returns nil for
// unauthenticated requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

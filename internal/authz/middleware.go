package authz

import (
	"net/http"

	"log/slog"

	"github.com/tradepost/tradepost/internal/shared"
)

// DecisionRecorder counts guard outcomes for observability. decision is
// "granted", "denied" or "error".
type DecisionRecorder interface {
	RecordAuthzDecision(policy, decision string)
}

// Middleware wires policy-based authorization guards for HTTP handlers.
// Requests without a principal fail with 401 before any requirement is
// evaluated; an unsatisfied requirement fails with 403; only a store fault
// surfaces as 500.
type Middleware struct {
	Provider  *Provider
	Evaluator *Evaluator
	Logger    *slog.Logger
	Metrics   DecisionRecorder
}

func (m Middleware) record(policy, decision string) {
	if m.Metrics != nil {
		m.Metrics.RecordAuthzDecision(policy, decision)
	}
}

// Require guards a route with the named policy.
func (m Middleware) Require(policyName string) func(http.Handler) http.Handler {
	policy := m.Provider.Resolve(policyName)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			decision, err := m.Evaluator.Evaluate(r.Context(), principal, policy.Requirement)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz evaluate", slog.String("policy", policy.Name), slog.Any("error", err))
				}
				m.record(policy.Name, "error")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if decision != DecisionGranted {
				m.record(policy.Name, "denied")
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			m.record(policy.Name, "granted")
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission guards a route with a single catalog permission. The
// policy name equals the permission's canonical string.
func (m Middleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return m.Require(perm)
}

// RequireAnyPermission guards a route with an any-of policy built from the
// given catalog permissions in the order given.
func (m Middleware) RequireAnyPermission(perms ...string) func(http.Handler) http.Handler {
	return m.Require(AnyOfPolicyName(perms...))
}

// RequireAuthenticated guards a route with the registered base policy that
// demands only a valid principal.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return m.Require(PolicyAuthenticated)
}

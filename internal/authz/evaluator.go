package authz

import (
	"context"
	"fmt"

	"github.com/tradepost/tradepost/internal/shared"
)

// Decision is the outcome of evaluating a requirement. There is no explicit
// "failed" state: a requirement that is never granted denies.
type Decision int

const (
	// DecisionDenied leaves the requirement unsatisfied.
	DecisionDenied Decision = iota
	// DecisionGranted marks the requirement satisfied.
	DecisionGranted
)

// Evaluator checks requirements against the role-permission store. It is a
// process-wide singleton and therefore stateless: every evaluation acquires
// a fresh store from the factory and releases it before returning.
type Evaluator struct {
	stores StoreFactory
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(stores StoreFactory) *Evaluator {
	return &Evaluator{stores: stores}
}

// Evaluate resolves a requirement for the given principal. A nil principal or
// a missing/malformed subject claim denies without error. A store fault is
// the only error path; ordinary denial is local, silent and terminal.
func (e *Evaluator) Evaluate(ctx context.Context, principal *shared.Principal, req Requirement) (Decision, error) {
	if principal == nil {
		return DecisionDenied, nil
	}
	userID, ok := principal.UserID()
	if !ok {
		return DecisionDenied, nil
	}

	var names []string
	switch r := req.(type) {
	case AuthenticatedRequirement:
		return DecisionGranted, nil
	case PermissionRequirement:
		names = []string{r.Name}
	case AnyOfPermissionsRequirement:
		names = r.Names
	default:
		// Unknown requirement kinds deny; an unrecognised policy must never
		// grant access.
		return DecisionDenied, nil
	}
	if len(names) == 0 {
		return DecisionDenied, nil
	}

	store, release, err := e.stores.Acquire(ctx)
	if err != nil {
		return DecisionDenied, fmt.Errorf("authz: acquire store: %w", err)
	}
	defer release()

	granted, err := store.UserHasAnyPermission(ctx, userID, names)
	if err != nil {
		return DecisionDenied, fmt.Errorf("authz: permission query: %w", err)
	}
	if granted {
		return DecisionGranted, nil
	}
	return DecisionDenied, nil
}

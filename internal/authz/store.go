package authz

import "context"

// PermissionStore answers the single query authorization needs: does any
// role of the user carry a permission named in the set. Read-only and
// side-effect free.
type PermissionStore interface {
	UserHasAnyPermission(ctx context.Context, userID int64, names []string) (bool, error)
}

// StoreFactory mints a short-lived PermissionStore per evaluation. The
// evaluator is a process-wide singleton and must not hold a data-access
// session across requests, so each Evaluate call acquires a fresh store and
// releases it before returning.
type StoreFactory interface {
	Acquire(ctx context.Context) (store PermissionStore, release func(), err error)
}

// StoreFactoryFunc adapts a function to the StoreFactory interface.
type StoreFactoryFunc func(ctx context.Context) (PermissionStore, func(), error)

// Acquire implements StoreFactory.
func (f StoreFactoryFunc) Acquire(ctx context.Context) (PermissionStore, func(), error) {
	return f(ctx)
}

package rbac

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradepost/tradepost/internal/authz"
)

const hasAnyPermissionQuery = `SELECT EXISTS (
	SELECT 1
	FROM user_roles ur
	JOIN role_permissions rp ON rp.role_id = ur.role_id
	JOIN permissions p ON p.id = rp.permission_id
	WHERE ur.user_id = $1 AND p.name = ANY($2)
)`

// StoreFactory mints a short-lived authz.PermissionStore per evaluation by
// acquiring a pooled connection and releasing it when the evaluation ends.
// The authorization evaluator is a process-wide singleton; it must never hold
// a connection across requests, so the acquire/release pair is the unit of
// work here.
type StoreFactory struct {
	pool *pgxpool.Pool
}

// NewStoreFactory constructs a StoreFactory.
func NewStoreFactory(pool *pgxpool.Pool) *StoreFactory {
	return &StoreFactory{pool: pool}
}

// Acquire checks a connection out of the pool and wraps it as a permission
// store. The returned release func must be called exactly once.
func (f *StoreFactory) Acquire(ctx context.Context) (authz.PermissionStore, func(), error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &connStore{conn: conn}, conn.Release, nil
}

type connStore struct {
	conn *pgxpool.Conn
}

// UserHasAnyPermission reports whether any role of the user carries a
// permission named in names.
func (s *connStore) UserHasAnyPermission(ctx context.Context, userID int64, names []string) (bool, error) {
	var exists bool
	if err := s.conn.QueryRow(ctx, hasAnyPermissionQuery, userID, names).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var _ authz.StoreFactory = (*StoreFactory)(nil)
var _ authz.PermissionStore = (*connStore)(nil)

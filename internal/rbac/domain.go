package rbac

import "time"

// Role represents a named permission grouping assignable to users.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability. Rows are seeded from the
// catalog and never created as a side effect of authorization.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Assignment ties a permission to a role. At most one link exists per
// (role, permission) pair.
type Assignment struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}

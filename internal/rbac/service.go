package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradepost/tradepost/internal/shared"
)

// Service orchestrates role and permission management.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID together with its permissions.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, []Permission, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, nil, err
	}
	perms, err := s.repo.ListRolePermissions(ctx, id)
	if err != nil {
		return Role{}, nil, err
	}
	return role, perms, nil
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrInvalidInput)
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrInvalidInput)
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
}

// DeleteRole removes a role; memberships and permission links cascade.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

// ListPermissions returns the persisted permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// SetRolePermissions replaces the permission set of a role, attaching links
// missing from the current set and detaching links no longer wanted. Existing
// links in the new set are left untouched.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	current, err := s.repo.ListRolePermissions(ctx, roleID)
	if err != nil {
		return err
	}
	existing := make(map[int64]struct{}, len(current))
	for _, p := range current {
		existing[p.ID] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		keep[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			if err := s.repo.AttachPermissionToRole(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	for id := range existing {
		if _, ok := keep[id]; !ok {
			if err := s.repo.DetachPermissionFromRole(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// AssignRole assigns a role to the given user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.AssignRoleToUser(ctx, userID, roleID)
}

// RemoveRole removes a role from a user. The change takes effect on the
// user's very next request; authorization never caches.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.RemoveRoleFromUser(ctx, userID, roleID)
}

// UserRoles lists the roles a user belongs to.
func (s *Service) UserRoles(ctx context.Context, userID int64) ([]Role, error) {
	return s.repo.ListUserRoles(ctx, userID)
}

// UserHasAnyPermission reports whether any role of the user carries one of
// the named permissions.
func (s *Service) UserHasAnyPermission(ctx context.Context, userID int64, names []string) (bool, error) {
	if len(names) == 0 {
		return false, nil
	}
	return s.repo.UserHasAnyPermission(ctx, userID, names)
}

// SeedCatalog upserts one permission row per catalog entry. Run at startup
// and by the seeder so the store always covers the compiled catalog.
func (s *Service) SeedCatalog(ctx context.Context) error {
	for _, name := range shared.AllPermissions() {
		if _, err := s.repo.EnsurePermission(ctx, name, ""); err != nil {
			return err
		}
	}
	return nil
}

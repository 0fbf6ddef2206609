package rbac

import (
	"context"
	"errors"
	"strconv"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrAlreadyGranted signals that a role already holds the permission.
	// Callers treat it as a successful no-op, never as a failure.
	ErrAlreadyGranted = errors.New("rbac: permission already granted to role")
	// ErrAlreadyAssigned signals that a user already holds the role.
	ErrAlreadyAssigned = errors.New("rbac: role already assigned to user")
)

// RepositoryPort defines the persistence operations the service relies on.
type RepositoryPort interface {
	UpsertPermission(ctx context.Context, p Permission) (Permission, error)
	GetPermissionByName(ctx context.Context, name string) (Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	InsertGrant(ctx context.Context, roleID, permissionID, createdBy int64) error
	RolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
	UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Service owns the permission catalog and its links to roles and users.
type Service struct {
	repo   RepositoryPort
	lookup singleflight.Group
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// EnsurePermission returns the catalog entry named by the canonical
// identifier, creating it when absent. Existing entries come back exactly
// as stored: neither description nor creator is rewritten. Concurrent
// calls for one name converge on a single row.
func (s *Service) EnsurePermission(ctx context.Context, name string, actorID int64) (Permission, error) {
	module, action, err := SplitPermissionName(name)
	if err != nil {
		return Permission{}, err
	}
	return s.repo.UpsertPermission(ctx, Permission{
		Name:        name,
		Module:      module,
		Action:      action,
		Label:       permissionLabel(module, action),
		Description: permissionDescription(name),
		CreatedBy:   actorID,
	})
}

// AttachPermission links a permission to a role. A duplicate link surfaces
// as ErrAlreadyGranted so the caller can decide to ignore it; any other
// failure is fatal for this grant.
func (s *Service) AttachPermission(ctx context.Context, roleID, permissionID, actorID int64) error {
	return s.repo.InsertGrant(ctx, roleID, permissionID, actorID)
}

// ListPermissions returns the whole catalog ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// RolePermissions returns the catalog entries granted to a role.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	return s.repo.RolePermissions(ctx, roleID)
}

// AssignRole attaches a role to a user. Assigning a role the user already
// holds is a no-op.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil && !errors.Is(err, ErrAlreadyAssigned) {
		return err
	}
	return nil
}

// RemoveRole detaches a role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.RemoveRole(ctx, userID, roleID)
}

// EffectivePermissions returns deduplicated permission names across all of
// a user's roles. Concurrent lookups for the same user share one query.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	ch := s.lookup.DoChan(effectiveKey(userID), func() (any, error) {
		return s.repo.UserEffectivePermissions(ctx, userID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		names, _ := res.Val.([]string)
		return names, nil
	}
}

func effectiveKey(userID int64) string {
	return "perm:" + strconv.FormatInt(userID, 10)
}

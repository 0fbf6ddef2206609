package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/argus-iam/argus/internal/rbac"
	"github.com/argus-iam/argus/internal/shared"
)

var (
	// ErrNotFound indicates that the requested role does not exist.
	ErrNotFound = errors.New("roles: not found")
	// ErrDuplicateCode indicates a role code collision.
	ErrDuplicateCode = errors.New("roles: code already exists")
)

// LinkError reports a failure partway through the permission linking
// phase. The role and everything linked before the failure stay persisted;
// there is no compensating rollback.
type LinkError struct {
	Name   string // permission name whose resolve or link step failed
	Linked int    // identifiers fully processed before the failure
	Err    error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("roles: linking %s failed after %d of the requested permissions: %v", e.Name, e.Linked, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	Create(ctx context.Context, role Role) (Role, error)
	GetByID(ctx context.Context, id int64) (Role, error)
	GetByCode(ctx context.Context, code string) (Role, error)
	List(ctx context.Context, limit, offset int) ([]Role, int, error)
}

// PermissionCatalog is the slice of the permission service the role flow
// drives: lazily provisioning catalog entries and linking them to roles.
type PermissionCatalog interface {
	EnsurePermission(ctx context.Context, name string, actorID int64) (rbac.Permission, error)
	AttachPermission(ctx context.Context, roleID, permissionID, actorID int64) error
	RolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error)
}

// Service handles role business logic.
type Service struct {
	repo    RepositoryPort
	catalog PermissionCatalog
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, catalog PermissionCatalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// Create persists the role and then walks its requested grants, resolving
// each canonical permission name against the catalog and linking it to the
// role. The grant tree is stored on the role verbatim before any linking
// starts, so the snapshot survives a partial linking failure.
//
// Linking is strictly sequential. A permission the role already holds is
// skipped silently; any other failure stops the walk and surfaces as a
// LinkError naming the permission that failed. Work completed before the
// failure is kept.
func (s *Service) Create(ctx context.Context, req CreateRoleRequest) (Role, error) {
	creatorID, err := shared.CurrentUserID(ctx)
	if err != nil {
		return Role{}, err
	}

	snapshot, err := json.Marshal(req.Permissions)
	if err != nil {
		return Role{}, fmt.Errorf("encode permission snapshot: %w", err)
	}

	role, err := s.repo.Create(ctx, Role{
		Code:               req.Code,
		Name:               req.Name,
		PermissionSnapshot: snapshot,
		CreatedBy:          creatorID,
	})
	if err != nil {
		return Role{}, err
	}

	// The linking phase resolves the actor on its own rather than reusing
	// the value from role creation. The two phases stay decoupled in case
	// they ever run under different contexts.
	actorID, err := shared.CurrentUserID(ctx)
	if err != nil {
		return Role{}, err
	}

	for i, name := range FlattenPermissions(req.Permissions) {
		perm, err := s.catalog.EnsurePermission(ctx, name, actorID)
		if err != nil {
			return Role{}, &LinkError{Name: name, Linked: i, Err: err}
		}
		if err := s.catalog.AttachPermission(ctx, role.ID, perm.ID, actorID); err != nil {
			if errors.Is(err, rbac.ErrAlreadyGranted) {
				continue
			}
			return Role{}, &LinkError{Name: name, Linked: i, Err: err}
		}
	}

	return role, nil
}

// Get returns one role.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetByID(ctx, id)
}

// Detail returns the role together with its granted catalog entries.
func (s *Service) Detail(ctx context.Context, id int64) (Role, []rbac.Permission, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Role{}, nil, err
	}
	perms, err := s.catalog.RolePermissions(ctx, role.ID)
	if err != nil {
		return Role{}, nil, err
	}
	return role, perms, nil
}

// List returns one page of roles with pagination metadata.
func (s *Service) List(ctx context.Context, req ListRolesRequest) ([]Role, shared.Pagination, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	list, total, err := s.repo.List(ctx, limit, req.Offset)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	page := req.Offset/limit + 1
	return list, shared.NewPagination(page, limit, total), nil
}

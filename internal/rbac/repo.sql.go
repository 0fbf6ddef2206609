package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised when an insert hits a
// unique constraint.
const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for the permission
// catalog, role grants and user-role assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertPermission inserts the catalog entry unless one with the same name
// already exists, and returns the surviving row. The insert relies on
// ON CONFLICT DO NOTHING so concurrent callers racing on one name never
// fail and never produce two rows; the loser simply fetches the winner.
func (r *Repository) UpsertPermission(ctx context.Context, p Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, module, action, label, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, module, action, label, description, created_by, created_at`,
		p.Name, p.Module, p.Action, p.Label, p.Description, p.CreatedBy)

	inserted, err := scanPermission(row)
	if err == nil {
		return inserted, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, err
	}
	// Conflict: the entry exists, return it untouched.
	return r.GetPermissionByName(ctx, p.Name)
}

// GetPermissionByName fetches a catalog entry by its canonical name.
func (r *Repository) GetPermissionByName(ctx context.Context, name string) (Permission, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, module, action, label, description, created_by, created_at
		FROM permissions WHERE name = $1`, name)
	perm, err := scanPermission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, err
	}
	return perm, nil
}

// ListPermissions returns the whole catalog ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, module, action, label, description, created_by, created_at
		FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// InsertGrant links a permission to a role. A unique violation on the
// (role, permission) pair comes back as ErrAlreadyGranted so callers can
// treat the duplicate as a no-op; every other failure propagates.
func (r *Repository) InsertGrant(ctx context.Context, roleID, permissionID, createdBy int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, created_by, created_at)
		VALUES ($1, $2, $3, NOW())`, roleID, permissionID, createdBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyGranted
		}
		return err
	}
	return nil
}

// RolePermissions returns the catalog entries granted to a role.
func (r *Repository) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.module, p.action, p.label, p.description, p.created_by, p.created_at
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// AssignRole attaches a role to a user. Duplicate assignments surface as
// ErrAlreadyAssigned.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, created_at)
		VALUES ($1, $2, NOW())`, userID, roleID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyAssigned
		}
		return err
	}
	return nil
}

// RemoveRole detaches a role from a user. Returns ErrNotFound when the
// assignment did not exist.
func (r *Repository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UserEffectivePermissions returns deduplicated permission names across
// all of a user's roles.
func (r *Repository) UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1
		ORDER BY p.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPermission(row rowScanner) (Permission, error) {
	var p Permission
	var createdAt time.Time
	if err := row.Scan(&p.ID, &p.Name, &p.Module, &p.Action, &p.Label, &p.Description, &p.CreatedBy, &createdAt); err != nil {
		return Permission{}, err
	}
	p.CreatedAt = createdAt
	return p, nil
}

package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new role. A code collision comes back as
// ErrDuplicateCode.
func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (code, name, permission_snapshot, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		role.Code, role.Name, []byte(role.PermissionSnapshot), role.CreatedBy,
	).Scan(&role.ID, &role.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Role{}, ErrDuplicateCode
		}
		return Role{}, err
	}
	return role, nil
}

// GetByID fetches one role.
func (r *Repository) GetByID(ctx context.Context, id int64) (Role, error) {
	return r.scanRole(r.pool.QueryRow(ctx,
		`SELECT id, code, name, permission_snapshot, created_by, created_at
		 FROM roles WHERE id = $1`, id))
}

// GetByCode fetches one role by its business code.
func (r *Repository) GetByCode(ctx context.Context, code string) (Role, error) {
	return r.scanRole(r.pool.QueryRow(ctx,
		`SELECT id, code, name, permission_snapshot, created_by, created_at
		 FROM roles WHERE code = $1`, code))
}

// List returns one page of roles plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Role, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, permission_snapshot, created_by, created_at
		 FROM roles ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		role, err := r.scanRole(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, role)
	}
	return out, total, rows.Err()
}

func (r *Repository) scanRole(row pgx.Row) (Role, error) {
	var role Role
	var snapshot []byte
	err := row.Scan(&role.ID, &role.Code, &role.Name, &snapshot, &role.CreatedBy, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	role.PermissionSnapshot = snapshot
	return role, nil
}

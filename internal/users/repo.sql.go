package users

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

// Create inserts a new account. An email collision comes back as
// ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, user User, passwordHash string) (User, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		user.Email, user.Name, passwordHash, user.IsActive, user.CreatedBy,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}
	return user, nil
}

// GetByID fetches one user.
func (r *Repository) GetByID(ctx context.Context, id int64) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT id, email, name, is_active, COALESCE(created_by, 0), created_at, updated_at
		 FROM users WHERE id = $1`, id))
}

// GetByEmail fetches one user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT id, email, name, is_active, COALESCE(created_by, 0), created_at, updated_at
		 FROM users WHERE email = $1`, email))
}

// List returns one page of users plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, email, name, is_active, COALESCE(created_by, 0), created_at, updated_at
		 FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, user)
	}
	return out, total, rows.Err()
}

func (r *Repository) scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedBy, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

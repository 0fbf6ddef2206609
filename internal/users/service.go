package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/argus-iam/argus/internal/shared"
)

var (
	// ErrNotFound indicates that the requested user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrDuplicateEmail indicates an email collision.
	ErrDuplicateEmail = errors.New("users: email already registered")
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Create(ctx context.Context, user User, passwordHash string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, limit, offset int) ([]User, int, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create provisions an account with a bcrypt hashed password.
func (s *Service) Create(ctx context.Context, req CreateUserRequest, createdBy int64) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, User{
		Email:     req.Email,
		Name:      req.Name,
		IsActive:  true,
		CreatedBy: createdBy,
	}, string(hash))
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of users with pagination metadata.
func (s *Service) List(ctx context.Context, req ListUsersRequest) ([]User, shared.Pagination, error) {
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

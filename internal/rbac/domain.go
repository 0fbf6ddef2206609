package rbac

import "time"

// Permission is an atomic capability in the shared catalog. Entries are
// provisioned lazily the first time any role references them and are never
// deleted or rewritten by role creation.
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Module      string    `json:"module"`
	Action      string    `json:"action"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Grant ties a permission to a role.
type Grant struct {
	RoleID       int64     `json:"role_id"`
	PermissionID int64     `json:"permission_id"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    int64     `json:"user_id"`
	RoleID    int64     `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

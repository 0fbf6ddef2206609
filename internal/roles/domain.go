package roles

import (
	"encoding/json"
	"time"
)

// Role represents a persisted role. PermissionSnapshot keeps the grant
// tree exactly as it was submitted, independent of how the linking phase
// went, so audits can always see what was requested.
type Role struct {
	ID                 int64           `json:"id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	PermissionSnapshot json.RawMessage `json:"permission_snapshot,omitempty"`
	CreatedBy          int64           `json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
}

// PermissionGrant is one node of the requested grant tree: a menu label,
// its action flags, and optionally one level of sub-menus.
type PermissionGrant struct {
	MenuName string            `json:"menuName"`
	Actions  map[string]bool   `json:"actions"`
	SubMenus []PermissionGrant `json:"subMenus,omitempty"`
}

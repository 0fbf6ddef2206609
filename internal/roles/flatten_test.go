package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	_ "github.com/argus-iam/argus/testing"
)

func TestFlattenNestedTree(t *testing.T) {
	tree := []PermissionGrant{
		{
			MenuName: "Users",
			Actions:  map[string]bool{"create": true, "read": true, "edit": true, "delete": true},
			SubMenus: []PermissionGrant{
				{MenuName: "Permissions", Actions: map[string]bool{"read": true, "edit": true}},
			},
		},
	}

	got := FlattenPermissions(tree)

	want := []string{
		"users:create",
		"users:read",
		"users:edit",
		"users:delete",
		"permissions:read",
		"permissions:edit",
	}
	assert.Equal(t, want, got)
}

func TestFlattenFollowsActionOrder(t *testing.T) {
	tree := []PermissionGrant{
		{
			MenuName: "Reports",
			Actions: map[string]bool{
				"download": true,
				"approve":  true,
				"export":   true,
				"list":     true,
				"delete":   true,
				"edit":     true,
				"read":     true,
				"create":   true,
			},
		},
	}

	got := FlattenPermissions(tree)

	want := []string{
		"reports:create",
		"reports:read",
		"reports:edit",
		"reports:delete",
		"reports:list",
		"reports:export",
		"reports:approve",
		"reports:download",
	}
	assert.Equal(t, want, got)
}

func TestFlattenSkipsIncompleteNodes(t *testing.T) {
	tree := []PermissionGrant{
		{MenuName: "", Actions: map[string]bool{"read": true}},
		{MenuName: "Orphan"},
		{
			MenuName: "Users",
			Actions:  map[string]bool{"read": true},
			SubMenus: []PermissionGrant{
				{Actions: map[string]bool{"edit": true}},
				{MenuName: "Audit"},
			},
		},
	}

	assert.Equal(t, []string{"users:read"}, FlattenPermissions(tree))
}

func TestFlattenIgnoresUnknownAndFalsyActions(t *testing.T) {
	tree := []PermissionGrant{
		{
			MenuName: "Users",
			Actions:  map[string]bool{"view": true, "manage": true, "read": false, "edit": true},
		},
	}

	assert.Equal(t, []string{"users:edit"}, FlattenPermissions(tree))
}

func TestFlattenLowercasesModule(t *testing.T) {
	tree := []PermissionGrant{
		{MenuName: "AuditLogs", Actions: map[string]bool{"list": true}},
	}

	assert.Equal(t, []string{"auditlogs:list"}, FlattenPermissions(tree))
}

func TestFlattenKeepsDuplicates(t *testing.T) {
	tree := []PermissionGrant{
		{MenuName: "Users", Actions: map[string]bool{"read": true}},
		{MenuName: "users", Actions: map[string]bool{"read": true}},
	}

	assert.Equal(t, []string{"users:read", "users:read"}, FlattenPermissions(tree))
}

func TestFlattenHonoursSingleNestingLevel(t *testing.T) {
	tree := []PermissionGrant{
		{
			MenuName: "Users",
			Actions:  map[string]bool{"read": true},
			SubMenus: []PermissionGrant{
				{
					MenuName: "Permissions",
					Actions:  map[string]bool{"read": true},
					SubMenus: []PermissionGrant{
						{MenuName: "Deep", Actions: map[string]bool{"read": true}},
					},
				},
			},
		},
	}

	assert.Equal(t, []string{"users:read", "permissions:read"}, FlattenPermissions(tree))
}

func TestFlattenEmptyTree(t *testing.T) {
	assert.Empty(t, FlattenPermissions(nil))
	assert.Empty(t, FlattenPermissions([]PermissionGrant{}))
}

func TestFlattenInterleavesNodesInInputOrder(t *testing.T) {
	tree := []PermissionGrant{
		{
			MenuName: "Users",
			Actions:  map[string]bool{"read": true},
			SubMenus: []PermissionGrant{
				{MenuName: "Sessions", Actions: map[string]bool{"list": true}},
			},
		},
		{MenuName: "Roles", Actions: map[string]bool{"create": true}},
	}

	want := []string{"users:read", "sessions:list", "roles:create"}
	assert.Equal(t, want, FlattenPermissions(tree))
}

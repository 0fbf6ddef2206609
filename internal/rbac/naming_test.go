package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/argus-iam/argus/testing"
)

func TestPermissionNameLowersModule(t *testing.T) {
	assert.Equal(t, "users:create", PermissionName("Users", ActionCreate))
	assert.Equal(t, "permissions:edit", PermissionName("PERMISSIONS", ActionEdit))
	assert.Equal(t, "reports:download", PermissionName("reports", ActionDownload))
}

func TestActionKindsOrder(t *testing.T) {
	want := []string{"create", "read", "edit", "delete", "list", "export", "approve", "download"}
	assert.Equal(t, want, ActionKinds())
}

func TestKnownAction(t *testing.T) {
	for _, kind := range ActionKinds() {
		assert.True(t, KnownAction(kind), kind)
	}
	assert.False(t, KnownAction("view"))
	assert.False(t, KnownAction(""))
	assert.False(t, KnownAction("Create"))
}

func TestSplitPermissionName(t *testing.T) {
	module, action, err := SplitPermissionName("users:create")
	require.NoError(t, err)
	assert.Equal(t, "users", module)
	assert.Equal(t, "create", action)

	for _, malformed := range []string{"", "users", ":create", "users:", ":"} {
		_, _, err := SplitPermissionName(malformed)
		assert.Error(t, err, malformed)
	}
}

func TestPermissionLabel(t *testing.T) {
	assert.Equal(t, "Create Users", permissionLabel("users", "create"))
	assert.Equal(t, "Download Reports", permissionLabel("reports", "download"))
}

func TestPermissionDescription(t *testing.T) {
	assert.Equal(t, "Auto-provisioned permission users:create.", permissionDescription("users:create"))
}

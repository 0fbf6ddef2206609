package shared

// Permissions guarding the Argus admin API itself. They use the same
// canonical <module>:<action> form as the catalog entries Argus manages.
const (
	PermRolesCreate = "roles:create"
	PermRolesRead   = "roles:read"
	PermRolesList   = "roles:list"

	PermPermissionsList = "permissions:list"

	PermUsersCreate = "users:create"
	PermUsersRead   = "users:read"
	PermUsersList   = "users:list"
	PermUsersEdit   = "users:edit"

	PermAuditList   = "audit:list"
	PermAuditExport = "audit:export"
)

// CoreScopes lists all permissions guarding the Argus API.
func CoreScopes() []string {
	return []string{
		PermRolesCreate,
		PermRolesRead,
		PermRolesList,
		PermPermissionsList,
		PermUsersCreate,
		PermUsersRead,
		PermUsersList,
		PermUsersEdit,
		PermAuditList,
		PermAuditExport,
	}
}

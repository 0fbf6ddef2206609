package roles

import (
	"github.com/argus-iam/argus/internal/rbac"
)

// FlattenPermissions turns a grant tree into the flat sequence of canonical
// permission names it asks for. Each node emits one name per truthy action
// flag, walking the closed action set in its fixed order. A node's own
// names come first, then its sub-menus' names, per node in input order.
// Sub-menus land in the same flat namespace as their parents. Nodes
// without a menu name or without an actions map contribute nothing.
//
// The output is not deduplicated: two nodes naming the same menu yield the
// name twice. The catalog upsert downstream makes repeats harmless.
func FlattenPermissions(tree []PermissionGrant) []string {
	var names []string
	for _, node := range tree {
		names = appendGrantNames(names, node)
		for _, sub := range node.SubMenus {
			names = appendGrantNames(names, sub)
		}
	}
	return names
}

func appendGrantNames(names []string, node PermissionGrant) []string {
	if node.MenuName == "" || node.Actions == nil {
		return names
	}
	for _, action := range rbac.ActionKinds() {
		if node.Actions[action] {
			names = append(names, rbac.PermissionName(node.MenuName, action))
		}
	}
	return names
}

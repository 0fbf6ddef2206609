package rbac

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NameSeparator joins the module and action parts of a permission name.
const NameSeparator = ":"

// Action kinds grantable on a module, in canonical emit order.
const (
	ActionCreate   = "create"
	ActionRead     = "read"
	ActionEdit     = "edit"
	ActionDelete   = "delete"
	ActionList     = "list"
	ActionExport   = "export"
	ActionApprove  = "approve"
	ActionDownload = "download"
)

// actionKinds is the closed action set in canonical order. Flattening and
// display both iterate this slice so permission names always come out in
// the same sequence for a given module.
var actionKinds = []string{
	ActionCreate,
	ActionRead,
	ActionEdit,
	ActionDelete,
	ActionList,
	ActionExport,
	ActionApprove,
	ActionDownload,
}

var titleCaser = cases.Title(language.English)

// ActionKinds returns the closed set of grantable action kinds in
// canonical order. Callers must not mutate the returned slice.
func ActionKinds() []string {
	return actionKinds
}

// KnownAction reports whether kind belongs to the closed action set.
func KnownAction(kind string) bool {
	for _, a := range actionKinds {
		if a == kind {
			return true
		}
	}
	return false
}

// PermissionName builds the canonical <module>:<action> identifier. The
// module part is lower-cased so the same menu label always maps to the
// same catalog entry.
func PermissionName(module, action string) string {
	return strings.ToLower(module) + NameSeparator + action
}

// SplitPermissionName breaks a canonical identifier into its module and
// action parts.
func SplitPermissionName(name string) (module, action string, err error) {
	module, action, ok := strings.Cut(name, NameSeparator)
	if !ok || module == "" || action == "" {
		return "", "", fmt.Errorf("rbac: malformed permission name %q", name)
	}
	return module, action, nil
}

// permissionLabel derives the human label shown in catalog listings,
// e.g. "users:create" becomes "Create Users".
func permissionLabel(module, action string) string {
	return titleCaser.String(action) + " " + titleCaser.String(module)
}

// permissionDescription is the fixed template applied to lazily
// provisioned catalog entries.
func permissionDescription(name string) string {
	return fmt.Sprintf("Auto-provisioned permission %s.", name)
}

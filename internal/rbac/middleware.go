package rbac

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/argus-iam/argus/internal/platform/httpx"
	"github.com/argus-iam/argus/internal/shared"
)

// Middleware wires authorization checks for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAny ensures the current user holds at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			granted, ok := m.grantedPermissions(w, r)
			if !ok {
				return
			}
			if hasAnyPermission(granted, normalized) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing required permission")
		})
	}
}

// RequireAll ensures the current user holds every listed permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			granted, ok := m.grantedPermissions(w, r)
			if !ok {
				return
			}
			if hasAllPermissions(granted, normalized) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing required permission")
		})
	}
}

// grantedPermissions resolves the caller and their effective permissions,
// writing the failure response itself when either step fails.
func (m Middleware) grantedPermissions(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	userID, err := shared.CurrentUserID(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return nil, false
	}
	granted, err := m.Service.EffectivePermissions(r.Context(), userID)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac effective permissions", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "permission lookup failed")
		return nil, false
	}
	return granted, true
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}

func hasAnyPermission(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, req := range required {
		if _, ok := set[req]; ok {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, req := range required {
		if _, ok := set[req]; !ok {
			return false
		}
	}
	return true
}

package rbac

import (
	"github.com/go-chi/chi/v5"

	"github.com/argus-iam/argus/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPermissionsList))
		r.Get("/permissions", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersRead, shared.PermUsersEdit))
		r.Get("/users/{userID}/permissions", h.userPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersEdit))
		r.Post("/users/{userID}/roles/{roleID}", h.assignRole)
		r.Delete("/users/{userID}/roles/{roleID}", h.revokeRole)
	})
}

package rbac

import (
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/argus-iam/argus/internal/platform/httpx"
	"github.com/argus-iam/argus/internal/shared"
)

// Handler serves the permission catalog and user-role assignments.
type Handler struct {
	logger  *slog.Logger
	service *Service
	audit   *shared.AuditLogger
	rbac    Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger, rbac Middleware) *Handler {
	return &Handler{logger: logger, service: service, audit: audit, rbac: rbac}
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not list permissions")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) userPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	names, err := h.service.EffectivePermissions(r.Context(), userID)
	if err != nil {
		h.logger.Error("user permissions", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not resolve permissions")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "permissions": names})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, roleID, ok := h.assignmentIDs(w, r)
	if !ok {
		return
	}
	if err := h.service.AssignRole(r.Context(), userID, roleID); err != nil {
		h.logger.Error("assign role", slog.Int64("user_id", userID), slog.Int64("role_id", roleID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not assign role")
		return
	}
	h.recordAssignment(r, shared.AuditRoleAssigned, userID, roleID)
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "role_id": roleID})
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	userID, roleID, ok := h.assignmentIDs(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveRole(r.Context(), userID, roleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "role assignment not found")
			return
		}
		h.logger.Error("revoke role", slog.Int64("user_id", userID), slog.Int64("role_id", roleID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not revoke role")
		return
	}
	h.recordAssignment(r, shared.AuditRoleRevoked, userID, roleID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assignmentIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, err := pathID(r, "userID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return 0, 0, false
	}
	roleID, err := pathID(r, "roleID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid role id")
		return 0, 0, false
	}
	return userID, roleID, true
}

func (h *Handler) recordAssignment(r *http.Request, action string, userID, roleID int64) {
	if h.audit == nil {
		return
	}
	actorID, err := shared.CurrentUserID(r.Context())
	if err != nil {
		return
	}
	entry := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user_role",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"role_id": roleID},
	}
	if err := h.audit.Record(r.Context(), entry); err != nil {
		h.logger.Error("audit assignment", slog.String("action", action), slog.Any("error", err))
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}

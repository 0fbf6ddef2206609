package roles

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/argus-iam/argus/internal/platform/httpx"
	"github.com/argus-iam/argus/internal/rbac"
	"github.com/argus-iam/argus/internal/shared"
)

// Handler manages role endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	audit       *shared.AuditLogger
	idempotency *shared.IdempotencyStore
	validator   *validator.Validate
	rbac        rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger, idempotency *shared.IdempotencyStore, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		audit:       audit,
		idempotency: idempotency,
		validator:   validator.New(),
		rbac:        rbacMW,
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRolesList, shared.PermRolesRead))
		r.Get("/roles", h.listRoles)
		r.Get("/roles/{id}", h.showRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermRolesCreate))
		r.Post("/roles", h.createRole)
	})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", validationDetail(err))
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" {
		if err := h.idempotency.CheckAndInsert(r.Context(), idemKey, "roles"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Conflict", "request already processed")
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not record request key")
			return
		}
	}

	role, err := h.service.Create(r.Context(), req)
	if err != nil {
		if idemKey != "" {
			if delErr := h.idempotency.Delete(r.Context(), idemKey); delErr != nil {
				h.logger.Warn("idempotency rollback", slog.Any("error", delErr))
			}
		}
		h.respondCreateError(w, req, err)
		return
	}

	h.recordCreated(r, role, len(req.Permissions))
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) respondCreateError(w http.ResponseWriter, req CreateRoleRequest, err error) {
	var linkErr *LinkError
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case errors.Is(err, ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Conflict", "role code already exists")
	case errors.As(err, &linkErr):
		h.logger.Error("link role permissions",
			slog.String("code", req.Code),
			slog.String("permission", linkErr.Name),
			slog.Int("linked", linkErr.Linked),
			slog.Any("error", linkErr.Err),
		)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error",
			"role was created but linking "+linkErr.Name+" failed")
	default:
		h.logger.Error("create role", slog.String("code", req.Code), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not create role")
	}
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	req := ListRolesRequest{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", validationDetail(err))
		return
	}
	list, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not list roles")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": list, "pagination": pagination})
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid role id")
		return
	}
	role, perms, err := h.service.Detail(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "role not found")
			return
		}
		h.logger.Error("show role", slog.Int64("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not load role")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role, "permissions": perms})
}

func (h *Handler) recordCreated(r *http.Request, role Role, grantNodes int) {
	if h.audit == nil {
		return
	}
	entry := shared.AuditLog{
		ActorID:  role.CreatedBy,
		Action:   shared.AuditRoleCreated,
		Entity:   "role",
		EntityID: strconv.FormatInt(role.ID, 10),
		Meta:     map[string]any{"code": role.Code, "grant_nodes": grantNodes},
	}
	if err := h.audit.Record(r.Context(), entry); err != nil {
		h.logger.Warn("audit role created", slog.Any("error", err))
	}
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "invalid payload"
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

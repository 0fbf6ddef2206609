package users

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

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     *shared.AuditLogger
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		audit:     audit,
		validator: validator.New(),
		rbac:      rbacMW,
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersList, shared.PermUsersRead))
		r.Get("/users", h.listUsers)
		r.Get("/users/{id}", h.showUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersCreate))
		r.Post("/users", h.createUser)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	req := ListUsersRequest{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid paging")
		return
	}
	list, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not list users")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": list, "pagination": pagination})
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
			return
		}
		h.logger.Error("show user", slog.Int64("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not load user")
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", validationDetail(err))
		return
	}

	actorID, err := shared.CurrentUserID(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}

	user, err := h.service.Create(r.Context(), req, actorID)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			httpx.Problem(w, http.StatusConflict, "Conflict", "email already registered")
			return
		}
		h.logger.Error("create user", slog.String("email", req.Email), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not create user")
		return
	}

	h.recordCreated(r, user)
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) recordCreated(r *http.Request, user User) {
	if h.audit == nil {
		return
	}
	entry := shared.AuditLog{
		ActorID:  user.CreatedBy,
		Action:   shared.AuditUserCreated,
		Entity:   "user",
		EntityID: strconv.FormatInt(user.ID, 10),
		Meta:     map[string]any{"email": user.Email},
	}
	if err := h.audit.Record(r.Context(), entry); err != nil {
		h.logger.Warn("audit user created", slog.Any("error", err))
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

package auth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/argus-iam/argus/internal/platform/httpx"
	"github.com/argus-iam/argus/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	audit          *shared.AuditLogger
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		audit:          audit,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/auth/login", h.handleLogin)
	})
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/auth/me", h.showCurrentUser)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionView struct {
	User      userView `json:"user"`
	CSRFToken string   `json:"csrf_token,omitempty"`
}

type userView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "email and password are required")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "session unavailable")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}

	// Fresh session ID so the authenticated session never reuses the
	// anonymous one.
	h.sessionManager.Rotate(r.Context(), sess)
	sess.SetUser(strconv.FormatInt(user.ID, 10))

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Warn("issue csrf token", slog.Any("error", err))
	}

	h.recordAccess(r, user.ID, shared.AuditUserLogin)
	httpx.JSON(w, http.StatusOK, sessionView{
		User:      userView{ID: user.ID, Email: user.Email, Name: user.Name},
		CSRFToken: token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if userID, err := shared.CurrentUserID(r.Context()); err == nil {
		h.recordAccess(r, userID, shared.AuditUserLogout)
	}
	if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
		h.logger.Warn("remove session", slog.Any("error", err))
	}
	h.sessionManager.Destroy(sess)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) showCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, shared.ErrUnauthenticated) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		h.logger.Error("current user", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not load account")
		return
	}

	var token string
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if t, err := h.csrfManager.EnsureToken(r.Context(), sess); err == nil {
			token = t
		}
	}

	httpx.JSON(w, http.StatusOK, sessionView{
		User:      userView{ID: user.ID, Email: user.Email, Name: user.Name},
		CSRFToken: token,
	})
}

func (h *Handler) recordAccess(r *http.Request, userID int64, action string) {
	if h.audit == nil {
		return
	}
	entry := shared.AuditLog{
		ActorID:  userID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"ip": r.RemoteAddr},
	}
	if err := h.audit.Record(r.Context(), entry); err != nil {
		h.logger.Warn("audit access", slog.String("action", action), slog.Any("error", err))
	}
}

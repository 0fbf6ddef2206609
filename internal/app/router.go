package app

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/argus-iam/argus/internal/audit"
	"github.com/argus-iam/argus/internal/auth"
	"github.com/argus-iam/argus/internal/observability"
	"github.com/argus-iam/argus/internal/rbac"
	"github.com/argus-iam/argus/internal/roles"
	"github.com/argus-iam/argus/internal/shared"
	"github.com/argus-iam/argus/internal/users"
	"github.com/argus-iam/argus/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	RolesHandler   *roles.Handler
	UsersHandler   *users.Handler
	AccessHandler  *rbac.Handler
	AuditHandler   *audit.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Argus defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		params.AuthHandler.MountRoutes(api)
		if params.RolesHandler != nil {
			params.RolesHandler.MountRoutes(api)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(api)
		}
		if params.AccessHandler != nil {
			params.AccessHandler.MountRoutes(api)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(api)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

package audit

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/argus-iam/argus/internal/platform/httpx"
	"github.com/argus-iam/argus/internal/shared"
)

const (
	exportRateLimit  = 5
	exportRateWindow = time.Minute
)

// MountRoutes registers the audit timeline routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermAuditList))
		r.Get("/audit", h.handleTimeline)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermAuditExport))
		r.Use(httprate.Limit(
			exportRateLimit,
			exportRateWindow,
			httprate.WithKeyFuncs(exportRateKey),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit exceeded, retry later")
			}),
		))
		r.Get("/audit/export.csv", h.handleExport)
		r.Get("/audit/export.pdf", h.handleExportPDF)
	})
}

// exportRateKey buckets exports per authenticated user and falls back to the
// client IP when no session is present.
func exportRateKey(r *http.Request) (string, error) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if user := sess.User(); user != "" {
			return "user:" + user, nil
		}
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}

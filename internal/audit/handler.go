package audit

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/argus-iam/argus/internal/platform/httpx"
	"github.com/argus-iam/argus/internal/rbac"
)

const (
	defaultDateRange = 7 * 24 * time.Hour
	maxDateRange     = 90 * 24 * time.Hour
)

// Handler serves the audit timeline and its exports.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	exporter CSVExporter
	pdf      *PDFExporter
	rbac     rbac.Middleware
	now      func() time.Time
}

// NewHandler builds a new audit handler. The PDF exporter may be nil when no
// Gotenberg endpoint is configured.
func NewHandler(logger *slog.Logger, service *Service, pdf *PDFExporter, rbacMW rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		service: service,
		pdf:     pdf,
		rbac:    rbacMW,
		now:     time.Now,
	}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("load audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not load audit timeline")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": result.Rows, "paging": result.Paging})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.logger.Error("export audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not export audit timeline")
		return
	}
	data, err := h.exporter.WriteCSV(rows)
	if err != nil {
		h.logger.Error("write audit csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not render export")
		return
	}
	filename := fmt.Sprintf("audit-%s.csv", h.now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "pdf export not configured")
		return
	}
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.logger.Error("export audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not export audit timeline")
		return
	}
	data, err := h.pdf.RenderTimeline(r.Context(), filters, rows)
	if err != nil {
		h.logger.Error("render audit pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "could not render export")
		return
	}
	filename := fmt.Sprintf("audit-%s.pdf", h.now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) parseFilters(r *http.Request) (TimelineFilters, error) {
	q := r.URL.Query()
	now := h.now()
	filters := TimelineFilters{
		From: now.Add(-defaultDateRange),
		To:   now,
	}

	if v := q.Get("from"); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return TimelineFilters{}, fmt.Errorf("invalid from: %v", err)
		}
		filters.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return TimelineFilters{}, fmt.Errorf("invalid to: %v", err)
		}
		filters.To = t
	}
	if filters.To.Before(filters.From) {
		return TimelineFilters{}, errors.New("to precedes from")
	}
	if filters.To.Sub(filters.From) > maxDateRange {
		return TimelineFilters{}, errors.New("date range exceeds 90 days")
	}

	if v := q.Get("actor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return TimelineFilters{}, errors.New("invalid actor_id")
		}
		filters.ActorID = id
	}
	filters.Entity = q.Get("entity")
	filters.Action = q.Get("action")
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	return filters, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

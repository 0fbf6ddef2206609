package audit

import (
	"context"
	"fmt"
	"time"
)

// Repository provides access to the persisted audit log.
type Repository interface {
	TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error)
	TimelineAll(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error)
	TrimBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Result bundles timeline rows with paging information.
type Result struct {
	Rows   []TimelineRow
	Paging PagingInfo
}

// Service coordinates audit timeline reads and retention.
type Service struct {
	repo Repository
}

// NewService builds a new audit timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline fetches one page of audit events. It reads one row beyond the
// page size to detect whether a next page exists.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := s.repo.TimelineWindow(ctx, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}

	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export fetches the full filtered timeline without paging.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.TimelineAll(ctx, filters)
}

// Trim drops audit events older than the retention cutoff.
func (s *Service) Trim(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	if s.repo == nil {
		return 0, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.TrimBefore(ctx, now.Add(-retention))
}

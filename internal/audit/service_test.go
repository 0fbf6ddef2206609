package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/argus-iam/argus/testing"
)

type fakeTimelineRepo struct {
	rows       []TimelineRow
	lastLimit  int
	lastOffset int
	trimCutoff time.Time
	trimmed    int64
}

func (f *fakeTimelineRepo) TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	if offset >= len(f.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return f.rows[offset:end], nil
}

func (f *fakeTimelineRepo) TimelineAll(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	return f.rows, nil
}

func (f *fakeTimelineRepo) TrimBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.trimCutoff = cutoff
	return f.trimmed, nil
}

func timelineRows(n int) []TimelineRow {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := make([]TimelineRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, TimelineRow{
			At:       base.Add(-time.Duration(i) * time.Minute),
			ActorID:  7,
			Action:   "role.created",
			Entity:   "role",
			EntityID: "1",
		})
	}
	return rows
}

func TestTimelineFirstPageReportsNext(t *testing.T) {
	repo := &fakeTimelineRepo{rows: timelineRows(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)

	assert.Len(t, result.Rows, 20)
	assert.Equal(t, 21, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 1, result.Paging.Page)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Zero(t, result.Paging.PrevPage)
}

func TestTimelineLastPage(t *testing.T) {
	repo := &fakeTimelineRepo{rows: timelineRows(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 2})
	require.NoError(t, err)

	assert.Len(t, result.Rows, 5)
	assert.Equal(t, 20, repo.lastOffset)
	assert.False(t, result.Paging.HasNext)
	assert.Equal(t, 1, result.Paging.PrevPage)
	assert.Zero(t, result.Paging.NextPage)
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &fakeTimelineRepo{rows: timelineRows(60)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)

	assert.Equal(t, 51, repo.lastLimit)
	assert.Equal(t, 50, result.Paging.PageSize)
	assert.Len(t, result.Rows, 50)
}

func TestExportReturnsAllRows(t *testing.T) {
	repo := &fakeTimelineRepo{rows: timelineRows(3)}
	svc := NewService(repo)

	rows, err := svc.Export(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestTrimComputesCutoff(t *testing.T) {
	repo := &fakeTimelineRepo{trimmed: 12}
	svc := NewService(repo)

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	trimmed, err := svc.Trim(context.Background(), 30*24*time.Hour, now)
	require.NoError(t, err)

	assert.Equal(t, int64(12), trimmed)
	assert.Equal(t, now.Add(-30*24*time.Hour), repo.trimCutoff)
}

func TestWriteCSVRendersHeaderAndRows(t *testing.T) {
	rows := []TimelineRow{
		{
			At:       time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
			ActorID:  7,
			Action:   "role.created",
			Entity:   "role",
			EntityID: "4",
			Meta:     []byte(`{"code":"ops"}`),
		},
	}

	data, err := CSVExporter{}.WriteCSV(rows)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "occurred_at,actor_id,action,entity,entity_id,meta")
	assert.Contains(t, out, "2025-03-01T09:30:00Z,7,role.created,role,4,")
	assert.Contains(t, out, `"{""code"":""ops""}"`)
}

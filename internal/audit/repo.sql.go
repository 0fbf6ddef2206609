package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository on top of the audit_logs table.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// TimelineWindow returns one window of events, newest first.
func (r *PGRepository) TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	where, args := buildFilters(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT occurred_at, actor_id, action, entity, entity_id, meta FROM audit_logs%s ORDER BY occurred_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

// TimelineAll returns every filtered event, newest first.
func (r *PGRepository) TimelineAll(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	where, args := buildFilters(filters)
	query := `SELECT occurred_at, actor_id, action, entity, entity_id, meta FROM audit_logs` + where + ` ORDER BY occurred_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

// TrimBefore deletes events older than the cutoff.
func (r *PGRepository) TrimBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func buildFilters(filters TimelineFilters) (string, []any) {
	var conditions []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if !filters.From.IsZero() {
		add("occurred_at >= $%d", filters.From.UTC())
	}
	if !filters.To.IsZero() {
		add("occurred_at <= $%d", filters.To.UTC())
	}
	if filters.ActorID > 0 {
		add("actor_id = $%d", filters.ActorID)
	}
	if filters.Entity != "" {
		add("entity = $%d", filters.Entity)
	}
	if filters.Action != "" {
		add("action = $%d", filters.Action)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func collectRows(rows pgx.Rows) ([]TimelineRow, error) {
	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var meta []byte
		if err := rows.Scan(&row.At, &row.ActorID, &row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return nil, err
		}
		row.Meta = meta
		out = append(out, row)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)

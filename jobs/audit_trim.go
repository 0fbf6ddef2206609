package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/argus-iam/argus/internal/jobs"
)

const (
	// TaskAuditTrim drops audit events older than the retention window.
	TaskAuditTrim = "audit:trim"

	defaultAuditRetentionDays = 180
)

// AuditTrimmer removes audit events recorded before the retention cutoff.
type AuditTrimmer interface {
	Trim(ctx context.Context, retention time.Duration, now time.Time) (int64, error)
}

// AuditTrimPayload configures the retention window for one run.
type AuditTrimPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditTrimTask constructs an Asynq task for the audit trim.
func NewAuditTrimTask(retentionDays int) (*asynq.Task, error) {
	body, err := json.Marshal(AuditTrimPayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditTrim, body, asynq.Queue(QueueDefault)), nil
}

// AuditTrimJob enforces audit log retention.
type AuditTrimJob struct {
	Audit   AuditTrimmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAuditTrimJob initialises the trim handler.
func NewAuditTrimJob(audit AuditTrimmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditTrimJob {
	return &AuditTrimJob{
		Audit:   audit,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the trim.
func (j *AuditTrimJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Audit == nil {
		return errors.New("audit trim: handler not configured")
	}
	var payload AuditTrimPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = defaultAuditRetentionDays
	}

	tracker := j.Metrics.Track(TaskAuditTrim)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	retention := time.Duration(payload.RetentionDays) * 24 * time.Hour
	removed, err := j.Audit.Trim(ctx, retention, j.now())
	if err != nil {
		resultErr = err
		j.logger().Error("audit trim failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("trimmed audit timeline",
		slog.Int64("removed", removed),
		slog.Int("retention_days", payload.RetentionDays),
	)
	return nil
}

func (j *AuditTrimJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *AuditTrimJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

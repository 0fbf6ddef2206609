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
	// TaskSessionsPurge removes expired login sessions from the database.
	TaskSessionsPurge = "sessions:purge"
)

// SessionPurger deletes login sessions that expired before the given time.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionsPurgePayload carries scheduling metadata.
type SessionsPurgePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSessionsPurgeTask constructs an Asynq task for the session purge.
func NewSessionsPurgeTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SessionsPurgePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsPurge, body, asynq.Queue(QueueDefault)), nil
}

// SessionsPurgeJob drops expired sessions on a schedule.
type SessionsPurgeJob struct {
	Sessions SessionPurger
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewSessionsPurgeJob initialises the purge handler.
func NewSessionsPurgeJob(sessions SessionPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionsPurgeJob {
	return &SessionsPurgeJob{
		Sessions: sessions,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the purge.
func (j *SessionsPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sessions == nil {
		return errors.New("sessions purge: handler not configured")
	}
	var payload SessionsPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskSessionsPurge)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	removed, err := j.Sessions.PurgeExpiredSessions(ctx, j.now())
	if err != nil {
		resultErr = err
		j.logger().Error("session purge failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("purged expired sessions", slog.Int64("removed", removed))
	return nil
}

func (j *SessionsPurgeJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *SessionsPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

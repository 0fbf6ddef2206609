package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/argus-iam/argus/testing"
)

type fakePurger struct {
	removed int64
	err     error
	gotNow  time.Time
}

func (f *fakePurger) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	f.gotNow = now
	return f.removed, f.err
}

type fakeTrimmer struct {
	removed      int64
	err          error
	gotRetention time.Duration
	gotNow       time.Time
}

func (f *fakeTrimmer) Trim(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	f.gotRetention = retention
	f.gotNow = now
	return f.removed, f.err
}

func TestSessionsPurgeHandlesTask(t *testing.T) {
	purger := &fakePurger{removed: 3}
	job := NewSessionsPurgeJob(purger, nil, nil)
	fixed := time.Date(2026, 8, 22, 3, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return fixed }

	task, err := NewSessionsPurgeTask(fixed)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, fixed, purger.gotNow)
}

func TestSessionsPurgeSkipsMalformedPayload(t *testing.T) {
	job := NewSessionsPurgeJob(&fakePurger{}, nil, nil)

	task := asynq.NewTask(TaskSessionsPurge, []byte("{"))
	err := job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSessionsPurgePropagatesError(t *testing.T) {
	boom := errors.New("db offline")
	job := NewSessionsPurgeJob(&fakePurger{err: boom}, nil, nil)

	task, err := NewSessionsPurgeTask(time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

func TestAuditTrimUsesPayloadRetention(t *testing.T) {
	trimmer := &fakeTrimmer{removed: 9}
	job := NewAuditTrimJob(trimmer, nil, nil)
	fixed := time.Date(2026, 8, 22, 4, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return fixed }

	task, err := NewAuditTrimTask(30)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 30*24*time.Hour, trimmer.gotRetention)
	assert.Equal(t, fixed, trimmer.gotNow)
}

func TestAuditTrimDefaultsRetention(t *testing.T) {
	trimmer := &fakeTrimmer{}
	job := NewAuditTrimJob(trimmer, nil, nil)

	task, err := NewAuditTrimTask(0)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, time.Duration(defaultAuditRetentionDays)*24*time.Hour, trimmer.gotRetention)
}

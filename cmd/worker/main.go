package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/argus-iam/argus/internal/app"
	"github.com/argus-iam/argus/internal/audit"
	"github.com/argus-iam/argus/internal/auth"
	"github.com/argus-iam/argus/internal/platform/db"
	jobmetrics "github.com/argus-iam/argus/internal/jobs"
	"github.com/argus-iam/argus/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	purgeJob := jobs.NewSessionsPurgeJob(authService, logger, metrics)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)
	trimJob := jobs.NewAuditTrimJob(auditService, logger, metrics)

	purgeTask, err := jobs.NewSessionsPurgeTask(time.Now().UTC())
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}
	trimTask, err := jobs.NewAuditTrimTask(cfg.AuditRetentionDays)
	if err != nil {
		logger.Error("build trim task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSessionsPurge, Handler: purgeJob.Handle},
			{Type: jobs.TaskAuditTrim, Handler: trimJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SessionPurgeCron, Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.AuditTrimCron, Task: trimTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

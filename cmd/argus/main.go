package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/argus-iam/argus/internal/app"
	"github.com/argus-iam/argus/internal/audit"
	"github.com/argus-iam/argus/internal/auth"
	"github.com/argus-iam/argus/internal/observability"
	"github.com/argus-iam/argus/internal/platform/cache"
	"github.com/argus-iam/argus/internal/platform/db"
	"github.com/argus-iam/argus/internal/rbac"
	"github.com/argus-iam/argus/internal/roles"
	"github.com/argus-iam/argus/internal/shared"
	"github.com/argus-iam/argus/internal/users"
	"github.com/argus-iam/argus/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "argus_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	accessRepo := rbac.NewRepository(dbpool)
	accessService := rbac.NewService(accessRepo)
	accessMiddleware := rbac.Middleware{Service: accessService, Logger: logger}
	accessHandler := rbac.NewHandler(logger, accessService, auditLogger, accessMiddleware)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, auditLogger)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, accessService)
	rolesHandler := roles.NewHandler(logger, rolesService, auditLogger, idempotencyStore, accessMiddleware)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, auditLogger, accessMiddleware)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	var pdfExporter *audit.PDFExporter
	if cfg.GotenbergURL != "" {
		pdfExporter = &audit.PDFExporter{Endpoint: cfg.GotenbergURL, Client: http.DefaultClient}
	}
	auditHandler := audit.NewHandler(logger, auditService, pdfExporter, accessMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		RolesHandler:   rolesHandler,
		UsersHandler:   usersHandler,
		AccessHandler:  accessHandler,
		AuditHandler:   auditHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

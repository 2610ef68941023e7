package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/farmlink/farmlink-admin/internal/activity"
	"github.com/farmlink/farmlink-admin/internal/app"
	"github.com/farmlink/farmlink-admin/internal/platform/cache"
	"github.com/farmlink/farmlink-admin/internal/platform/db"
	"github.com/farmlink/farmlink-admin/internal/sellers"
	"github.com/farmlink/farmlink-admin/internal/shared"
	"github.com/farmlink/farmlink-admin/jobs"
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

	// Asynq dials Redis itself; this ping fails fast on a bad address.
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

	auditLogger := shared.NewAuditLogger(pool)

	sellersRepo := sellers.NewRepository(pool)
	sellersService := sellers.NewService(sellersRepo, auditLogger)

	activityRepo := activity.NewRepository(pool)
	activityService := activity.NewService(activityRepo)

	mailer := jobs.Mailer{Host: cfg.SMTPHost, Port: cfg.SMTPPort, From: cfg.SMTPFrom}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.NewSendEmailHandler(logger, mailer)},
			{Type: jobs.TaskTypeFeaturedExpiry, Handler: jobs.NewFeaturedExpiryHandler(logger, sellersService)},
			{Type: jobs.TaskTypeAuditPurge, Handler: jobs.NewAuditPurgeHandler(logger, activityService, cfg.AuditRetention)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: jobs.NewFeaturedExpiryTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * *", Task: jobs.NewAuditPurgeTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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

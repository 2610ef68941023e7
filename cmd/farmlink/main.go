package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/farmlink/farmlink-admin/internal/activity"
	"github.com/farmlink/farmlink-admin/internal/app"
	"github.com/farmlink/farmlink-admin/internal/auth"
	"github.com/farmlink/farmlink-admin/internal/buyers"
	"github.com/farmlink/farmlink-admin/internal/covers"
	"github.com/farmlink/farmlink-admin/internal/feedback"
	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/members"
	"github.com/farmlink/farmlink-admin/internal/observability"
	"github.com/farmlink/farmlink-admin/internal/orders"
	"github.com/farmlink/farmlink-admin/internal/platform/cache"
	"github.com/farmlink/farmlink-admin/internal/platform/db"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/reports"
	"github.com/farmlink/farmlink-admin/internal/sellers"
	"github.com/farmlink/farmlink-admin/internal/settings"
	"github.com/farmlink/farmlink-admin/internal/shared"
	"github.com/farmlink/farmlink-admin/internal/view"
	"github.com/farmlink/farmlink-admin/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "farmlink_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	identities := identity.NewStore()
	policyMiddleware := policy.Middleware{Identity: identities, Templates: templates, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, identities, templates, sessionManager, csrfManager)

	auditLogger := shared.NewAuditLogger(dbpool)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect job queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	membersRepo := members.NewRepository(dbpool)
	membersService := members.NewService(membersRepo, auditLogger, jobsClient)
	membersHandler := members.NewHandler(logger, membersService, identities, templates, csrfManager, policyMiddleware)

	buyersRepo := buyers.NewRepository(dbpool)
	buyersService := buyers.NewService(buyersRepo, auditLogger)
	buyersHandler := buyers.NewHandler(logger, buyersService, identities, templates, csrfManager, policyMiddleware)

	sellersRepo := sellers.NewRepository(dbpool)
	sellersService := sellers.NewService(sellersRepo, auditLogger)
	sellersHandler := sellers.NewHandler(logger, sellersService, identities, templates, csrfManager, policyMiddleware)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, auditLogger)
	ordersHandler := orders.NewHandler(logger, ordersService, identities, templates, csrfManager, policyMiddleware)

	feedbackRepo := feedback.NewRepository(dbpool)
	feedbackService := feedback.NewService(feedbackRepo, auditLogger)
	feedbackHandler := feedback.NewHandler(logger, feedbackService, identities, templates, csrfManager, policyMiddleware)

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo)
	reportsHandler := reports.NewHandler(logger, reportsService, identities, templates, csrfManager, policyMiddleware)

	activityRepo := activity.NewRepository(dbpool)
	activityService := activity.NewService(activityRepo)
	activityHandler := activity.NewHandler(logger, activityService, identities, templates, csrfManager, policyMiddleware)

	coverStorage, err := covers.NewS3Storage(ctx, covers.StorageConfig{
		Bucket:    cfg.CoverBucket,
		Region:    cfg.CoverS3Region,
		Endpoint:  cfg.CoverS3Endpoint,
		AccessKey: cfg.CoverS3AccessKey,
		SecretKey: cfg.CoverS3SecretKey,
		PathStyle: cfg.CoverS3PathStyle,
	})
	if err != nil {
		logger.Error("configure cover storage", slog.Any("error", err))
		os.Exit(1)
	}
	coversRepo := covers.NewRepository(dbpool)
	coversService := covers.NewService(coversRepo, coverStorage, auditLogger)
	coversHandler := covers.NewHandler(logger, coversService, identities, templates, csrfManager, policyMiddleware)

	settingsHandler := settings.NewHandler(logger, authService, identities, templates, csrfManager, policyMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Templates:       templates,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		Identities:      identities,
		AuthHandler:     authHandler,
		MembersHandler:  membersHandler,
		BuyersHandler:   buyersHandler,
		SellersHandler:  sellersHandler,
		OrdersHandler:   ordersHandler,
		FeedbackHandler: feedbackHandler,
		ReportsHandler:  reportsHandler,
		ActivityHandler: activityHandler,
		CoversHandler:   coversHandler,
		SettingsHandler: settingsHandler,
		JobsHandler:     jobsHandler,
		Metrics:         metrics,
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

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

	"github.com/tradepost/tradepost/internal/ads"
	"github.com/tradepost/tradepost/internal/app"
	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/authz"
	"github.com/tradepost/tradepost/internal/categories"
	"github.com/tradepost/tradepost/internal/messaging"
	"github.com/tradepost/tradepost/internal/notifications"
	"github.com/tradepost/tradepost/internal/observability"
	"github.com/tradepost/tradepost/internal/payments"
	"github.com/tradepost/tradepost/internal/platform/cache"
	"github.com/tradepost/tradepost/internal/platform/db"
	"github.com/tradepost/tradepost/internal/rbac"
	"github.com/tradepost/tradepost/internal/shared"
	"github.com/tradepost/tradepost/internal/users"
	"github.com/tradepost/tradepost/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	tokens := auth.NewTokenIssuer(cfg.TokenSecret, cfg.AccessTTL)
	refreshStore := auth.NewRefreshStore(redisClient, cfg.RefreshTTL)
	authService := auth.NewService(auth.NewRepository(pool), tokens, refreshStore)
	authHandler := auth.NewHandler(logger, authService)
	bearer := auth.BearerMiddleware(tokens, logger)

	guard := authz.Middleware{
		Provider:  authz.DefaultProvider(),
		Evaluator: authz.NewEvaluator(rbac.NewStoreFactory(pool)),
		Logger:    logger,
		Metrics:   metrics,
	}

	rbacService := rbac.NewService(rbac.NewRepository(pool))
	rbacHandler := rbac.NewHandler(logger, rbacService, guard)

	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(pool)), guard)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	dispatcher := notifications.NewDispatcher(jobsClient)

	adsService := ads.NewService(ads.NewRepository(pool), rbacService, dispatcher, auditLogger, logger)
	adsHandler := ads.NewHandler(logger, adsService, guard)

	categoriesHandler := categories.NewHandler(logger, categories.NewService(categories.NewRepository(pool)), guard)

	messagingService := messaging.NewService(messaging.NewRepository(pool), adsService, dispatcher, logger)
	messagingHandler := messaging.NewHandler(logger, messagingService, guard)

	paymentsHandler := payments.NewHandler(logger, payments.NewService(payments.NewRepository(pool), auditLogger), guard)

	notificationsService := notifications.NewService(notifications.NewRepository(pool))
	notificationsHandler := notifications.NewHandler(logger, notificationsService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		BearerMiddleware:     bearer,
		AuthHandler:          authHandler,
		RBACHandler:          rbacHandler,
		UsersHandler:         usersHandler,
		AdsHandler:           adsHandler,
		CategoriesHandler:    categoriesHandler,
		MessagingHandler:     messagingHandler,
		PaymentsHandler:      paymentsHandler,
		NotificationsHandler: notificationsHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
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

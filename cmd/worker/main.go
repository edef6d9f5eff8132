package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tradepost/tradepost/internal/ads"
	"github.com/tradepost/tradepost/internal/app"
	jobmetrics "github.com/tradepost/tradepost/internal/jobs"
	"github.com/tradepost/tradepost/internal/notifications"
	"github.com/tradepost/tradepost/internal/platform/db"
	"github.com/tradepost/tradepost/internal/shared"
	"github.com/tradepost/tradepost/jobs"
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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	notificationsService := notifications.NewService(notifications.NewRepository(pool))
	adsService := ads.NewService(ads.NewRepository(pool), nil, nil, nil, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Metrics:   jobmetrics.NewMetrics(nil),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeAdPublished, Handler: jobs.NewAdPublishedHandler(notificationsService, shared.NewIdempotencyStore(pool), client, logger)},
			{Type: jobs.TaskTypeMessageReceived, Handler: jobs.NewMessageReceivedHandler(notificationsService, client, logger)},
			{Type: jobs.TaskTypeExpireAds, Handler: jobs.NewExpireAdsHandler(adsService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 3 * * *", Task: jobs.NewExpireAdsTask()},
		},
	})
	if err != nil {
		logger.Error("worker setup", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

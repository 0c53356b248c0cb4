package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/weprixetechnologies/cly-admin/internal/analytics"
	"github.com/weprixetechnologies/cly-admin/internal/app"
	"github.com/weprixetechnologies/cly-admin/internal/catalog/products"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
	"github.com/weprixetechnologies/cly-admin/jobs"
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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	if cfg.APIServiceToken == "" {
		logger.Warn("no API service token configured, upstream calls will be rejected")
	}
	serviceSession := shared.NewServiceSession("worker", cfg.APIServiceToken)
	withServiceSession := func(h asynq.HandlerFunc) asynq.HandlerFunc {
		return func(ctx context.Context, t *asynq.Task) error {
			return h(shared.ContextWithSession(ctx, serviceSession), t)
		}
	}

	apiClient := upstream.NewClient(cfg.APIBaseURL, cfg.APITimeout, logger, nil)

	exportTracker := products.NewExportTracker(redisClient, 24*time.Hour)
	productsResource := upstream.NewResource[products.Product](apiClient, "/product/admin")
	exportJob := jobs.NewProductExportJob(productsResource, exportTracker, cfg.ExportDir, logger)

	analyticsCache := analytics.NewCache(redisClient, 10*time.Minute)
	analyticsService := analytics.NewService(analytics.NewGateway(apiClient), analyticsCache)
	warmupJob := jobs.NewAnalyticsWarmupJob(analyticsService, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskProductExport, Handler: withServiceSession(exportJob.Handle)},
			{Type: jobs.TaskAnalyticsWarmup, Handler: withServiceSession(warmupJob.Handle)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: jobs.NewAnalyticsWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/weprixetechnologies/cly-admin/internal/analytics"
	analytichttp "github.com/weprixetechnologies/cly-admin/internal/analytics/http"
	"github.com/weprixetechnologies/cly-admin/internal/app"
	"github.com/weprixetechnologies/cly-admin/internal/auth"
	"github.com/weprixetechnologies/cly-admin/internal/catalog/categories"
	"github.com/weprixetechnologies/cly-admin/internal/catalog/products"
	"github.com/weprixetechnologies/cly-admin/internal/content"
	"github.com/weprixetechnologies/cly-admin/internal/orders"
	ordersexport "github.com/weprixetechnologies/cly-admin/internal/orders/export"
	ordershttp "github.com/weprixetechnologies/cly-admin/internal/orders/http"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/sliders"
	"github.com/weprixetechnologies/cly-admin/internal/storage"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
	"github.com/weprixetechnologies/cly-admin/internal/users"
	"github.com/weprixetechnologies/cly-admin/internal/view"
	"github.com/weprixetechnologies/cly-admin/jobs"
	"github.com/weprixetechnologies/cly-admin/report"
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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "cly_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	apiClient := upstream.NewClient(cfg.APIBaseURL, cfg.APITimeout, logger, sessionManager)

	authService := auth.NewService(auth.NewGateway(apiClient))
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	if err := pdfClient.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}
	invoiceRenderer, err := ordersexport.NewInvoiceRenderer(pdfClient)
	if err != nil {
		logger.Error("init invoice renderer", slog.Any("error", err))
		os.Exit(1)
	}

	submitGuard := orders.NewSubmitGuard(redisClient, 5*time.Second)
	ordersService := orders.NewService(orders.NewGateway(apiClient), submitGuard, logger)
	ordersHandler := ordershttp.NewHandler(logger, ordersService, templates, csrfManager, invoiceRenderer)

	presigner := storage.NewPresigner(cfg.StorageEndpoint, cfg.StorageBucket, cfg.StorageAccessKey, cfg.StorageSecretKey, cfg.StorageURLTTL)
	exportTracker := products.NewExportTracker(redisClient, 24*time.Hour)
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	productsResource := upstream.NewResource[products.Product](apiClient, "/product/admin")
	productsHandler := products.NewHandler(logger, productsResource, templates, csrfManager, presigner, exportTracker, jobsClient, cfg.ExportDir)

	categoriesResource := upstream.NewResource[categories.Category](apiClient, "/category/admin")
	categoriesHandler := categories.NewHandler(logger, categoriesResource, templates, csrfManager)

	usersResource := upstream.NewResource[users.AdminUser](apiClient, "/user/admin")
	usersHandler := users.NewHandler(logger, usersResource, templates, csrfManager)

	contentHandler := content.NewHandler(logger, apiClient, templates, csrfManager)
	slidersHandler := sliders.NewHandler(logger, apiClient, templates, csrfManager, presigner)

	analyticsCache := analytics.NewCache(redisClient, 10*time.Minute)
	analyticsService := analytics.NewService(analytics.NewGateway(apiClient), analyticsCache)
	analyticsHandler := analytichttp.NewHandler(logger, analyticsService, templates, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		OrdersHandler:     ordersHandler,
		ProductsHandler:   productsHandler,
		CategoriesHandler: categoriesHandler,
		UsersHandler:      usersHandler,
		ContentHandler:    contentHandler,
		SlidersHandler:    slidersHandler,
		AnalyticsHandler:  analyticsHandler,
		JobHandler:        jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("dashboard listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

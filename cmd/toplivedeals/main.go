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

	"github.com/toplivedeals/toplivedeals/internal/app"
	"github.com/toplivedeals/toplivedeals/internal/auth"
	"github.com/toplivedeals/toplivedeals/internal/catalog"
	"github.com/toplivedeals/toplivedeals/internal/docstore"
	"github.com/toplivedeals/toplivedeals/internal/listing"
	"github.com/toplivedeals/toplivedeals/internal/observability"
	"github.com/toplivedeals/toplivedeals/internal/platform/cache"
	"github.com/toplivedeals/toplivedeals/internal/platform/db"
	"github.com/toplivedeals/toplivedeals/internal/shared"
	"github.com/toplivedeals/toplivedeals/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "toplivedeals_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()

	store := docstore.NewPG(dbpool, logger, docstore.WithPollInterval(cfg.DocstorePollInterval))
	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)

	feed := catalog.NewFeed(store, catalogCache, logger, metrics, cfg.ProductsCollection)
	if err := feed.Start(ctx); err != nil {
		logger.Error("start catalog feed", slog.Any("error", err))
		os.Exit(1)
	}
	defer feed.Close()

	catalogService := catalog.NewService(store, cfg.ProductsCollection)
	adminHandler := catalog.NewHandler(logger, catalogService)
	listingHandler := listing.NewHandler(logger, feed, metrics, cfg.RevealBatchSize, cfg.RevealDelay)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

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
		ListingHandler: listingHandler,
		AdminHandler:   adminHandler,
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

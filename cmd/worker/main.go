package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/toplivedeals/toplivedeals/internal/app"
	"github.com/toplivedeals/toplivedeals/internal/catalog"
	"github.com/toplivedeals/toplivedeals/internal/docstore"
	"github.com/toplivedeals/toplivedeals/internal/platform/cache"
	"github.com/toplivedeals/toplivedeals/internal/platform/db"
	"github.com/toplivedeals/toplivedeals/jobs"
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

	store := docstore.NewPG(pool, logger, docstore.WithPollInterval(cfg.DocstorePollInterval))
	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)

	warmCacheJob := jobs.NewWarmCacheJob(store, catalogCache, logger)
	sessionPruneJob := jobs.NewSessionPruneJob(pool, logger)

	warmCacheTask, err := jobs.NewWarmCacheTask(jobs.WarmCachePayload{Collection: cfg.ProductsCollection})
	if err != nil {
		logger.Error("build warm cache task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCatalogWarmCache, Handler: warmCacheJob.Handle},
			{Type: jobs.TaskSessionPrune, Handler: sessionPruneJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/5 * * * *", Task: warmCacheTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: jobs.NewSessionPruneTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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

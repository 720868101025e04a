// Package jobs hosts the background task queue: the Asynq worker, the
// enqueue client and the task handlers.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/toplivedeals/toplivedeals/internal/catalog"
	"github.com/toplivedeals/toplivedeals/internal/docstore"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogWarmCache refreshes the advisory snapshot cache.
	TaskCatalogWarmCache = "catalog:warm_cache"
)

// WarmCachePayload parameterizes a cache warm task.
type WarmCachePayload struct {
	Collection string `json:"collection"`
}

// NewWarmCacheTask constructs an Asynq task.
func NewWarmCacheTask(payload WarmCachePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogWarmCache, data), nil
}

// WarmCacheJob reads the full collection and replaces the cached snapshot,
// so a fresh web process can seed itself without waiting for the first
// live emission.
type WarmCacheJob struct {
	Store  docstore.Store
	Cache  *catalog.Cache
	Logger *slog.Logger
}

// NewWarmCacheJob wires dependencies for the warm-cache handler.
func NewWarmCacheJob(store docstore.Store, cache *catalog.Cache, logger *slog.Logger) *WarmCacheJob {
	return &WarmCacheJob{Store: store, Cache: cache, Logger: logger}
}

// Handle processes TaskCatalogWarmCache tasks.
func (j *WarmCacheJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil || j.Cache == nil {
		return errors.New("warm cache: handler not configured")
	}
	var payload WarmCachePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Collection == "" {
		return asynq.SkipRetry
	}

	logger := j.logger().With(slog.String("collection", payload.Collection))
	started := time.Now()

	docs, err := j.Store.List(ctx, payload.Collection)
	if err != nil {
		logger.Error("warm cache list", slog.Any("error", err))
		return err
	}
	products := catalog.NormalizeSnapshot(docs)
	if err := j.Cache.Store(ctx, products); err != nil {
		logger.Error("warm cache store", slog.Any("error", err))
		return err
	}

	logger.Info("cache warmed",
		slog.Int("products", len(products)),
		slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *WarmCacheJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogWarmCache))
	}
	return slog.Default().With(slog.String("job", TaskCatalogWarmCache))
}

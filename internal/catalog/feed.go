package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/toplivedeals/toplivedeals/internal/docstore"
	"github.com/toplivedeals/toplivedeals/internal/observability"
)

// Feed maintains the live, deduplicated catalog snapshot. Each upstream
// emission replaces the snapshot wholesale; subscription errors keep the
// previous snapshot on display.
type Feed struct {
	store      docstore.Store
	cache      *Cache
	logger     *slog.Logger
	metrics    *observability.Metrics
	collection string

	mu       sync.RWMutex
	products []Product
	loading  bool
	lastErr  string
	version  uint64

	unsubscribe func()
	closeOnce   sync.Once
}

// NewFeed constructs a Feed over the given collection. cache and metrics
// may be nil.
func NewFeed(store docstore.Store, cache *Cache, logger *slog.Logger, metrics *observability.Metrics, collection string) *Feed {
	return &Feed{
		store:      store,
		cache:      cache,
		logger:     logger,
		metrics:    metrics,
		collection: collection,
		loading:    true,
	}
}

// Start seeds from the advisory cache when fresh and opens the live
// subscription. The first live emission supersedes any seed.
func (f *Feed) Start(ctx context.Context) error {
	if f.cache != nil {
		if products, ok := f.cache.Load(ctx); ok {
			f.mu.Lock()
			f.products = products
			f.loading = false
			f.version++
			f.mu.Unlock()
			f.logger.Info("catalog seeded from cache", slog.Int("products", len(products)))
		}
	}

	unsubscribe, err := f.store.Subscribe(ctx, f.collection, f.applySnapshot, f.handleError)
	if err != nil {
		return fmt.Errorf("catalog: subscribe %s: %w", f.collection, err)
	}
	f.unsubscribe = unsubscribe
	return nil
}

// Snapshot returns a copy of the current product snapshot.
func (f *Feed) Snapshot() []Product {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Product, len(f.products))
	copy(out, f.products)
	return out
}

// Loading reports whether no emission (or cache seed) has arrived yet.
func (f *Feed) Loading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loading
}

// Err returns the last subscription error message, empty when healthy.
func (f *Feed) Err() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastErr
}

// Version increments whenever the snapshot is replaced. Listing state uses
// it to detect that a reset is due.
func (f *Feed) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

// Close releases the subscription. Safe to call more than once.
func (f *Feed) Close() {
	f.closeOnce.Do(func() {
		if f.unsubscribe != nil {
			f.unsubscribe()
		}
	})
}

func (f *Feed) applySnapshot(docs []docstore.Document) {
	products := NormalizeSnapshot(docs)

	f.mu.Lock()
	f.products = products
	f.loading = false
	f.lastErr = ""
	f.version++
	f.mu.Unlock()

	f.metrics.CatalogEmission(len(products))
	f.logger.Debug("catalog snapshot applied", slog.Int("products", len(products)))

	if f.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := f.cache.Store(ctx, products); err != nil {
			f.logger.Warn("catalog cache store", slog.Any("error", err))
		}
	}
}

// handleError keeps the stale snapshot on display. An error banner plus old
// deals beats an empty page; the next healthy emission clears both.
func (f *Feed) handleError(err error) {
	f.mu.Lock()
	f.loading = false
	f.lastErr = err.Error()
	f.mu.Unlock()
	f.logger.Warn("catalog subscription", slog.Any("error", err))
}

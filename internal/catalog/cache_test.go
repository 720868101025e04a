package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, ttl)
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t, 5*time.Minute)

	products := []Product{
		{ID: "a", Title: "Deal A", Discount: 40, IsActive: true},
		{ID: "b", Title: "Deal B", IsTopDeal: true, IsActive: true},
	}
	require.NoError(t, cache.Store(ctx, products))

	got, ok := cache.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, products, got)
}

func TestCacheMissWhenEmpty(t *testing.T) {
	cache := newTestCache(t, 5*time.Minute)

	_, ok := cache.Load(context.Background())
	assert.False(t, ok)
}

func TestCacheExpiresAfterFreshnessWindow(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t, 5*time.Minute)

	base := time.Now()
	now := base
	cache.SetClock(func() time.Time { return now })

	require.NoError(t, cache.Store(ctx, []Product{{ID: "a"}}))

	now = base.Add(4 * time.Minute)
	_, ok := cache.Load(ctx)
	assert.True(t, ok)

	now = base.Add(6 * time.Minute)
	_, ok = cache.Load(ctx)
	assert.False(t, ok)
}

func TestCacheMissOnCorruptPayload(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, 5*time.Minute)

	require.NoError(t, cache.Store(ctx, []Product{{ID: "a"}}))
	require.NoError(t, mr.Set("cachedProducts", "{not json"))

	_, ok := cache.Load(ctx)
	assert.False(t, ok)
}

func TestCacheWarmFillsOnMiss(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t, 5*time.Minute)

	fills := 0
	fill := func(context.Context) ([]Product, error) {
		fills++
		return []Product{{ID: "fresh"}}, nil
	}

	got, err := cache.Warm(ctx, fill)
	require.NoError(t, err)
	assert.Equal(t, 1, fills)
	require.Len(t, got, 1)

	// Second warm hits the freshly stored copy.
	got, err = cache.Warm(ctx, fill)
	require.NoError(t, err)
	assert.Equal(t, 1, fills)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].ID)
}

func TestCacheWarmCollapsesConcurrentFills(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t, 5*time.Minute)

	var fills atomic.Int32
	release := make(chan struct{})
	fill := func(context.Context) ([]Product, error) {
		fills.Add(1)
		<-release
		return []Product{{ID: "slow"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.Warm(ctx, fill)
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), fills.Load())
}

func TestCacheWarmPropagatesFillError(t *testing.T) {
	cache := newTestCache(t, 5*time.Minute)

	wantErr := errors.New("store down")
	_, err := cache.Warm(context.Background(), func(context.Context) ([]Product, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

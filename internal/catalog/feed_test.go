package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toplivedeals/toplivedeals/internal/docstore"
)

// mockStore records calls and hands the subscription callbacks back to the
// test so emissions can be driven by hand.
type mockStore struct {
	docs      []docstore.Document
	listErr   error
	createErr error
	updateErr error
	deleteErr error

	createdData map[string]any
	updatedID   string
	updatedData map[string]any
	deletedID   string

	emit         docstore.SnapshotFunc
	fail         docstore.ErrorFunc
	subscribeErr error
	unsubscribed int
}

func (m *mockStore) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	return m.docs, m.listErr
}

func (m *mockStore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.createdData = data
	return "generated-id", nil
}

func (m *mockStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedID = id
	m.updatedData = patch
	return nil
}

func (m *mockStore) Delete(ctx context.Context, collection, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = id
	return nil
}

func (m *mockStore) Subscribe(ctx context.Context, collection string, onSnapshot docstore.SnapshotFunc, onError docstore.ErrorFunc) (func(), error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}
	m.emit = onSnapshot
	m.fail = onError
	return func() { m.unsubscribed++ }, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFeedAppliesEmissions(t *testing.T) {
	store := &mockStore{}
	feed := NewFeed(store, nil, discardLogger(), nil, "toplivedeals")
	require.NoError(t, feed.Start(context.Background()))
	defer feed.Close()

	assert.True(t, feed.Loading())
	assert.Equal(t, uint64(0), feed.Version())

	store.emit([]docstore.Document{
		{ID: "a", Data: map[string]any{"title": "Deal A"}},
		{ID: "b", Data: map[string]any{"title": "Deal B"}},
	})

	assert.False(t, feed.Loading())
	assert.Empty(t, feed.Err())
	assert.Equal(t, uint64(1), feed.Version())

	snapshot := feed.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "Deal A", snapshot[0].Title)
}

func TestFeedDeduplicatesEmission(t *testing.T) {
	store := &mockStore{}
	feed := NewFeed(store, nil, discardLogger(), nil, "toplivedeals")
	require.NoError(t, feed.Start(context.Background()))
	defer feed.Close()

	store.emit([]docstore.Document{
		{ID: "a", Data: map[string]any{"title": "First"}},
		{ID: "a", Data: map[string]any{"title": "Second"}},
	})

	snapshot := feed.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Second", snapshot[0].Title)
}

func TestFeedRetainsSnapshotOnError(t *testing.T) {
	store := &mockStore{}
	feed := NewFeed(store, nil, discardLogger(), nil, "toplivedeals")
	require.NoError(t, feed.Start(context.Background()))
	defer feed.Close()

	store.emit([]docstore.Document{{ID: "a", Data: map[string]any{"title": "Deal A"}}})
	store.fail(errors.New("connection reset"))

	assert.Equal(t, "connection reset", feed.Err())
	assert.Len(t, feed.Snapshot(), 1)

	// A healthy emission clears the error again.
	store.emit([]docstore.Document{{ID: "b", Data: map[string]any{"title": "Deal B"}}})
	assert.Empty(t, feed.Err())
}

func TestFeedErrorBeforeFirstEmissionEndsLoading(t *testing.T) {
	store := &mockStore{}
	feed := NewFeed(store, nil, discardLogger(), nil, "toplivedeals")
	require.NoError(t, feed.Start(context.Background()))
	defer feed.Close()

	store.fail(errors.New("listen failed"))

	assert.False(t, feed.Loading())
	assert.Empty(t, feed.Snapshot())
	assert.Equal(t, "listen failed", feed.Err())
}

func TestFeedSubscribeFailure(t *testing.T) {
	store := &mockStore{subscribeErr: errors.New("no connection")}
	feed := NewFeed(store, nil, discardLogger(), nil, "toplivedeals")

	err := feed.Start(context.Background())
	assert.ErrorContains(t, err, "no connection")
}

func TestFeedCloseIsIdempotent(t *testing.T) {
	store := &mockStore{}
	feed := NewFeed(store, nil, discardLogger(), nil, "toplivedeals")
	require.NoError(t, feed.Start(context.Background()))

	feed.Close()
	feed.Close()
	assert.Equal(t, 1, store.unsubscribed)
}

func TestFeedSeedsFromCacheThenSupersedes(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t, 5*time.Minute)
	require.NoError(t, cache.Store(ctx, []Product{{ID: "cached", Title: "Cached Deal", IsActive: true}}))

	store := &mockStore{}
	feed := NewFeed(store, cache, discardLogger(), nil, "toplivedeals")
	require.NoError(t, feed.Start(ctx))
	defer feed.Close()

	// Seed arrives before any live emission.
	assert.False(t, feed.Loading())
	snapshot := feed.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "cached", snapshot[0].ID)
	seedVersion := feed.Version()

	store.emit([]docstore.Document{{ID: "live", Data: map[string]any{"title": "Live Deal"}}})

	snapshot = feed.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "live", snapshot[0].ID)
	assert.Greater(t, feed.Version(), seedVersion)
}

func TestFeedStoresEmissionInCache(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t, 5*time.Minute)

	store := &mockStore{}
	feed := NewFeed(store, cache, discardLogger(), nil, "toplivedeals")
	require.NoError(t, feed.Start(ctx))
	defer feed.Close()

	store.emit([]docstore.Document{{ID: "a", Data: map[string]any{"title": "Deal A"}}})

	cached, ok := cache.Load(ctx)
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, "a", cached[0].ID)
}

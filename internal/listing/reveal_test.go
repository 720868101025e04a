package listing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toplivedeals/toplivedeals/internal/catalog"
)

func dealList(n int) []catalog.Product {
	products := make([]catalog.Product, n)
	for i := range products {
		products[i] = deal(fmt.Sprintf("p%02d", i), nil)
	}
	return products
}

func TestRevealBatches(t *testing.T) {
	r := NewReveal(10, 0)
	r.Reset(dealList(25))

	assert.Len(t, r.Visible(), 10)
	assert.Equal(t, 25, r.Total())
	assert.True(t, r.HasMore())

	assert.Equal(t, 10, r.LoadMore())
	assert.Len(t, r.Visible(), 20)
	assert.True(t, r.HasMore())

	assert.Equal(t, 5, r.LoadMore())
	assert.Len(t, r.Visible(), 25)
	assert.False(t, r.HasMore())

	// Exhausted controller is a no-op.
	assert.Equal(t, 0, r.LoadMore())
	assert.Len(t, r.Visible(), 25)
}

func TestRevealVisibleIsPrefix(t *testing.T) {
	filtered := dealList(15)
	r := NewReveal(10, 0)
	r.Reset(filtered)
	r.LoadMore()

	visible := r.Visible()
	require.Len(t, visible, 15)
	for i, p := range visible {
		assert.Equal(t, filtered[i].ID, p.ID)
	}
}

func TestRevealShortList(t *testing.T) {
	r := NewReveal(10, 0)
	r.Reset(dealList(4))

	assert.Len(t, r.Visible(), 4)
	assert.False(t, r.HasMore())
	assert.Equal(t, 0, r.LoadMore())
}

func TestRevealEmptyList(t *testing.T) {
	r := NewReveal(10, 0)
	r.Reset(nil)

	assert.Empty(t, r.Visible())
	assert.Equal(t, 0, r.Total())
	assert.False(t, r.HasMore())
	assert.Equal(t, 0, r.LoadMore())
}

func TestRevealSingleFlight(t *testing.T) {
	r := NewReveal(10, 200*time.Millisecond)
	r.Reset(dealList(30))

	done := make(chan int, 1)
	go func() { done <- r.LoadMore() }()

	require.Eventually(t, r.Fetching, time.Second, time.Millisecond)

	// Calls while a load is in flight are rejected outright.
	assert.Equal(t, 0, r.LoadMore())
	assert.Equal(t, 0, r.LoadMore())

	assert.Equal(t, 10, <-done)
	assert.Len(t, r.Visible(), 20)
}

func TestRevealResetDiscardsInFlightBatch(t *testing.T) {
	r := NewReveal(10, 100*time.Millisecond)
	r.Reset(dealList(30))

	done := make(chan int, 1)
	go func() { done <- r.LoadMore() }()

	// Let the load start, then change the filter underneath it.
	time.Sleep(20 * time.Millisecond)
	replacement := dealList(5)
	r.Reset(replacement)

	assert.Equal(t, 0, <-done)
	assert.Len(t, r.Visible(), 5)
	assert.False(t, r.HasMore())
	assert.False(t, r.Fetching())
}

func TestRevealDefaultsBatchSize(t *testing.T) {
	r := NewReveal(0, 0)
	r.Reset(dealList(12))
	assert.Len(t, r.Visible(), DefaultBatchSize)
}

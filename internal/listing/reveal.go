package listing

import (
	"sync"
	"time"

	"github.com/toplivedeals/toplivedeals/internal/catalog"
)

// DefaultBatchSize is the number of products revealed per batch.
const DefaultBatchSize = 10

// Reveal manages progressive disclosure of a filtered deal list in fixed
// batches. The visible list is always a prefix of the filtered list; a
// Reset invalidates any batch load still in flight.
type Reveal struct {
	mu        sync.Mutex
	batchSize int
	delay     time.Duration
	filtered  []catalog.Product
	cursor    int
	hasMore   bool
	fetching  bool
	epoch     uint64
}

// NewReveal constructs a controller. delay paces batch loads for UX and
// should be zero in tests.
func NewReveal(batchSize int, delay time.Duration) *Reveal {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Reveal{batchSize: batchSize, delay: delay}
}

// Reset replaces the filtered list and rewinds the visible prefix to one
// batch. A batch load in flight resolves against the old epoch and is
// discarded.
func (r *Reveal) Reset(filtered []catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filtered = filtered
	r.cursor = r.batchSize
	if r.cursor > len(filtered) {
		r.cursor = len(filtered)
	}
	r.hasMore = len(filtered) > r.batchSize
	r.fetching = false
	r.epoch++
}

// Visible returns the currently revealed prefix.
func (r *Reveal) Visible() []catalog.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Product, r.cursor)
	copy(out, r.filtered[:r.cursor])
	return out
}

// Total returns the size of the filtered list backing this controller.
func (r *Reveal) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filtered)
}

// HasMore reports whether filtered items remain beyond the visible prefix.
func (r *Reveal) HasMore() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasMore
}

// Fetching reports whether a batch load is in flight.
func (r *Reveal) Fetching() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetching
}

// LoadMore reveals the next batch and returns how many products it added.
// It is single-flight: a call while another load is in flight, or after
// exhaustion, is a no-op returning zero. The configured delay elapses
// before the batch resolves; a Reset during that window discards it.
func (r *Reveal) LoadMore() int {
	r.mu.Lock()
	if r.fetching || !r.hasMore {
		r.mu.Unlock()
		return 0
	}
	r.fetching = true
	epoch := r.epoch
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch {
		// The filter changed while this batch was loading.
		return 0
	}
	r.fetching = false

	next := r.cursor + r.batchSize
	if next > len(r.filtered) {
		next = len(r.filtered)
	}
	added := next - r.cursor
	if added == 0 {
		r.hasMore = false
		return 0
	}
	r.cursor = next
	r.hasMore = len(r.filtered) > r.cursor
	return added
}

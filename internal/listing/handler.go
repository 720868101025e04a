package listing

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/toplivedeals/toplivedeals/internal/catalog"
	"github.com/toplivedeals/toplivedeals/internal/observability"
	"github.com/toplivedeals/toplivedeals/internal/platform/httpx"
	"github.com/toplivedeals/toplivedeals/internal/shared"
)

const (
	maxSessionViews = 1024
	sessionViewTTL  = 30 * time.Minute
)

// Handler serves the public listing. Each session owns one reveal
// controller; facet or snapshot changes reset it.
type Handler struct {
	logger    *slog.Logger
	feed      *catalog.Feed
	metrics   *observability.Metrics
	batchSize int
	delay     time.Duration

	mu    sync.Mutex
	views map[string]*sessionView
}

type sessionView struct {
	mu          sync.Mutex
	view        ViewState
	reveal      *Reveal
	feedVersion uint64
	lastSeen    time.Time
}

// NewHandler constructs a Handler instance. metrics may be nil.
func NewHandler(logger *slog.Logger, feed *catalog.Feed, metrics *observability.Metrics, batchSize int, delay time.Duration) *Handler {
	return &Handler{
		logger:    logger,
		feed:      feed,
		metrics:   metrics,
		batchSize: batchSize,
		delay:     delay,
		views:     make(map[string]*sessionView),
	}
}

// MountRoutes registers public listing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/deals", h.getDeals)
	r.Post("/deals/more", h.loadMore)
	r.Get("/facets", h.getFacets)
}

func (h *Handler) getDeals(w http.ResponseWriter, r *http.Request) {
	view := ParseViewState(r.URL.Query())
	sv := h.sessionView(sessionKey(r))

	sv.mu.Lock()
	if version := h.feed.Version(); sv.view != view || sv.feedVersion != version {
		sv.reveal.Reset(FilterSort(h.feed.Snapshot(), view))
		sv.view = view
		sv.feedVersion = version
	}
	sv.mu.Unlock()

	h.respond(w, view, sv.reveal)
}

func (h *Handler) loadMore(w http.ResponseWriter, r *http.Request) {
	sv := h.sessionView(sessionKey(r))

	// A snapshot change invalidates the current reveal; the reset takes
	// precedence over loading another batch.
	sv.mu.Lock()
	view := sv.view
	if version := h.feed.Version(); sv.feedVersion != version {
		sv.reveal.Reset(FilterSort(h.feed.Snapshot(), view))
		sv.feedVersion = version
		sv.mu.Unlock()
		h.respond(w, view, sv.reveal)
		return
	}
	sv.mu.Unlock()

	if !h.feed.Loading() {
		if added := sv.reveal.LoadMore(); added > 0 {
			h.metrics.RevealBatch()
		}
	}
	h.respond(w, view, sv.reveal)
}

func (h *Handler) getFacets(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"tabs":           []Tab{TabLiveDeals, TabTopDeals, TabCoupons},
		"categories":     Categories,
		"platforms":      Platforms,
		"discountFloors": DiscountFloors,
	})
}

func (h *Handler) respond(w http.ResponseWriter, view ViewState, reveal *Reveal) {
	visible := reveal.Visible()
	payload := map[string]any{
		"loading":   h.feed.Loading(),
		"activeTab": view.ActiveTab,
		"products":  visible,
		"visible":   len(visible),
		"total":     reveal.Total(),
		"hasMore":   reveal.HasMore(),
	}
	if msg := h.feed.Err(); msg != "" {
		payload["error"] = msg
	}
	if len(visible) == 0 && !h.feed.Loading() {
		payload["message"] = "No products found matching your criteria."
	}
	httpx.JSON(w, http.StatusOK, payload)
}

// sessionView returns the state owned by this session, creating it on
// first use and pruning idle entries when the registry grows too large.
func (h *Handler) sessionView(key string) *sessionView {
	h.mu.Lock()
	defer h.mu.Unlock()

	sv, ok := h.views[key]
	if !ok {
		if len(h.views) >= maxSessionViews {
			h.pruneLocked()
		}
		sv = &sessionView{
			view:   DefaultViewState(),
			reveal: NewReveal(h.batchSize, h.delay),
		}
		sv.reveal.Reset(nil)
		h.views[key] = sv
	}
	sv.lastSeen = time.Now()
	return sv
}

func (h *Handler) pruneLocked() {
	cutoff := time.Now().Add(-sessionViewTTL)
	for key, sv := range h.views {
		if sv.lastSeen.Before(cutoff) {
			delete(h.views, key)
		}
	}
}

func sessionKey(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil && sess.ID != "" {
		return sess.ID
	}
	return r.RemoteAddr
}

package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the storefront.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	emissionsTotal  prometheus.Counter
	snapshotSize    prometheus.Gauge
	revealBatches   prometheus.Counter
}

// NewMetrics initializes the registry and base instruments.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "toplivedeals_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "toplivedeals_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	emissions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toplivedeals_catalog_emissions_total",
		Help: "Catalog snapshot emissions applied by the live feed.",
	})
	snapshot := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "toplivedeals_catalog_snapshot_size",
		Help: "Product count in the current catalog snapshot.",
	})
	reveals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toplivedeals_reveal_batches_total",
		Help: "Reveal batches served to listing clients.",
	})
	registry.MustRegister(requests, duration, emissions, snapshot, reveals)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		emissionsTotal:  emissions,
		snapshotSize:    snapshot,
		revealBatches:   reveals,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// CatalogEmission records one applied snapshot and its product count.
func (m *Metrics) CatalogEmission(size int) {
	if m == nil {
		return
	}
	m.emissionsTotal.Inc()
	m.snapshotSize.Set(float64(size))
}

// RevealBatch records one served reveal batch.
func (m *Metrics) RevealBatch() {
	if m == nil {
		return
	}
	m.revealBatches.Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

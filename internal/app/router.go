package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/toplivedeals/toplivedeals/internal/auth"
	"github.com/toplivedeals/toplivedeals/internal/catalog"
	"github.com/toplivedeals/toplivedeals/internal/listing"
	"github.com/toplivedeals/toplivedeals/internal/observability"
	"github.com/toplivedeals/toplivedeals/internal/platform/httpx"
	"github.com/toplivedeals/toplivedeals/internal/shared"
	"github.com/toplivedeals/toplivedeals/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	ListingHandler *listing.Handler
	AdminHandler   *catalog.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with storefront defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Hands the session its CSRF token; mutating admin and logout calls
	// echo it back in the X-CSRF-Token header.
	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(sess)
		if err != nil {
			httpx.Problem(w, http.StatusInternalServerError, "Session Error", "could not issue csrf token")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"csrfToken": token})
	})

	r.Route("/api", params.ListingHandler.MountRoutes)
	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireUser)
		params.AdminHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/reviewpulse/reviewpulse/internal/api"
	"github.com/reviewpulse/reviewpulse/internal/auth"
	"github.com/reviewpulse/reviewpulse/internal/config"
	"github.com/reviewpulse/reviewpulse/internal/http/csrf"
	"github.com/reviewpulse/reviewpulse/internal/http/ratelimit"
	"github.com/reviewpulse/reviewpulse/internal/metrics"
	"github.com/reviewpulse/reviewpulse/internal/store"
)

// NewRouter wires all HTTP routes for auth and the dashboard API.
func NewRouter(cfg *config.Config, store *store.Store, authService *auth.Service, apiHandler *api.Handler) http.Handler {
	r := chi.NewRouter()

	// Auth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)
	// Manual sync is expensive upstream, so keep it tight: 1 per second, burst of 3
	syncRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(1), 3, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Get("/login", authService.BeginOAuth)
		r.Get("/callback", authService.HandleOAuthCallback)
	})

	r.With(authService.RequireSession, csrf.Middleware(cfg)).Post("/auth/logout", authService.Logout)

	r.Group(func(r chi.Router) {
		r.Use(authService.RequireSession)
		r.Use(csrf.Middleware(cfg))

		r.With(syncRateLimiter.Middleware()).Post("/api/sync", apiHandler.SyncNow)

		r.Get("/api/accounts", apiHandler.ListAccounts)
		r.Delete("/api/accounts/{id}", apiHandler.DisconnectAccount)

		r.Get("/api/google/connect", apiHandler.GoogleConnect)
		r.Get("/api/google/callback", apiHandler.GoogleCallback)

		r.Get("/api/locations", apiHandler.ListLocations)
		r.Get("/api/locations/{id}/reviews", apiHandler.ListLocationReviews)
		r.Get("/api/locations/{id}/metrics/daily", apiHandler.ListLocationDailyMetrics)
	})

	return r
}

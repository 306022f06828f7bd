// Package api assembles the HTTP control surface of the sync server.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/accreg-sync/internal/api/records"
	"github.com/stacklok/accreg-sync/internal/api/schedule"
	v0 "github.com/stacklok/accreg-sync/internal/api/v0"
	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/service"
	"github.com/stacklok/accreg-sync/internal/sync/coordinator"
)

// ServerOption configures the API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares     []func(http.Handler) http.Handler
	metricsHandler  http.Handler
	defaultInterval time.Duration
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler mounts h at /metrics. A nil handler mounts nothing.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithDefaultInterval sets the interval used by a start request that names none
func WithDefaultInterval(d time.Duration) ServerOption {
	return func(cfg *serverConfig) {
		if d > 0 {
			cfg.defaultInterval = d
		}
	}
}

// NewServer creates and configures the HTTP router with the given service, coordinator and options
func NewServer(svc service.RegistryService, coord coordinator.Coordinator, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		defaultInterval: config.DefaultSyncInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Mount("/", v0.HealthRouter(svc))
	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	r.Mount("/schedule", schedule.Router(coord, cfg.defaultInterval))
	r.Mount("/institutions", records.InstitutionRouter(svc))
	r.Mount("/programs", records.ProgramRouter(svc))
	r.Mount("/lookups", records.LookupRouter(svc))
	r.Get("/stats", records.StatsHandler(svc))

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

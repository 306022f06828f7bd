package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/stacklok/accreg-sync/database"
	"github.com/stacklok/accreg-sync/internal/api"
	"github.com/stacklok/accreg-sync/internal/app/storage"
	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/service"
	"github.com/stacklok/accreg-sync/internal/snapshot"
	"github.com/stacklok/accreg-sync/internal/sources"
	"github.com/stacklok/accreg-sync/internal/store"
	pkgsync "github.com/stacklok/accreg-sync/internal/sync"
	"github.com/stacklok/accreg-sync/internal/sync/coordinator"
	"github.com/stacklok/accreg-sync/internal/sync/reconcile"
	"github.com/stacklok/accreg-sync/internal/sync/state"
	"github.com/stacklok/accreg-sync/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	// runRequestTimeout is also the write timeout: POST /schedule/run blocks for a whole pass
	runRequestTimeout = 30 * time.Minute

	tracerName = "github.com/stacklok/accreg-sync"
)

// SyncAppOptions is a function that configures the sync app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig collects the builder inputs.
// It supports dependency injection for testing while providing sensible defaults for production
type syncAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	sourceHandlerFactory sources.SourceHandlerFactory
	syncManager          pkgsync.Manager
	storageFactory       storage.Factory
	parser               snapshot.Parser
	clock                clock.WithTicker
	schemaVersion        schemaVersionFunc

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		idleTimeout:    defaultIdleTimeout,
		schemaVersion:  database.Version,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return cfg, nil
}

// NewSyncApp wires the storage, the sync pipeline, the scheduler and the HTTP control surface
func NewSyncApp(
	ctx context.Context,
	opts ...SyncAppOptions,
) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.storageFactory == nil {
		if err := verifySchema(cfg.config, cfg.schemaVersion); err != nil {
			return nil, err
		}

		var factoryOpts []storage.DatabaseFactoryOption
		if cfg.tracerProvider != nil {
			factoryOpts = append(factoryOpts, storage.WithTracer(cfg.tracerProvider.Tracer(tracerName)))
		}
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config, factoryOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded && cfg.storageFactory != nil {
			cfg.storageFactory.Cleanup()
		}
	}()

	st, err := cfg.storageFactory.CreateStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	registryService, err := buildServiceComponents(cfg, st)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	stateService, syncCoordinator, err := buildSyncComponents(ctx, cfg, st, registryService)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, registryService, syncCoordinator)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	cleanupNeeded = false

	return &SyncApp{
		config: cfg.config,
		components: &AppComponents{
			SyncCoordinator: syncCoordinator,
			RegistryService: registryService,
			StateService:    stateService,
		},
		httpServer:     httpServer,
		storageFactory: cfg.storageFactory,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithSourceHandlerFactory allows injecting a custom source handler factory (for testing)
func WithSourceHandlerFactory(f sources.SourceHandlerFactory) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.sourceHandlerFactory = f
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithParser allows injecting a custom snapshot parser (for testing)
func WithParser(p snapshot.Parser) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.parser = p
		return nil
	}
}

// WithClock replaces the scheduler clock (for testing)
func WithClock(clk clock.WithTicker) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.clock = clk
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for sync, reconcile and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves the given handler on GET /metrics
func WithMetricsHandler(h http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

func (b *syncAppConfig) tracer(name string) trace.Tracer {
	if b.tracerProvider == nil {
		return nil
	}
	return b.tracerProvider.Tracer(name)
}

// buildServiceComponents builds the registry service over the store
func buildServiceComponents(b *syncAppConfig, st store.Store) (service.RegistryService, error) {
	slog.Info("Initializing service components")

	var svcOpts []service.Option
	if tracer := b.tracer(service.ServiceTracerName); tracer != nil {
		svcOpts = append(svcOpts, service.WithTracer(tracer))
	}

	svc, err := service.NewRegistryService(st, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry service: %w", err)
	}

	slog.Info("Service components initialized successfully")
	return svc, nil
}

// buildSyncComponents builds the state service, the sync manager and the coordinator
func buildSyncComponents(
	ctx context.Context,
	b *syncAppConfig,
	st store.Store,
	svc service.RegistryService,
) (state.SyncStateService, coordinator.Coordinator, error) {
	slog.Info("Initializing sync components")

	stateService, err := b.storageFactory.CreateStateService(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create state service: %w", err)
	}
	if err := stateService.Initialize(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize sync state: %w", err)
	}

	if b.syncManager == nil {
		if b.sourceHandlerFactory == nil {
			b.sourceHandlerFactory = sources.NewSourceHandlerFactory()
		}
		if b.parser == nil {
			b.parser = snapshot.NewParser()
		}

		reconcileOpts := []reconcile.Option{}
		if tracer := b.tracer(reconcile.TracerName); tracer != nil {
			reconcileOpts = append(reconcileOpts, reconcile.WithTracer(tracer))
		}
		reconcileMetrics, err := telemetry.NewReconcileMetrics(b.meterProvider)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create reconcile metrics: %w", err)
		}
		if reconcileMetrics != nil {
			reconcileOpts = append(reconcileOpts, reconcile.WithMetrics(reconcileMetrics))
		}

		var managerOpts []pkgsync.Option
		if tracer := b.tracer(pkgsync.TracerName); tracer != nil {
			managerOpts = append(managerOpts, pkgsync.WithTracer(tracer))
		}

		b.syncManager = pkgsync.NewDefaultSyncManager(
			&b.config.Source,
			b.sourceHandlerFactory,
			b.parser,
			reconcile.New(st, svc, reconcileOpts...),
			managerOpts...,
		)
	}

	coordOpts := []coordinator.Option{
		coordinator.WithErrorBackoff(b.config.Sync.GetErrorBackoff()),
	}
	if b.clock != nil {
		coordOpts = append(coordOpts, coordinator.WithClock(b.clock))
	}

	if b.meterProvider != nil {
		syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		if syncMetrics != nil {
			coordOpts = append(coordOpts, coordinator.WithSyncMetrics(syncMetrics))
			slog.Info("Sync metrics enabled")
		}

		registryMetrics, err := telemetry.NewRegistryMetrics(b.meterProvider)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create registry metrics: %w", err)
		}
		if registryMetrics != nil {
			coordOpts = append(coordOpts, coordinator.WithRegistryMetrics(registryMetrics, svc))
			slog.Info("Registry metrics enabled")
		}
	}

	syncCoordinator := coordinator.New(b.syncManager, stateService, coordOpts...)
	slog.Info("Sync components initialized successfully")

	return stateService, syncCoordinator, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	b *syncAppConfig,
	svc service.RegistryService,
	coord coordinator.Coordinator,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			requestTimeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// metrics and tracing go first so they see every request
	var front []func(http.Handler) http.Handler
	if b.meterProvider != nil {
		httpMetrics, err := telemetry.NewHTTPMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
		}
		front = append(front, httpMetrics.Middleware)
	}
	if b.tracerProvider != nil {
		front = append(front, telemetry.TracingMiddleware(b.tracerProvider))
	}
	middlewares := append(front, b.middlewares...)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(middlewares...),
		api.WithDefaultInterval(b.config.Sync.GetInterval()),
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(svc, coord, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: runRequestTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}

// requestTimeout applies the request timeout everywhere except the run-now endpoint
func requestTimeout(d time.Duration) func(http.Handler) http.Handler {
	timeout := middleware.Timeout(d)
	return func(next http.Handler) http.Handler {
		limited := timeout(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && r.URL.Path == "/schedule/run" {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

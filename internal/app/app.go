// Package app provides application lifecycle management for the sync server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/stacklok/accreg-sync/internal/app/storage"
	"github.com/stacklok/accreg-sync/internal/config"
	pkgsync "github.com/stacklok/accreg-sync/internal/sync"
)

// SyncApp encapsulates all components needed to run the sync server.
// It provides lifecycle management and graceful shutdown capabilities.
type SyncApp struct {
	config         *config.Config
	components     *AppComponents
	httpServer     *http.Server
	storageFactory storage.Factory
}

// Start starts the scheduler when auto start is configured, then serves HTTP.
// This method blocks until the HTTP server stops or encounters an error.
func (app *SyncApp) Start() error {
	listener, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	return app.Serve(listener)
}

// Serve is Start on an existing listener
func (app *SyncApp) Serve(listener net.Listener) error {
	if app.config.Sync.IsAutoStart() {
		if err := app.components.SyncCoordinator.Start(app.config.Sync.GetInterval()); err != nil {
			_ = listener.Close()
			return fmt.Errorf("failed to start sync scheduler: %w", err)
		}
	} else {
		slog.Info("Sync scheduler not started, use POST /schedule/start")
	}

	slog.Info("Server listening", "address", listener.Addr().String())
	if err := app.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// RunOnce performs a single pass without serving HTTP. Used by the sync command.
func (app *SyncApp) RunOnce(ctx context.Context) (*pkgsync.Result, error) {
	return app.components.SyncCoordinator.RunOnce(ctx)
}

// Stop gracefully stops the application with the given timeout.
// The scheduler stops first, letting a running pass finish, then the HTTP server
// shuts down and the storage resources are released.
func (app *SyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server")

	app.components.SyncCoordinator.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := app.httpServer.Shutdown(shutdownCtx)
	app.Close()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Close releases the storage resources
func (app *SyncApp) Close() {
	if app.storageFactory != nil {
		app.storageFactory.Cleanup()
	}
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired components
func (app *SyncApp) Components() *AppComponents {
	return app.components
}

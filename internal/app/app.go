// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fsgeodata/catalog-librarian/internal/catalog"
	"github.com/fsgeodata/catalog-librarian/internal/config"
	"github.com/fsgeodata/catalog-librarian/internal/logging"
	"github.com/fsgeodata/catalog-librarian/internal/metrics"
)

// App holds the shared, long-lived services for the librarian: configuration,
// the zap logger, and the catalog store. It is initialized once at startup
// and passed to the commands that need it.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	store  *catalog.Store
}

// New loads configuration, builds the logger, and opens the catalog store.
// The schema is applied on open; Initialize is idempotent, so an existing
// catalog file is reused as-is. Fails fast if any service cannot start.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	metrics.Init()

	store, err := catalog.Open(cfg.Catalog.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := store.Initialize(ctx); err != nil {
		store.Close() //nolint:errcheck
		return nil, fmt.Errorf("initialize catalog: %w", err)
	}

	logger.Info("application services initialized",
		zap.String("catalog", cfg.Catalog.DBPath))

	return &App{cfg: cfg, logger: logger, store: store}, nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the catalog store.
func (a *App) Store() *catalog.Store {
	return a.store
}

// Close releases the catalog connection and flushes the logger. It is called
// by a Cobra hook after the command finishes, so the store is released on
// every exit path.
func (a *App) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("error closing catalog", zap.Error(err))
	}
	// Best-effort flush; stderr sync failures are expected on some platforms.
	_ = a.logger.Sync()
}

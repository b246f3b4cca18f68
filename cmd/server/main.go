// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/funnelcast/internal/admission"
	"github.com/tomtom215/funnelcast/internal/api"
	"github.com/tomtom215/funnelcast/internal/cache"
	"github.com/tomtom215/funnelcast/internal/config"
	"github.com/tomtom215/funnelcast/internal/database"
	"github.com/tomtom215/funnelcast/internal/funnel"
	"github.com/tomtom215/funnelcast/internal/logging"
	"github.com/tomtom215/funnelcast/internal/rangecache"
	"github.com/tomtom215/funnelcast/internal/supervisor"
	"github.com/tomtom215/funnelcast/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("cache_backend", cfg.Cache.Backend).
		Msg("Starting funnelcast")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run builds the component graph and blocks until a shutdown signal.
// Deferred closes run in reverse construction order.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := cache.NewStore(ctx, storeConfig(cfg.Cache))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache store")
		}
	}()
	logging.Info().Str("backend", string(cache.BackendOf(store))).Msg("Cache store ready")

	admCfg, err := admissionConfig(cfg.Admission)
	if err != nil {
		return err
	}
	controller := admission.NewController(admCfg)

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedMockData {
		if err := db.SeedMockData(ctx, cfg.Database.SeedDays, cfg.Database.SeedVisitors); err != nil {
			return err
		}
	}

	rc := rangecache.New(store, controller)
	rc.SetComputeTimeout(admCfg.MaxQueueWait + cfg.Server.Timeout)
	facade, err := funnel.NewBookingFacade(rc, db, cfg.Cache.Layer, controller)
	if err != nil {
		return err
	}
	logging.Info().Int("metrics", len(facade.Metrics())).Msg("Metric catalogue registered")

	handler := api.NewHandler(facade, controller, db, rc, cfg.Security.MaxRangeDays)
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromSecurity(cfg.Security))

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin in production")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED")
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}
	addServices(tree, cfg, controller, store, server)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	serveErr := waitForTree(tree.ServeBackground(ctx))

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	return serveErr
}

// waitForTree receives the tree's single exit result. The channel is never
// closed, so it must not be ranged over.
func waitForTree(errCh <-chan error) error {
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// addServices registers the supervised services. Stores that need no
// housekeeping (valkey, none) get no janitor.
func addServices(tree *supervisor.SupervisorTree, cfg *config.Config, controller *admission.Controller, store cache.Store, server services.HTTPServer) {
	tree.AddDataService(services.NewHistoryPrunerService(controller, cfg.Admission.HistoryPruneEvery))
	if sw, ok := store.(cache.Sweeper); ok {
		tree.AddDataService(services.NewCacheJanitorService(sw, cfg.Cache.CleanupInterval))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
}

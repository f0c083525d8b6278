// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

// Package main is the entry point for the Playerpulse server.
//
// Playerpulse samples concurrent player counts for the top Steam games on
// a schedule, stores the immutable observations in DuckDB, and serves
// leaderboard, history, peak, and trending analytics over a REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading via Koanf v2 (defaults, YAML, env)
//  2. Database: DuckDB with the append-only sample schema
//  3. Steam client: charts/stats/storefront APIs behind a circuit breaker
//  4. Collector: cycle manager plus the optional interval poller
//  5. HTTP server: Chi REST API with Prometheus metrics
//  6. Supervisor tree: suture-managed lifecycle for all of the above
//
// # Configuration
//
// Configuration is loaded with layered sources (highest priority wins):
//   - Environment variables (CRON_SECRET, DUCKDB_PATH, COLLECTOR_INTERVAL, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP server
// drains in-flight requests, the poller finishes any running collection
// cycle, and the database connection is closed last.
//
// # Example Usage
//
// Scheduled collection driven by an external cron:
//
//	export CRON_SECRET=$(openssl rand -base64 32)
//	export COLLECTOR_ENABLED=false
//	./playerpulse
//
// Self-contained hourly collection:
//
//	export COLLECTOR_INTERVAL=1h
//	./playerpulse
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/playerpulse/internal/api"
	"github.com/tomtom215/playerpulse/internal/collector"
	"github.com/tomtom215/playerpulse/internal/config"
	"github.com/tomtom215/playerpulse/internal/database"
	"github.com/tomtom215/playerpulse/internal/logging"
	"github.com/tomtom215/playerpulse/internal/steam"
	"github.com/tomtom215/playerpulse/internal/supervisor"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
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
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Bool("collector_enabled", cfg.Collector.Enabled).
		Msg("Starting Playerpulse")

	if cfg.Security.CronSecret == "" {
		logging.Warn().Msg("CRON_SECRET is not set: the authenticated collect endpoint rejects all requests")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Steam client behind a circuit breaker so a flapping upstream cannot
	// hammer the Web API during outages.
	steamClient := steam.NewCircuitBreakerClient(steam.NewClient(&cfg.Steam))

	manager := collector.NewManager(steamClient, db, &cfg.Collector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	handler := api.NewHandler(db, steamClient, manager, cfg, version)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Data layer: periodic WAL checkpoints keep the file size bounded
	// under the append-only write pattern.
	tree.AddDataService(supervisor.NewCheckpointService(db, cfg.Database.CheckpointInterval))

	// Collection layer: the interval poller, when enabled. Deployments
	// using external cron triggers run without it.
	if cfg.Collector.Enabled {
		poller := collector.NewPoller(manager, cfg.Collector.Interval)
		tree.AddCollectionService(supervisor.NewPollerService(poller))
		logging.Info().Dur("interval", cfg.Collector.Interval).Msg("Collection poller added to supervisor tree")
	} else {
		logging.Info().Msg("Collection poller disabled - expecting external triggers")
	}

	// API layer
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel until the supervisor finishes.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

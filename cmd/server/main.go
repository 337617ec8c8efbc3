// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// Package main is the entry point for the Audiotheca server.
//
// Audiotheca is a self-hosted catalog for a family's listening media:
// playlists, audiobooks, radio stations, and podcasts, each described by
// tags (owner, mood, context, time of day, ...). Its core operation is
// tag-based selection — "something calm for the kids, nothing from papa's
// jazz" — answered from the active catalog with configurable fallback when
// nothing matches exactly. RFID tokens can be bound to catalog items so a
// physical scan resolves straight to something playable.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and optional YAML file (Koanf v2)
//  2. Database: DuckDB catalog store (media, tags, tokens), migrated and seeded
//  3. History: BadgerDB selection history with TTL and value-log GC
//  4. Event bus: in-process Watermill pub/sub for catalog and selection events
//  5. WebSocket hub + bridge: real-time event fan-out to connected clients
//  6. Covers: local cover-art store and rate-limited fetcher
//  7. Assistant bridge (optional): circuit-broken client for a voice-assistant
//     media provider, used for search and import
//  8. HTTP server: chi REST API under /api/v1
//
// Everything long-running goes under a suture supervisor tree (data,
// messaging, and api layers), so a crashed loop restarts without taking the
// process down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file, built-in defaults.
// The config file path comes from -config, the CONFIG_PATH environment
// variable, or the default search paths (config.yaml, /etc/audiotheca/).
//
// Common settings:
//   - HTTP_PORT: listen port (default: 8484)
//   - DUCKDB_PATH: catalog database file (default: /data/audiotheca.duckdb)
//   - HISTORY_ENABLED / HISTORY_PATH: selection history (default: on, /data/history)
//   - COVERS_DIR: local cover art (default: /data/covers)
//   - ASSISTANT_ENABLED / ASSISTANT_URL / ASSISTANT_TOKEN: provider bridge
//   - LOG_LEVEL / LOG_FORMAT: zerolog settings (default: info, json)
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the listener
// stops accepting connections, in-flight requests get the configured
// shutdown budget, then the event bus, history store, and database close in
// reverse initialization order.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoreau78/audiotheca/internal/api"
	"github.com/jmoreau78/audiotheca/internal/assistant"
	"github.com/jmoreau78/audiotheca/internal/catalog"
	"github.com/jmoreau78/audiotheca/internal/config"
	"github.com/jmoreau78/audiotheca/internal/covers"
	"github.com/jmoreau78/audiotheca/internal/database"
	"github.com/jmoreau78/audiotheca/internal/events"
	"github.com/jmoreau78/audiotheca/internal/history"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/rfid"
	"github.com/jmoreau78/audiotheca/internal/selection"
	"github.com/jmoreau78/audiotheca/internal/server"
	ws "github.com/jmoreau78/audiotheca/internal/websocket"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("audiotheca " + version)
		return
	}

	if *configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, *configPath); err != nil {
			logging.Fatal().Err(err).Msg("Failed to set config path")
		}
	}

	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Audiotheca")

	// Catalog database: open, migrate, seed the default vocabulary
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Selection history (optional). The store is both the catalog's history
	// sink and the API's reader for /history and exclude_recent.
	var histStore *history.Store
	var gcRunner *history.GCRunner
	if cfg.History.Enabled {
		histStore, err = history.Open(cfg.History)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open history store")
		}
		defer func() {
			if err := histStore.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing history store")
			}
		}()
		gcRunner = history.NewGCRunner(histStore, cfg.History.GCInterval)
	} else {
		logging.Info().Msg("Selection history disabled (HISTORY_ENABLED=false)")
	}

	// In-process event bus. Catalog and token services publish, the
	// websocket bridge subscribes.
	bus := events.NewBus(cfg.Events, events.NewWatermillLogger(logging.WithComponent("events")))
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// WebSocket hub and its bus bridge (both supervised below)
	wsHub := ws.NewHub()
	bridge := ws.NewBridge(wsHub, bus)

	// Cover art store and fetcher
	coverStore, err := covers.NewStore(cfg.Covers.Dir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize cover store")
	}
	fetcher := covers.NewFetcher(cfg.Covers, coverStore)

	// Assistant bridge (optional). A breaker-wrapped client keeps a flaky
	// provider box from stalling catalog requests.
	var provider assistant.Interface
	if cfg.Assistant.Enabled {
		breaker := assistant.NewBreakerClient(cfg.Assistant)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), cfg.Assistant.Timeout)
		if err := breaker.Ping(pingCtx); err != nil {
			logging.Warn().Err(err).Msg("Failed to reach assistant (will retry on demand)")
		} else {
			logging.Info().Str("url", cfg.Assistant.URL).Msg("Connected to assistant")
		}
		pingCancel()
		provider = breaker
	} else {
		logging.Info().Msg("Assistant bridge disabled - catalog runs standalone")
	}

	// Selection engine and the catalog service orchestrating it
	engine := selection.NewEngine(logging.WithComponent("selection"))

	catalogOpts := []catalog.ServiceOption{
		catalog.WithPublisher(bus),
		catalog.WithCovers(fetcher, coverStore),
	}
	if histStore != nil {
		catalogOpts = append(catalogOpts, catalog.WithHistory(histStore))
	}
	cat := catalog.NewService(cfg.Selection, db, db, engine, catalogOpts...)

	tokens := rfid.NewService(db, bus)

	// HTTP surface. History and provider are interfaces: assign only when
	// present so the handler sees a true nil for disabled features.
	var histReader api.HistoryReader
	if histStore != nil {
		histReader = histStore
	}

	handler := api.NewHandler(db, cat, tokens, histReader, provider, coverStore, cfg, wsHub, version)
	router := api.NewRouter(handler, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervisor tree: data (history GC), messaging (hub + bridge), api
	// (HTTP). The slog adapter bridges zerolog to sutureslog.
	treeCfg := server.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout

	tree, err := server.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if gcRunner != nil {
		tree.AddDataService(server.NewHistoryGCService(gcRunner))
	}
	tree.AddMessagingService(server.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(server.NewEventBridgeService(bridge))
	tree.AddAPIService(server.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", httpServer.Addr).Msg("HTTP server service added")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// Wait for the supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel until the supervisor closes it
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

// Package main is the entry point for the Ticketwatch server.
//
// Ticketwatch polls a vendor's JSON-RPC inventory API for configured
// matches, diffs each fetch against the previous snapshot, and records
// seat sales and releases in DuckDB alongside an append-only stats time
// series. A read-only HTTP API serves the collected data and Prometheus
// metrics.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables over an optional YAML file (Koanf v2)
//  2. Logging: zerolog, JSON or console format
//  3. Database: DuckDB with the ticket_sales and match_stats tables
//  4. Snapshot store: BadgerDB (or in-memory for ephemeral deployments)
//  5. Events (optional): NATS JetStream publisher, embedded or external broker
//  6. Vendor client: rate-limited, retrying HTTP client behind a circuit breaker
//  7. Scheduler: one poller per configured match
//  8. HTTP API: chi router with health, inventory, and metrics endpoints
//  9. Supervisor tree: suture keeps the pollers and the API server running
//
// # Configuration
//
// A single match needs only three variables:
//
//	export VENDOR_BASE_URL=https://billets.example.com/proxy.cls
//	export MATCH_ID=CFM2221IND
//	export VENUE_ID=fb654025-eadc-4332-8ce0-8056882c81ce
//	./ticketwatch
//
// Multi-match deployments list matches in config.yaml instead.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: pollers finish their
// in-flight cycle, the HTTP server drains connections (10s timeout),
// then the event publisher, snapshot store, and database close.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ticketwatch/ticketwatch/internal/api"
	"github.com/ticketwatch/ticketwatch/internal/config"
	"github.com/ticketwatch/ticketwatch/internal/database"
	"github.com/ticketwatch/ticketwatch/internal/engine"
	"github.com/ticketwatch/ticketwatch/internal/events"
	"github.com/ticketwatch/ticketwatch/internal/logging"
	"github.com/ticketwatch/ticketwatch/internal/scheduler"
	"github.com/ticketwatch/ticketwatch/internal/snapshot"
	"github.com/ticketwatch/ticketwatch/internal/supervisor"
	"github.com/ticketwatch/ticketwatch/internal/supervisor/services"
	"github.com/ticketwatch/ticketwatch/internal/vendor"
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
		Int("matches", len(cfg.Matches)).
		Dur("poll_interval", cfg.Poll.Interval).
		Str("db_path", cfg.Database.Path).
		Bool("events_enabled", cfg.Events.Enabled).
		Msg("Starting Ticketwatch")

	db, err := database.New(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	snapshots, err := newSnapshotStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open snapshot store")
	}
	defer func() {
		if err := snapshots.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing snapshot store")
		}
	}()

	publisher, embedded, err := newPublisher(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event publishing")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event publisher")
		}
		if embedded != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := embedded.Shutdown(shutdownCtx); err != nil {
				logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
			}
		}
	}()

	// The circuit breaker guards the vendor endpoint against sustained
	// failure; without it retries alone keep hammering a dead gateway.
	var fetcher vendor.Fetcher
	if cfg.Vendor.CircuitBreakerEnabled {
		fetcher = vendor.NewBreakerClient(cfg.Vendor)
	} else {
		fetcher = vendor.NewClient(cfg.Vendor)
	}

	reconciler := engine.NewReconciler(snapshots, db, publisher)

	sched, err := scheduler.New(cfg, fetcher, reconciler)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build match pollers")
	}

	handler := api.NewHandler(cfg, db)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(cfg, handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.AddPollingService(services.NewPollerService(sched))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("addr", server.Addr).
		Msg("Supervisor tree starting")

	errCh := tree.ServeBackground(ctx)
	if err := <-errCh; err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree terminated unexpectedly")
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Ticketwatch stopped")
}

// newSnapshotStore opens the configured snapshot backend.
func newSnapshotStore(cfg *config.Config) (snapshot.Store, error) {
	if cfg.Snapshot.InMemory {
		logging.Info().Msg("Using in-memory snapshot store, baselines reset on restart")
		return snapshot.NewMemoryStore(), nil
	}
	return snapshot.NewBadgerStore(cfg.Snapshot.Path, false)
}

// newPublisher wires event publishing per configuration. When the
// embedded broker is enabled its client URL overrides the configured
// one, so publisher and broker always match.
func newPublisher(cfg *config.Config) (events.Publisher, *events.EmbeddedServer, error) {
	if !cfg.Events.Enabled {
		return events.Noop{}, nil, nil
	}

	eventsCfg := cfg.Events

	var embedded *events.EmbeddedServer
	if eventsCfg.EmbeddedServer {
		var err error
		embedded, err = events.NewEmbeddedServer(eventsCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		eventsCfg.URL = embedded.ClientURL()
	}

	publisher, err := events.NewNATSPublisher(eventsCfg)
	if err != nil {
		if embedded != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = embedded.Shutdown(shutdownCtx)
		}
		return nil, nil, fmt.Errorf("connect NATS publisher: %w", err)
	}

	return publisher, embedded, nil
}

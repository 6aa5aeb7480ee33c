// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package main is the entry point for the Worktrace server.
//
// Worktrace is a self-hosted employee attendance and geolocation platform:
// admins manage work sites with circular geofences, employees check in and
// out against their assigned site, and dashboards follow a live map fed by
// a realtime websocket stream.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Database: DuckDB with the attendance and location schema
//  3. Session store: badger-backed revocable sessions
//  4. Event bus: in-process watermill Pub/Sub with a circuit-broken publisher
//  5. WebSocket hub: tenant-scoped realtime fan-out
//  6. HTTP server: chi REST API plus the /ws realtime endpoint
//
// Everything long-running is placed under a suture supervisor tree with
// three layers (data, messaging, api) so a crash in one layer restarts
// only that layer.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in defaults.
//
// Required for a production start:
//   - JWT_SECRET: 32+ character secret for token signing
//
// First-start bootstrap (ignored once any admin exists):
//   - BOOTSTRAP_EMAIL / BOOTSTRAP_PASSWORD: initial super admin credentials
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: new connections
// are refused, in-flight requests get the shutdown timeout to finish, and
// the database and session store are closed last.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/worktrace/worktrace/internal/api"
	"github.com/worktrace/worktrace/internal/audit"
	"github.com/worktrace/worktrace/internal/auth"
	"github.com/worktrace/worktrace/internal/config"
	"github.com/worktrace/worktrace/internal/database"
	"github.com/worktrace/worktrace/internal/events"
	"github.com/worktrace/worktrace/internal/logging"
	"github.com/worktrace/worktrace/internal/middleware"
	"github.com/worktrace/worktrace/internal/sessions"
	"github.com/worktrace/worktrace/internal/supervisor"
	"github.com/worktrace/worktrace/internal/supervisor/services"
	ws "github.com/worktrace/worktrace/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Config is not available yet, the default logger has to do.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Addr()).
		Str("db_path", cfg.Database.Path).
		Msg("Starting Worktrace")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	store, err := openSessionStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bootstrapAdmin(ctx, db, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap initial admin")
	}
	if cfg.Database.SeedMockData {
		if err := seedMockData(ctx, db); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed mock data")
		}
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	// Event pipeline: handlers publish, the bridge forwards to the hub.
	bus := events.NewBus(&cfg.Events, nil)
	defer bus.Close()
	publisher := events.NewPublisher(bus, &cfg.Events, nil)
	defer publisher.Close()

	wsHub := ws.NewHub()
	bridge := ws.NewBusSubscriber(wsHub, bus)

	trail, err := openAuditTrail(ctx, db, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize audit trail")
	}
	if trail != nil {
		defer func() {
			if err := trail.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing audit trail")
			}
		}()
	}

	handler := api.NewHandler(db, cfg, jwtManager, store, publisher, wsHub).WithAudit(trail)
	authn := middleware.NewAuthenticator(jwtManager, store)
	router := api.NewRouter(handler, authn, cfg)

	server := newHTTPServer(cfg, router.Setup())

	// Supervision tree: a messaging-layer crash restarts the realtime
	// feed without taking the HTTP API down.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewSessionMaintenanceService(store, sessionMaintenanceInterval(cfg)))
	if trail != nil {
		retention := time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour
		tree.AddDataService(services.NewAuditRetentionService(trail, retention, cfg.Audit.CleanupInterval))
	}
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(services.NewEventBridgeService(bridge))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor closes the channel.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}

// sessionMaintenanceInterval derives the gauge/GC cadence from the session
// timeout so short-lived test configurations clean up promptly.
func sessionMaintenanceInterval(cfg *config.Config) time.Duration {
	interval := cfg.Security.SessionTimeout / 4
	if interval <= 0 || interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	return interval
}

// openAuditTrail builds the audit recorder on the shared DuckDB
// connection. Returns nil when auditing is disabled; handlers treat a
// nil trail as a no-op.
func openAuditTrail(ctx context.Context, db *database.DB, cfg *config.Config) (*audit.Trail, error) {
	if !cfg.Audit.Enabled {
		logging.Info().Msg("Audit trail disabled")
		return nil, nil
	}
	store := audit.NewDuckDBStore(db.Conn())
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return audit.NewTrail(store, &cfg.Audit), nil
}

// openSessionStore opens the badger store at the configured path, or in
// memory when no path is set.
func openSessionStore(cfg *config.Config) (*sessions.Store, error) {
	if cfg.Security.SessionStorePath == "" {
		logging.Warn().Msg("SESSION_STORE_PATH not set, sessions will not survive restarts")
		return sessions.OpenInMemory()
	}
	return sessions.Open(cfg.Security.SessionStorePath)
}

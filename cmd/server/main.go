// Tastemirror - Taste Archetypes, Daily Mood Recommendations and Badges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemirror

// Package main is the entry point for the Tastemirror server.
//
// Tastemirror matches a listener's quiz answers to a taste archetype,
// reflects the answers back as a narrated "taste mirror", serves one
// shuffled set of mood recommendations per user per day, and tracks badge
// progress in BadgerDB.
//
// # Startup Order
//
//  1. Configuration: defaults, optional config.yaml, environment (Koanf v2)
//  2. Logging: zerolog, configured from LOG_LEVEL / LOG_FORMAT
//  3. Storage: BadgerDB for badge documents and the daily cache
//  4. Event bus: in-process Watermill channel for badge unlocks
//  5. Sessions, upstream client, mirror engine, HTTP router
//  6. Supervisor tree: storage GC, cache janitor, unlock subscriber,
//     session sweeper, HTTP server
//
// # Example Usage
//
//	export UPSTREAM_URL=https://recs.example.com/api
//	export JWT_SECRET=$(openssl rand -base64 32)
//	./tastemirror
//
// Development without tokens:
//
//	export AUTH_MODE=none STORAGE_IN_MEMORY=true
//	./tastemirror
//	curl -H 'X-User-ID: alice' localhost:8080/api/v1/badges
//
// SIGINT and SIGTERM stop the supervisor tree; the HTTP server drains for
// HTTP_SHUTDOWN_TIMEOUT before the database is closed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/tastemirror/internal/api"
	"github.com/tomtom215/tastemirror/internal/archetype"
	"github.com/tomtom215/tastemirror/internal/badges"
	"github.com/tomtom215/tastemirror/internal/config"
	"github.com/tomtom215/tastemirror/internal/logging"
	"github.com/tomtom215/tastemirror/internal/middleware"
	"github.com/tomtom215/tastemirror/internal/mirror"
	"github.com/tomtom215/tastemirror/internal/session"
	"github.com/tomtom215/tastemirror/internal/storage"
	"github.com/tomtom215/tastemirror/internal/supervisor"
	"github.com/tomtom215/tastemirror/internal/supervisor/services"
	"github.com/tomtom215/tastemirror/internal/upstream"
)

// dailyCacheTTL lets yesterday's dated cache keys expire on their own.
const dailyCacheTTL = 48 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("storage", storageDescription(cfg.Storage)).
		Str("upstream", cfg.Upstream.BaseURL).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Tastemirror")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Server stopped")
}

func run(cfg *config.Config) error {
	loc, err := cfg.Daily.Location()
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger())
	bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	sessions := session.NewRegistry(session.RegistryConfig{
		Badges:      storage.NewBadgeStore(db),
		Store:       storage.NewKVStore(db, dailyCacheTTL),
		Location:    loc,
		IdleTimeout: cfg.Security.SessionIdleTimeout,
		Publisher:   badges.NewWatermillPublisher(bus),
	})

	client := upstream.NewClient(cfg.Upstream)

	authenticator, err := newAuthenticator(cfg.Security)
	if err != nil {
		return err
	}

	handler := api.NewHandler(
		sessions,
		archetype.DefaultRegistry(),
		archetype.DefaultAffinity(),
		mirror.NewEngine(cfg.Mirror.Seed),
		client,
	)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins:       cfg.Security.CORSOrigins,
		RateLimitRequests: cfg.Security.RateLimitReqs,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
		RateLimitDisabled: cfg.Security.RateLimitDisabled,
		RequestTimeout:    cfg.Server.Timeout,
		Authenticator:     authenticator,
		AuthRequired:      cfg.Security.AuthMode == "jwt",
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(services.NewGCService(db, cfg.Storage.GCInterval))
	tree.AddDataService(client.DetailCache())
	tree.AddMessagingService(services.NewUnlockSubscriber(bus, services.LogUnlock))
	tree.AddMessagingService(sessions)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Listening")
	err = tree.Serve(ctx)

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Some services did not stop within the shutdown timeout")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newAuthenticator(sec config.SecurityConfig) (middleware.Authenticator, error) {
	if sec.AuthMode == "none" {
		logging.Warn().Msg("AUTH_MODE=none: callers are identified by the X-User-ID header")
		return middleware.HeaderAuthenticator{Header: api.UserIDHeader}, nil
	}
	return session.NewJWTVerifier(sec.JWTSecret)
}

func storageDescription(s config.StorageConfig) string {
	if s.InMemory {
		return "in-memory"
	}
	return s.Path
}

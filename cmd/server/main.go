// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

// Package main is the entry point for the Ballotscope sync service.
//
// Ballotscope tracks congressional campaign filings and finances. This
// service keeps a staging table of FEC candidate filings in step with the
// OpenFEC API and promotes vetted filings into the public candidate
// tables.
//
// The server initializes components in order:
//
//  1. Configuration: environment variables layered over config.yaml over
//     defaults (koanf v2)
//  2. Database: DuckDB with schema creation and state seeding
//  3. OpenFEC client: rate-limited HTTP client behind a circuit breaker
//  4. Sync manager: window resolution and per-state reconciliation
//  5. Promotion engine: staged filing to candidate conversion
//  6. HTTP server: admin API, sync trigger webhook, metrics, health
//
// The sync trigger webhook is the primary entry point; an in-process
// ticker (SYNC_INTERVAL above zero) is optional and off by default.
//
// Shutdown on SIGINT/SIGTERM is graceful: in-flight requests get ten
// seconds to finish and the database is checkpointed on close.
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

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/ballotscope/ballotscope/internal/api"
	"github.com/ballotscope/ballotscope/internal/config"
	"github.com/ballotscope/ballotscope/internal/database"
	"github.com/ballotscope/ballotscope/internal/fec"
	"github.com/ballotscope/ballotscope/internal/logging"
	"github.com/ballotscope/ballotscope/internal/promote"
	"github.com/ballotscope/ballotscope/internal/sync"
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
		Str("db_path", cfg.Database.Path).
		Str("fec_base_url", cfg.FEC.BaseURL).
		Bool("fec_key_configured", cfg.FEC.APIKey != "").
		Dur("sync_interval", cfg.Sync.Interval).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	fecClient := fec.NewCircuitBreakerClient(fec.NewClient(&cfg.FEC))
	syncManager := sync.NewManager(db, fecClient, cfg)
	engine := promote.NewEngine(db, promote.NewHTTPDirectory(""))

	handler := api.NewHandler(cfg, db, syncManager, fecClient, engine)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hook := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	root := suture.New("ballotscope", suture.Spec{
		EventHook:        hook.MustHook(),
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})

	root.Add(newHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	if cfg.Sync.Interval > 0 {
		root.Add(sync.NewService(syncManager, cfg.Sync.Interval))
		logging.Info().Dur("interval", cfg.Sync.Interval).Msg("Periodic sync service added")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := root.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("Stopped")
}

// httpService adapts http.Server's blocking ListenAndServe to suture's
// context-aware Serve.
type httpService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

func newHTTPService(server *http.Server, shutdownTimeout time.Duration) *httpService {
	return &httpService{server: server, shutdownTimeout: shutdownTimeout}
}

func (s *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return ctx.Err()
	}
}

func (s *httpService) String() string {
	return "http-server"
}

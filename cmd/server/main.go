// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

// Package main is the entry point for the Reelmates server.
//
// Reelmates scrapes the Letterboxd watch histories of two configured
// users, resolves the films both loved against TMDB, and generates three
// ranked recommendation lists (general movies, genre-based movies, TV
// shows). The lists are persisted as CSV and served over a small HTTP
// API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML file, env)
//  2. Stores: CSV history store and recommendation store under DATA_DIR
//  3. Scraper: rate-limited Letterboxd profile scraper
//  4. TMDB client: circuit-breaker-wrapped API client plus title resolver
//  5. Pipeline: the scrape-resolve-recommend runner and its scheduler
//  6. HTTP server: Chi router with the REST API and /metrics
//
// The pipeline scheduler and the HTTP server run under a suture
// supervisor tree in separate layers, so a pipeline crash never takes
// the API down.
//
// # Configuration
//
// Required settings:
//   - LETTERBOXD_USER_A, LETTERBOXD_USER_B: the two usernames to compare
//   - TMDB_API_TOKEN: TMDB v4 read access token
//
// The config package documents the full set of tunables and their env
// variable names.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the HTTP
// server stops accepting connections and drains in-flight requests, and
// a running pipeline pass is canceled through its context.
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

	"github.com/reelmates/reelmates/internal/api"
	"github.com/reelmates/reelmates/internal/config"
	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/logging"
	"github.com/reelmates/reelmates/internal/pipeline"
	"github.com/reelmates/reelmates/internal/recommend"
	"github.com/reelmates/reelmates/internal/recommend/storage"
	"github.com/reelmates/reelmates/internal/scrape"
	"github.com/reelmates/reelmates/internal/supervisor"
	"github.com/reelmates/reelmates/internal/supervisor/services"
	"github.com/reelmates/reelmates/internal/tmdb"
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
		Str("user_a", cfg.Letterboxd.UserA).
		Str("user_b", cfg.Letterboxd.UserB).
		Str("data_dir", cfg.Store.DataDir).
		Bool("pipeline_enabled", cfg.Pipeline.Enabled).
		Msg("Starting Reelmates")

	files, err := history.NewStore(cfg.Store.DataDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize data directory")
	}
	recStore := storage.New(files)

	scraper, err := scrape.New(scrape.Config{
		BaseURL:        cfg.Letterboxd.BaseURL,
		MaxPages:       cfg.Letterboxd.MaxPages,
		PageDelay:      cfg.Letterboxd.PageDelay,
		RequestTimeout: cfg.Letterboxd.RequestTimeout,
		RetryAttempts:  cfg.Letterboxd.RetryAttempts,
		RetryBaseDelay: cfg.Letterboxd.RetryBaseDelay,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create scraper")
	}

	tmdbClient, err := tmdb.NewClient(tmdb.Config{
		APIToken:          cfg.TMDB.APIToken,
		BaseURL:           cfg.TMDB.BaseURL,
		RequestTimeout:    cfg.TMDB.RequestTimeout,
		MaxRetries:        cfg.TMDB.MaxRetries,
		RetryBaseDelay:    cfg.TMDB.RetryBaseDelay,
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create TMDB client")
	}

	// Circuit breaker sits between the resolver and the raw client so
	// a TMDB outage degrades the pipeline instead of hammering the API.
	breaker := tmdb.NewBreakerClient(tmdbClient)
	resolver := tmdb.NewResolver(breaker, cfg.TMDB.CacheSize, cfg.TMDB.CacheTTL)
	recommender := recommend.New(cfg.Recommend, resolver, breaker)

	p := pipeline.New(cfg.Letterboxd, scraper, recommender, files, recStore)

	handler := api.NewHandler(cfg, files, recStore, p)
	router := api.NewRouter(handler, cfg.Server)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	if cfg.Pipeline.Enabled {
		tree.AddPipelineService(pipeline.NewService(p, cfg.Pipeline))
		logging.Info().
			Bool("run_on_startup", cfg.Pipeline.RunOnStartup).
			Dur("interval", cfg.Pipeline.Interval).
			Msg("Pipeline scheduler added to supervisor tree")
	} else {
		logging.Info().Msg("Pipeline scheduler disabled, runs only via POST /api/v1/pipeline/run")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

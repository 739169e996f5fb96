// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

// Package main is the entry point for the Mercatus server application.
//
// Mercatus is a self-hosted recommendation and ranking engine for marketplace
// storefronts. It tracks product views, extracts shopper preferences from
// purchase and browsing history, and serves ranked product lists over a REST
// API: personalized, session-based, similar-item, bought-together,
// collaborative, and best-seller rankings.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Open DuckDB and create the catalog schema
//  3. Cache: Select the recommendation cache backend (memory or redis)
//  4. Engine: Wire the recommendation service to the catalog and cache
//  5. HTTP Server: REST API with rate limiting and Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (see internal/config for the full list)
//   - Config file (config.yaml, or the path in CONFIG_PATH)
//   - Built-in defaults
//
// # Cache Backends
//
// The recommendation cache ships with two backends:
//   - memory: in-process TTL cache, zero operational overhead (default)
//   - redis: shared cache for multi-replica deployments (CACHE_BACKEND=redis, REDIS_ADDR)
//
// A redis backend that cannot be reached at startup degrades to the memory
// backend with a warning instead of failing the boot. A cold cache only costs
// recomputes; a crash loop costs the storefront its recommendations.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes the cache backend and database
//
// # Example Usage
//
// Development with a seeded demo catalog:
//
//	export DUCKDB_PATH=/tmp/mercatus.duckdb
//	export SEED_MOCK_DATA=true
//	export DISABLE_RATE_LIMIT=true
//	./mercatus
//
// Production behind a reverse proxy with a shared redis cache:
//
//	export ENVIRONMENT=production
//	export DUCKDB_PATH=/data/mercatus.duckdb
//	export CACHE_BACKEND=redis
//	export REDIS_ADDR=redis:6379
//	export CORS_ORIGINS=https://shop.example.com
//	export TRUSTED_PROXIES=10.0.0.0/8
//	./mercatus
//
// Docker:
//
//	docker run -d \
//	  -e SEED_MOCK_DATA=true \
//	  -v mercatus-data:/data \
//	  -p 8880:8880 \
//	  ghcr.io/tomtom215/mercatus
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

	"github.com/tomtom215/mercatus/internal/api"
	"github.com/tomtom215/mercatus/internal/cache"
	"github.com/tomtom215/mercatus/internal/config"
	"github.com/tomtom215/mercatus/internal/database"
	"github.com/tomtom215/mercatus/internal/logging"
	"github.com/tomtom215/mercatus/internal/recommend"
)

// version is reported by the health endpoint.
const version = "1.0.0"

// shutdownTimeout bounds how long in-flight requests may run after a
// shutdown signal before the listener is forced closed.
const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
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

	logging.Info().Str("version", version).Msg("Starting Mercatus")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("cache_backend", cfg.Cache.Backend).
		Str("environment", cfg.Server.Environment).
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
	logging.Info().Msg("Database initialized successfully")

	// Seed the demo catalog if enabled (for local development and CI)
	if cfg.Database.SeedMockData {
		logging.Info().Msg("Mock data seeding enabled (SEED_MOCK_DATA=true)")
		if err := db.SeedMockData(context.Background()); err != nil {
			// Close database before fatal exit to ensure defer runs
			if closeErr := db.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("Error closing database")
			}
			logging.Fatal().Err(err).Msg("Failed to seed mock data")
		}
	}

	cacher := initCache(&cfg.Cache)
	defer func() {
		if err := cacher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache")
		}
	}()

	provider := database.NewProvider(db)

	engine, err := recommend.NewService(provider, provider, cacher, cfg.Recommend.EngineConfig(), logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}
	logging.Info().
		Int("default_limit", cfg.Recommend.DefaultLimit).
		Int("max_limit", cfg.Recommend.MaxLimit).
		Msg("Recommendation engine initialized")

	if cfg.API.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
		logging.Warn().Msg("This should only be used for local development and load tests!")
	}

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: CORS is configured with wildcard origin (CORS_ORIGINS=*)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  This allows ANY website to query the recommendations API")
		logging.Warn().Msg("  and observe what your shoppers are being recommended.")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  RECOMMENDED: Pin the storefront origins in production:")
		logging.Warn().Msg("    CORS_ORIGINS=https://shop.example.com,https://m.example.com")
		logging.Warn().Msg("============================================================")
	}

	handler := api.NewHandler(engine, db, cacher, version)
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()
	logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Graceful shutdown failed, forcing close")
			if closeErr := server.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("Error closing HTTP server")
			}
		}
		// Shutdown makes ListenAndServe return ErrServerClosed; drain it so
		// the listener goroutine is done before the resource defers run.
		<-serverErr

	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			// Close database before fatal exit to ensure defer runs
			if closeErr := db.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("Error closing database")
			}
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// initCache selects the recommendation cache backend from configuration.
//
// The memory backend cannot fail. A redis backend that cannot be dialed
// degrades to the memory backend with a warning: a shared-cache outage must
// cost recomputes, never startup.
func initCache(cfg *config.CacheConfig) cache.Cacher {
	cacher, err := cache.NewCacher(cache.Config{
		Backend:    cache.Backend(cfg.Backend),
		MaxEntries: cfg.MaxEntries,
		Redis: cache.RedisConfig{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			KeyPrefix:    cfg.Redis.KeyPrefix,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		},
	})
	if err != nil {
		logging.Warn().Err(err).Str("backend", cfg.Backend).
			Msg("Cache backend unavailable, falling back to memory cache")
		return cache.NewMemory(0, cfg.MaxEntries)
	}

	logging.Info().Str("backend", cacher.GetStats().Backend).Msg("Recommendation cache initialized")
	return cacher
}

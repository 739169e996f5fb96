// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

/*
Package config provides centralized configuration management for Mercatus.

This package handles loading, validation, and parsing of configuration for
all application components. It ensures consistent configuration across the
server and provides sensible defaults for every setting.

# Configuration Sources

Configuration is loaded with Koanf v2 from three layered sources, later
sources overriding earlier ones:

  - Built-in defaults (always present)
  - Optional YAML config file (config.yaml, or the path in CONFIG_PATH)
  - Environment variables (highest priority)

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: HTTP server settings (host, port, timeout, environment)
  - APIConfig: Rate limiting, CORS, and trusted proxies
  - DatabaseConfig: DuckDB catalog store tuning
  - CacheConfig: Recommendation cache backend (memory or redis)
  - RecommendConfig: Recommendation engine knobs (limits, weights, TTLs)
  - LoggingConfig: Log levels and output formats

# Environment Variables

HTTP Server (ServerConfig):
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - HTTP_PORT: Listen port (default: 8880)
  - HTTP_TIMEOUT: Read/write timeout (default: 30s)
  - ENVIRONMENT: development or production (default: development)

API (APIConfig):
  - RATE_LIMIT_REQUESTS: Requests per client per window (default: 100)
  - RATE_LIMIT_WINDOW: Window duration (default: 1m)
  - DISABLE_RATE_LIMIT: Turn rate limiting off (default: false)
  - CORS_ORIGINS: Comma-separated allowed origins (default: *)
  - TRUSTED_PROXIES: Comma-separated proxy IPs or CIDRs (default: empty)

Database (DatabaseConfig):
  - DUCKDB_PATH: Database file path (default: /data/mercatus.duckdb)
  - DUCKDB_MAX_MEMORY: Memory limit (default: 2GB)
  - DUCKDB_THREADS: Worker threads, 0 = all cores (default: 0)
  - SEED_MOCK_DATA: Seed deterministic demo catalog (default: false)

Cache (CacheConfig):
  - CACHE_BACKEND: memory or redis (default: memory)
  - CACHE_MAX_ENTRIES: Memory backend entry bound (default: 10000)
  - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_KEY_PREFIX
  - REDIS_DIAL_TIMEOUT, REDIS_READ_TIMEOUT, REDIS_WRITE_TIMEOUT

Recommendation Engine (RecommendConfig):
  - RECOMMEND_DEFAULT_LIMIT, RECOMMEND_MAX_LIMIT
  - RECOMMEND_CONTENT_SHARE, RECOMMEND_NEIGHBOR_LIMIT
  - RECOMMEND_RECENT_VIEW_WINDOW, RECOMMEND_SESSION_VIEW_WINDOW
  - RECOMMEND_WEIGHT_* score fusion weights
  - RECOMMEND_PRICE_BAND_LOWER, RECOMMEND_PRICE_BAND_UPPER
  - RECOMMEND_TTL_* cache lifetimes
  - RECOMMEND_INVALIDATE_LIMITS: Result sizes cleared after a view

Logging (LoggingConfig):
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)
  - LOG_CALLER: Include caller location (default: false)

# Usage Example

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.ShouldWarnAboutCORS() {
		log.Warn().Msg("Wildcard CORS origins configured in production")
	}

	engineCfg := cfg.Recommend.EngineConfig()

# Validation

Load validates the merged configuration before returning it. Validation
errors name the environment variable to change, for example:

	HTTP_PORT must be between 1 and 65535
	CACHE_BACKEND must be one of: memory, redis

Recommendation engine bounds are enforced by the engine package itself;
this package delegates to it so the rules live in one place.

# See Also

  - internal/recommend: The engine consuming RecommendConfig
  - internal/cache: The backends selected by CacheConfig
*/
package config

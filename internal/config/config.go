// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package config

import (
	"time"

	"github.com/tomtom215/mercatus/internal/recommend"
)

// Config holds all application configuration loaded from environment variables
// and an optional config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Infrastructure:
//     - Server: HTTP server configuration (port, host, timeout, environment)
//     - Database: DuckDB configuration (path, memory, threads, mock data)
//     - Cache: Recommendation cache backend (memory or redis)
//
//  2. API:
//     - API: Rate limiting, CORS, and trusted proxy settings
//
//  3. Engine:
//     - Recommend: Recommendation engine tuning (limits, weights, TTLs)
//
//  4. Observability:
//     - Logging: Log levels and output formats
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig contains HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8880)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read and write timeout (default: 30s)
//   - ENVIRONMENT: Deployment environment, development or production (default: development)
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// APIConfig contains settings for the public HTTP API surface.
// Authentication is handled upstream by the storefront gateway, so this
// section carries only rate limiting, CORS, and proxy trust.
//
// Environment Variables:
//   - RATE_LIMIT_REQUESTS: Requests allowed per client per window (default: 100)
//   - RATE_LIMIT_WINDOW: Rate limit window duration (default: 1m)
//   - DISABLE_RATE_LIMIT: Disable rate limiting entirely (default: false)
//   - CORS_ORIGINS: Comma-separated list of allowed origins (default: *)
//   - TRUSTED_PROXIES: Comma-separated list of proxy IPs or CIDR ranges (default: empty)
type APIConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// DatabaseConfig contains DuckDB settings for the catalog store.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: /data/mercatus.duckdb)
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 2GB)
//   - DUCKDB_THREADS: DuckDB worker threads, 0 uses all cores (default: 0)
//   - SEED_MOCK_DATA: Seed a deterministic demo catalog on startup (default: false)
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	SeedMockData           bool   `koanf:"seed_mock_data"`
}

// CacheConfig selects and tunes the recommendation cache backend.
// The memory backend is self-contained; the redis backend shares cached
// lists across replicas.
//
// Environment Variables:
//   - CACHE_BACKEND: Cache backend, memory or redis (default: memory)
//   - CACHE_MAX_ENTRIES: Entry bound for the memory backend, 0 is unbounded (default: 10000)
//   - REDIS_ADDR: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password (default: empty)
//   - REDIS_DB: Redis database number (default: 0)
//   - REDIS_KEY_PREFIX: Prefix applied to every cache key (default: mercatus:)
//   - REDIS_DIAL_TIMEOUT: Connect timeout (default: 5s)
//   - REDIS_READ_TIMEOUT: Read timeout (default: 3s)
//   - REDIS_WRITE_TIMEOUT: Write timeout (default: 3s)
type CacheConfig struct {
	Backend    string      `koanf:"backend"`
	MaxEntries int         `koanf:"max_entries"`
	Redis      RedisConfig `koanf:"redis"`
}

// RedisConfig contains connection settings for the redis cache backend.
type RedisConfig struct {
	Addr         string        `koanf:"addr"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	KeyPrefix    string        `koanf:"key_prefix"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// RecommendConfig tunes the recommendation engine. Every knob here maps
// onto the engine's own configuration via EngineConfig, so the engine
// package stays free of loader concerns.
//
// Environment Variables:
//   - RECOMMEND_DEFAULT_LIMIT: Result size when a request omits a limit (default: 8)
//   - RECOMMEND_MAX_LIMIT: Cap on requested result sizes (default: 50)
//   - RECOMMEND_CONTENT_SHARE: Content-based share of personalized results (default: 0.6)
//   - RECOMMEND_RECENT_VIEW_WINDOW: Views feeding preference extraction (default: 20)
//   - RECOMMEND_SESSION_VIEW_WINDOW: Views feeding session recommendations (default: 10)
//   - RECOMMEND_NEIGHBOR_LIMIT: Neighbor users feeding collaborative filtering (default: 10)
//   - RECOMMEND_WEIGHT_CATEGORY: Category match contribution (default: 0.40)
//   - RECOMMEND_WEIGHT_PRICE_PROXIMITY: Max price closeness contribution (default: 0.20)
//   - RECOMMEND_WEIGHT_PRICE_CUTOFF: Relative price distance where the signal zeroes (default: 0.3)
//   - RECOMMEND_WEIGHT_STORE: Store match contribution (default: 0.10)
//   - RECOMMEND_WEIGHT_POPULARITY_CAP: Popularity contribution cap (default: 0.10)
//   - RECOMMEND_POPULARITY_DIVISOR: View count normalization divisor (default: 10000)
//   - RECOMMEND_WEIGHT_QUALITY: Max review quality contribution (default: 0.20)
//   - RECOMMEND_PRICE_BAND_LOWER: Lower multiplier for the content price band (default: 0.5)
//   - RECOMMEND_PRICE_BAND_UPPER: Upper multiplier for the content price band (default: 1.5)
//   - RECOMMEND_TTL_USER: Cache TTL for personalized lists (default: 1h)
//   - RECOMMEND_TTL_SESSION: Cache TTL for session lists (default: 30m)
//   - RECOMMEND_TTL_BEST_SELLING: Cache TTL for best-seller lists (default: 2h)
//   - RECOMMEND_TTL_PRODUCT: Cache TTL for product-anchored lists (default: 1h)
//   - RECOMMEND_INVALIDATE_LIMITS: Comma-separated result sizes cleared after a view (default: 8,12,16,20)
type RecommendConfig struct {
	DefaultLimit      int     `koanf:"default_limit"`
	MaxLimit          int     `koanf:"max_limit"`
	ContentShare      float64 `koanf:"content_share"`
	RecentViewWindow  int     `koanf:"recent_view_window"`
	SessionViewWindow int     `koanf:"session_view_window"`
	NeighborLimit     int     `koanf:"neighbor_limit"`

	Weights   WeightsConfig   `koanf:"weights"`
	PriceBand PriceBandConfig `koanf:"price_band"`
	TTL       TTLConfig       `koanf:"ttl"`

	InvalidateLimits []int `koanf:"invalidate_limits"`
}

// WeightsConfig mirrors the engine's score fusion weights.
type WeightsConfig struct {
	Category             float64 `koanf:"category"`
	PriceProximity       float64 `koanf:"price_proximity"`
	PriceProximityCutoff float64 `koanf:"price_proximity_cutoff"`
	Store                float64 `koanf:"store"`
	PopularityCap        float64 `koanf:"popularity_cap"`
	PopularityDivisor    float64 `koanf:"popularity_divisor"`
	Quality              float64 `koanf:"quality"`
}

// PriceBandConfig mirrors the engine's content-based price band.
type PriceBandConfig struct {
	Lower float64 `koanf:"lower"`
	Upper float64 `koanf:"upper"`
}

// TTLConfig mirrors the engine's cache lifetimes per recommendation kind.
type TTLConfig struct {
	User        time.Duration `koanf:"user"`
	Session     time.Duration `koanf:"session"`
	BestSelling time.Duration `koanf:"best_selling"`
	Product     time.Duration `koanf:"product"`
}

// LoggingConfig contains log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: Minimum log level: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: Output format, json or console (default: json)
//   - LOG_CALLER: Include caller file and line in log output (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// EngineConfig converts the section into the recommendation engine's own
// configuration type. The returned value shares no memory with the receiver.
func (r RecommendConfig) EngineConfig() *recommend.Config {
	return &recommend.Config{
		DefaultLimit:      r.DefaultLimit,
		MaxLimit:          r.MaxLimit,
		ContentShare:      r.ContentShare,
		RecentViewWindow:  r.RecentViewWindow,
		SessionViewWindow: r.SessionViewWindow,
		NeighborLimit:     r.NeighborLimit,
		Weights: recommend.Weights{
			Category:             r.Weights.Category,
			PriceProximity:       r.Weights.PriceProximity,
			PriceProximityCutoff: r.Weights.PriceProximityCutoff,
			Store:                r.Weights.Store,
			PopularityCap:        r.Weights.PopularityCap,
			PopularityDivisor:    r.Weights.PopularityDivisor,
			Quality:              r.Weights.Quality,
		},
		PriceBand: recommend.PriceBand{
			Lower: r.PriceBand.Lower,
			Upper: r.PriceBand.Upper,
		},
		TTL: recommend.TTLConfig{
			User:        r.TTL.User,
			Session:     r.TTL.Session,
			BestSelling: r.TTL.BestSelling,
			Product:     r.TTL.Product,
		},
		InvalidateLimits: append([]int(nil), r.InvalidateLimits...),
	}
}

// Load reads configuration from environment variables and an optional config file.
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Environment variables
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

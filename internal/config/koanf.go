// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/mercatus/internal/recommend"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mercatus/config.yaml",
	"/etc/mercatus/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8880,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development", // Set ENVIRONMENT=production for production checks
		},
		API: APIConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			TrustedProxies:    []string{},
		},
		Database: DatabaseConfig{
			Path:                   "/data/mercatus.duckdb",
			MaxMemory:              "2GB",
			Threads:                0,    // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true, // DuckDB default
			SeedMockData:           false,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:         "localhost:6379",
				Password:     "",
				DB:           0,
				KeyPrefix:    "mercatus:",
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
		},
		Recommend: defaultRecommendConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// defaultRecommendConfig mirrors the engine's own defaults so the loader
// and the engine cannot drift apart.
func defaultRecommendConfig() RecommendConfig {
	e := recommend.DefaultConfig()
	return RecommendConfig{
		DefaultLimit:      e.DefaultLimit,
		MaxLimit:          e.MaxLimit,
		ContentShare:      e.ContentShare,
		RecentViewWindow:  e.RecentViewWindow,
		SessionViewWindow: e.SessionViewWindow,
		NeighborLimit:     e.NeighborLimit,
		Weights: WeightsConfig{
			Category:             e.Weights.Category,
			PriceProximity:       e.Weights.PriceProximity,
			PriceProximityCutoff: e.Weights.PriceProximityCutoff,
			Store:                e.Weights.Store,
			PopularityCap:        e.Weights.PopularityCap,
			PopularityDivisor:    e.Weights.PopularityDivisor,
			Quality:              e.Weights.Quality,
		},
		PriceBand: PriceBandConfig{
			Lower: e.PriceBand.Lower,
			Upper: e.PriceBand.Upper,
		},
		TTL: TTLConfig{
			User:        e.TTL.User,
			Session:     e.TTL.Session,
			BestSelling: e.TTL.BestSelling,
			Product:     e.TTL.Product,
		},
		InvalidateLimits: append([]int(nil), e.InvalidateLimits...),
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// HTTP_PORT -> server.port
	// RECOMMEND_TTL_USER -> recommend.ttl.user
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"api.cors_origins",
	"api.trusted_proxies",
}

// intSliceConfigPaths defines which config paths should be parsed as
// comma-separated integer slices
var intSliceConfigPaths = []string{
	"recommend.invalidate_limits",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}

	for _, path := range intSliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice from defaults or YAML
		strVal, ok := val.(string)
		if !ok {
			continue
		}
		if strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		ints := make([]int, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			n, err := strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("%s expects comma-separated integers, got %q", path, strVal)
			}
			ints = append(ints, n)
		}
		if len(ints) > 0 {
			if err := k.Set(path, ints); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}

	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - REDIS_ADDR -> cache.redis.addr
//   - RECOMMEND_WEIGHT_CATEGORY -> recommend.weights.category
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	// Map environment variable names to config sections
	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API mappings
		"rate_limit_requests": "api.rate_limit_reqs",
		"rate_limit_window":   "api.rate_limit_window",
		"disable_rate_limit":  "api.rate_limit_disabled",
		"cors_origins":        "api.cors_origins",
		"trusted_proxies":     "api.trusted_proxies",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",
		"seed_mock_data":    "database.seed_mock_data",

		// Cache mappings
		"cache_backend":       "cache.backend",
		"cache_max_entries":   "cache.max_entries",
		"redis_addr":          "cache.redis.addr",
		"redis_password":      "cache.redis.password",
		"redis_db":            "cache.redis.db",
		"redis_key_prefix":    "cache.redis.key_prefix",
		"redis_dial_timeout":  "cache.redis.dial_timeout",
		"redis_read_timeout":  "cache.redis.read_timeout",
		"redis_write_timeout": "cache.redis.write_timeout",

		// Recommendation engine mappings
		"recommend_default_limit":       "recommend.default_limit",
		"recommend_max_limit":           "recommend.max_limit",
		"recommend_content_share":       "recommend.content_share",
		"recommend_recent_view_window":  "recommend.recent_view_window",
		"recommend_session_view_window": "recommend.session_view_window",
		"recommend_neighbor_limit":      "recommend.neighbor_limit",
		// Score fusion weights
		"recommend_weight_category":        "recommend.weights.category",
		"recommend_weight_price_proximity": "recommend.weights.price_proximity",
		"recommend_weight_price_cutoff":    "recommend.weights.price_proximity_cutoff",
		"recommend_weight_store":           "recommend.weights.store",
		"recommend_weight_popularity_cap":  "recommend.weights.popularity_cap",
		"recommend_popularity_divisor":     "recommend.weights.popularity_divisor",
		"recommend_weight_quality":         "recommend.weights.quality",
		// Content price band
		"recommend_price_band_lower": "recommend.price_band.lower",
		"recommend_price_band_upper": "recommend.price_band.upper",
		// Cache lifetimes
		"recommend_ttl_user":         "recommend.ttl.user",
		"recommend_ttl_session":      "recommend.ttl.session",
		"recommend_ttl_best_selling": "recommend.ttl.best_selling",
		"recommend_ttl_product":      "recommend.ttl.product",
		// Invalidation
		"recommend_invalidate_limits": "recommend.invalidate_limits",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

// Package cache provides the recommendation list cache with memory and redis backends.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Cacher defines the interface for cache backends.
// Both Memory and Redis implement this interface, allowing the backend to be
// selected at startup without touching the recommendation engine.
//
// Backend failures are reported as misses, never as errors: a cache outage
// must degrade a request to a recompute, not fail it.
//
// Usage:
//
//	// In-process TTL cache
//	var c Cacher = NewMemory(time.Hour, 10000)
//
//	// Or shared redis cache behind a circuit breaker
//	c, err := NewRedis(Config{Backend: BackendRedis, Redis: RedisConfig{Addr: "localhost:6379"}})
//
//	c.Set(ctx, "user:42:8", []int64{3, 1, 9}, time.Hour)
//	if ids, ok := c.Get(ctx, "user:42:8"); ok {
//	    // Serve cached ranking
//	}
type Cacher interface {
	// Get returns the ID list stored under key, if present and fresh.
	// Any backend failure is reported as a miss.
	Get(ctx context.Context, key string) ([]int64, bool)

	// Set stores an ID list under key with the given TTL.
	// A ttl <= 0 falls back to the backend's default TTL.
	Set(ctx context.Context, key string, ids []int64, ttl time.Duration)

	// Delete removes a key. Removing an absent key is a no-op.
	Delete(ctx context.Context, key string)

	// Clear removes all entries owned by this cache.
	Clear(ctx context.Context)

	// Ping reports backend connectivity. The memory backend always succeeds.
	Ping(ctx context.Context) error

	// GetStats returns a snapshot of cache statistics.
	GetStats() Stats

	// HitRate returns the cache hit rate as a percentage.
	HitRate() float64

	// Close releases backend resources.
	Close() error
}

// Backend identifies a cache implementation.
type Backend string

const (
	// BackendMemory is the in-process TTL cache (default).
	// Best for: single-instance deployments, zero operational overhead.
	BackendMemory Backend = "memory"

	// BackendRedis is a shared redis cache behind a circuit breaker.
	// Best for: multi-instance deployments that must agree on cached rankings.
	BackendRedis Backend = "redis"
)

// Config holds configuration for creating a cache backend.
type Config struct {
	// Backend selects the implementation (memory or redis).
	Backend Backend

	// TTL is the default time-to-live applied when Set receives ttl <= 0.
	TTL time.Duration

	// MaxEntries bounds the memory backend; 0 disables the cap.
	// Ignored by the redis backend.
	MaxEntries int

	// Redis configures the redis backend. Ignored by the memory backend.
	Redis RedisConfig
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Stats tracks cache performance counters. Evictions and TotalKeys are
// maintained by the memory backend; the redis backend reports zero for both
// rather than scanning the keyspace.
type Stats struct {
	Backend     string    `json:"backend"`
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Evictions   int64     `json:"evictions"`
	TotalKeys   int64     `json:"total_keys"`
	LastCleanup time.Time `json:"last_cleanup,omitempty"`
}

// NewCacher creates a cache backend based on the configuration.
// An unrecognized backend falls back to memory. The redis backend dials and
// pings at construction so a misconfigured address surfaces at startup, where
// the caller can decide to degrade to the memory backend.
func NewCacher(cfg Config) (Cacher, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	switch cfg.Backend {
	case BackendRedis:
		return NewRedis(cfg)
	default:
		return NewMemory(cfg.TTL, cfg.MaxEntries), nil
	}
}

// GenerateKey creates a cache key from a method name and parameters.
// Identical parameters always hash to the same key.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}

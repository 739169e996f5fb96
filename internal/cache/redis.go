// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/mercatus/internal/logging"
	"github.com/tomtom215/mercatus/internal/metrics"
)

// Verify interface implementation at compile time
var _ Cacher = (*Redis)(nil)

const (
	// redisBreakerName labels the redis circuit breaker in metrics and logs.
	redisBreakerName = "redis-cache"

	// defaultKeyPrefix namespaces Mercatus keys in a shared redis.
	defaultKeyPrefix = "mercatus:"

	// maxStorageKeyLen bounds key length. Session keys arrive from clients,
	// so oversized keys collapse to a stable hash instead of growing the
	// keyspace unbounded.
	maxStorageKeyLen = 200
)

// Redis is a shared cache backend wrapped in a circuit breaker.
// When redis degrades, the breaker opens and every operation becomes an
// instant miss instead of a blocked request.
//
// DETERMINISM NOTE: The circuit breaker uses real time (via sony/gobreaker)
// for its interval and timeout calculations. This is intentional for
// production resilience.
type Redis struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	prefix string
	ttl    time.Duration

	statsMu sync.Mutex
	hits    int64
	misses  int64
}

// NewRedis creates a redis cache backend and verifies connectivity.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 30 second timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewRedis(cfg Config) (*Redis, error) {
	rc := cfg.Redis
	if rc.Addr == "" {
		rc.Addr = "localhost:6379"
	}
	if rc.KeyPrefix == "" {
		rc.KeyPrefix = defaultKeyPrefix
	}
	if rc.DialTimeout <= 0 {
		rc.DialTimeout = 5 * time.Second
	}
	if rc.ReadTimeout <= 0 {
		rc.ReadTimeout = 3 * time.Second
	}
	if rc.WriteTimeout <= 0 {
		rc.WriteTimeout = 3 * time.Second
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:         rc.Addr,
		Password:     rc.Password,
		DB:           rc.DB,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), rc.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, fmt.Errorf("redis ping %s: %w", rc.Addr, err)
	}

	// Initialize circuit breaker state metrics
	metrics.CircuitBreakerState.WithLabelValues(redisBreakerName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(redisBreakerName).Set(0)

	return &Redis{
		client: client,
		cb:     newRedisBreaker(),
		prefix: rc.KeyPrefix,
		ttl:    cfg.TTL,
	}, nil
}

// newRedisBreaker builds the circuit breaker guarding redis operations.
func newRedisBreaker() *gobreaker.CircuitBreaker[interface{}] {
	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        redisBreakerName,
		MaxRequests: 3,                // Allow 3 concurrent requests in half-open state
		Interval:    time.Minute,      // Reset counts after 1 minute in closed state
		Timeout:     30 * time.Second, // Wait 30 seconds before transitioning from open to half-open

		// ReadyToTrip determines when to open the circuit
		// Opens when failure rate >= 60% with minimum 10 requests
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false // Need at least 10 requests for statistical significance
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening redis cache circuit")
			}

			return shouldTrip
		},

		// OnStateChange is called whenever the circuit breaker changes state
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] Redis cache state transition")

			// Update metrics
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			// Reset consecutive failures when transitioning to closed
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})
}

// execute wraps a redis operation with circuit breaker protection.
func (r *Redis) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := r.cb.Execute(fn)

	// Update metrics based on result
	if err != nil {
		if isBreakerRejection(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(redisBreakerName, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(redisBreakerName, "failure").Inc()
			counts := r.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(redisBreakerName).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(redisBreakerName, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(redisBreakerName).Set(0)

	return result, nil
}

// Get returns the ID list stored under key. Any failure, including an open
// circuit, is reported as a miss.
func (r *Redis) Get(ctx context.Context, key string) ([]int64, bool) {
	result, err := r.execute(func() (interface{}, error) {
		data, err := r.client.Get(ctx, r.storageKey(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			// A miss is a healthy response, not a breaker failure.
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		if !isBreakerRejection(err) {
			metrics.RecordCacheError(string(BackendRedis), "get")
		}
		r.recordMiss()
		return nil, false
	}
	if result == nil {
		r.recordMiss()
		return nil, false
	}

	data, ok := result.([]byte)
	if !ok {
		r.recordMiss()
		return nil, false
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Corrupt cache entry, treating as miss")
		metrics.RecordCacheError(string(BackendRedis), "get")
		r.recordMiss()
		return nil, false
	}

	r.recordHit()
	return ids, true
}

// Set stores an ID list under key. A ttl <= 0 uses the default TTL.
// Failures are logged and dropped; the next Get recomputes.
func (r *Redis) Set(ctx context.Context, key string, ids []int64, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.ttl
	}

	data, err := json.Marshal(ids)
	if err != nil {
		metrics.RecordCacheError(string(BackendRedis), "set")
		return
	}

	if _, err := r.execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, r.storageKey(key), data, ttl).Err()
	}); err != nil && !isBreakerRejection(err) {
		metrics.RecordCacheError(string(BackendRedis), "set")
		logging.Debug().Err(err).Str("key", key).Msg("Cache set failed")
	}
}

// Delete removes a key.
func (r *Redis) Delete(ctx context.Context, key string) {
	if _, err := r.execute(func() (interface{}, error) {
		return nil, r.client.Del(ctx, r.storageKey(key)).Err()
	}); err != nil && !isBreakerRejection(err) {
		metrics.RecordCacheError(string(BackendRedis), "delete")
	}
}

// Clear removes every key under this cache's prefix using SCAN, so other
// tenants of a shared redis are untouched.
func (r *Redis) Clear(ctx context.Context) {
	pattern := r.prefix + "*"

	if _, err := r.execute(func() (interface{}, error) {
		var cursor uint64
		for {
			keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				return nil, err
			}
			if len(keys) > 0 {
				if err := r.client.Del(ctx, keys...).Err(); err != nil {
					return nil, err
				}
			}
			cursor = next
			if cursor == 0 {
				return nil, nil
			}
		}
	}); err != nil && !isBreakerRejection(err) {
		metrics.RecordCacheError(string(BackendRedis), "clear")
		logging.Warn().Err(err).Msg("Cache clear failed")
	}
}

// Ping tests redis connectivity without breaker protection, so readiness
// probes observe the real backend state even while the circuit is open.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GetStats returns hit and miss counters. TotalKeys would require a keyspace
// scan and is left at zero.
func (r *Redis) GetStats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	return Stats{
		Backend: string(BackendRedis),
		Hits:    r.hits,
		Misses:  r.misses,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (r *Redis) HitRate() float64 {
	stats := r.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// Close releases the redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// State returns the current circuit breaker state.
func (r *Redis) State() gobreaker.State {
	return r.cb.State()
}

// Counts returns the current circuit breaker counts.
func (r *Redis) Counts() gobreaker.Counts {
	return r.cb.Counts()
}

// storageKey namespaces a logical key and bounds its length.
func (r *Redis) storageKey(key string) string {
	if len(key) > maxStorageKeyLen {
		return r.prefix + GenerateKey("oversized", key)
	}
	return r.prefix + key
}

func (r *Redis) recordHit() {
	r.statsMu.Lock()
	r.hits++
	r.statsMu.Unlock()

	metrics.RecordCacheHit(string(BackendRedis))
}

func (r *Redis) recordMiss() {
	r.statsMu.Lock()
	r.misses++
	r.statsMu.Unlock()

	metrics.RecordCacheMiss(string(BackendRedis))
}

// isBreakerRejection reports whether err is the breaker shedding load rather
// than a redis failure.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// stateToString converts a circuit breaker state to a readable string.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// stateToFloat converts a circuit breaker state to a metric gauge value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

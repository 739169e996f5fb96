// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

/*
Package cache provides the recommendation list cache with interchangeable
memory and redis backends.

Recommendation responses are expensive to compute (multi-query candidate
generation plus scoring) and cheap to store: each cached value is just the
ordered product-ID slice for one operation at one limit. Products are
re-hydrated from the database on every hit, so cached lists never serve
stale names or prices.

# Overview

The package provides:
  - Cacher interface shared by both backends
  - Memory: in-process TTL map with a cleanup janitor and optional entry cap
  - Redis: shared cache behind a sony/gobreaker circuit breaker
  - Hit/miss/eviction statistics per backend, mirrored to Prometheus

Failures never propagate: a backend error, a corrupt entry, or an open
circuit is reported to the caller as a plain miss. The engine recomputes and
the request succeeds either way.

# Key Scheme

The recommendation engine owns the key format:

	user:{userID}:{limit}
	session:{sessionKey}:{limit}
	similar:{productID}:{limit}
	together:{productID}:{limit}
	bestselling:global:{limit}

Values are JSON-encoded []int64 slices in rank order. The redis backend
namespaces every key with a configurable prefix (default "mercatus:") and
hashes keys longer than 200 bytes, since session keys arrive from clients.

# Backend Selection

	c, err := cache.NewCacher(cache.Config{
	    Backend:    cache.BackendMemory,
	    TTL:        time.Hour,
	    MaxEntries: 10000,
	})
	if err != nil {
	    // redis unreachable; caller decides whether to degrade to memory
	}
	defer c.Close()

The memory backend suits single-instance deployments. Multi-instance
deployments point every instance at the same redis so cached rankings and
invalidations agree.

# Circuit Breaker

The redis backend wraps every operation in a circuit breaker (name
"redis-cache"). After 10 requests in a one-minute window with a failure rate
of 60% or more, the circuit opens and operations return instant misses for
30 seconds before a half-open probe. State, transitions, and per-request
outcomes are exported through the metrics package.

# Usage Example

Engine-side caching pattern:

	if ids, ok := c.Get(ctx, key); ok {
	    return hydrate(ctx, ids) // cache hit
	}
	ranked := computeRecommendations(ctx, ...)
	if len(ranked) > 0 {
	    c.Set(ctx, key, productIDs(ranked), ttl)
	}

# Thread Safety

Both backends are safe for concurrent use. Memory uses sync.RWMutex; the
redis client manages its own connection pool. Racing writers for the same
key are acceptable: both compute equivalent values and last write wins.

# See Also

  - internal/recommend: owns keys, TTLs, and invalidation
  - internal/metrics: cache_hits_total, cache_entries, circuit_breaker_state
*/
package cache

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/mercatus/internal/metrics"
)

// cleanupInterval is how often the janitor sweeps expired entries.
const cleanupInterval = 5 * time.Minute

// entry is a cached ID list with its expiration.
type entry struct {
	ids       []int64
	expiresAt time.Time
}

// Memory is a thread-safe in-process cache with TTL expiration.
//
// Expired entries are dropped lazily on Get and swept by a background
// janitor every 5 minutes. When MaxEntries is set, inserting into a full
// cache evicts the entry closest to expiry.
//
// Stored and returned slices are private copies, so the memory backend has
// the same value semantics as the redis backend.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int

	statsMu     sync.Mutex
	hits        int64
	misses      int64
	evictions   int64
	lastCleanup time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// Verify interface implementation at compile time
var _ Cacher = (*Memory)(nil)

// NewMemory creates an in-process cache and starts its cleanup janitor.
//
// Parameters:
//   - ttl: default expiration applied when Set receives ttl <= 0
//   - maxEntries: entry cap; 0 means unbounded
//
// The janitor goroutine runs until Close is called.
//
// Example:
//
//	c := cache.NewMemory(time.Hour, 10000)
//	defer c.Close()
//	c.Set(ctx, "bestselling:global:8", ids, 2*time.Hour)
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if ttl <= 0 {
		ttl = time.Hour
	}

	m := &Memory{
		entries:     make(map[string]entry),
		ttl:         ttl,
		maxEntries:  maxEntries,
		lastCleanup: time.Now(),
		stop:        make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

// Get returns the ID list stored under key, if present and fresh.
// An expired entry is removed and counted as a miss.
func (m *Memory) Get(_ context.Context, key string) ([]int64, bool) {
	m.mu.RLock()
	e, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		m.recordMiss()
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		size := len(m.entries)
		m.mu.Unlock()

		m.recordMiss()
		m.recordEvictions(1)
		metrics.UpdateCacheEntries(string(BackendMemory), size)
		return nil, false
	}

	m.recordHit()

	ids := make([]int64, len(e.ids))
	copy(ids, e.ids)
	return ids, true
}

// Set stores an ID list under key. A ttl <= 0 uses the default TTL.
// Overwriting an existing key never triggers eviction.
func (m *Memory) Set(_ context.Context, key string, ids []int64, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}

	stored := make([]int64, len(ids))
	copy(stored, ids)

	m.mu.Lock()
	if m.maxEntries > 0 {
		if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
			m.evictSoonestLocked()
		}
	}
	m.entries[key] = entry{
		ids:       stored,
		expiresAt: time.Now().Add(ttl),
	}
	size := len(m.entries)
	m.mu.Unlock()

	metrics.UpdateCacheEntries(string(BackendMemory), size)
}

// Delete removes a key. Removing an absent key is a no-op.
func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	_, existed := m.entries[key]
	delete(m.entries, key)
	size := len(m.entries)
	m.mu.Unlock()

	if existed {
		m.recordEvictions(1)
	}
	metrics.UpdateCacheEntries(string(BackendMemory), size)
}

// Clear removes all entries in a single map swap.
func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	evicted := int64(len(m.entries))
	m.entries = make(map[string]entry)
	m.mu.Unlock()

	m.recordEvictions(evicted)
	metrics.UpdateCacheEntries(string(BackendMemory), 0)
}

// Ping always succeeds for the in-process backend.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// GetStats returns a snapshot of current cache statistics.
func (m *Memory) GetStats() Stats {
	m.mu.RLock()
	total := int64(len(m.entries))
	m.mu.RUnlock()

	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	return Stats{
		Backend:     string(BackendMemory),
		Hits:        m.hits,
		Misses:      m.misses,
		Evictions:   m.evictions,
		TotalKeys:   total,
		LastCleanup: m.lastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (m *Memory) HitRate() float64 {
	stats := m.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// Close stops the cleanup janitor. Safe to call more than once; the cache
// remains usable afterwards.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	return nil
}

// cleanupLoop sweeps expired entries until Close.
func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stop:
			return
		}
	}
}

// cleanup removes all expired entries.
func (m *Memory) cleanup() {
	now := time.Now()

	m.mu.Lock()
	evicted := int64(0)
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
			evicted++
		}
	}
	size := len(m.entries)
	m.mu.Unlock()

	m.recordEvictions(evicted)

	m.statsMu.Lock()
	m.lastCleanup = now
	m.statsMu.Unlock()

	metrics.UpdateCacheEntries(string(BackendMemory), size)
}

// evictSoonestLocked drops the entry closest to expiry. Callers hold mu.
func (m *Memory) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	for key, e := range m.entries {
		if victim == "" || e.expiresAt.Before(soonest) {
			victim = key
			soonest = e.expiresAt
		}
	}
	if victim != "" {
		delete(m.entries, victim)
		m.recordEvictions(1)
	}
}

func (m *Memory) recordHit() {
	m.statsMu.Lock()
	m.hits++
	m.statsMu.Unlock()

	metrics.RecordCacheHit(string(BackendMemory))
}

func (m *Memory) recordMiss() {
	m.statsMu.Lock()
	m.misses++
	m.statsMu.Unlock()

	metrics.RecordCacheMiss(string(BackendMemory))
}

func (m *Memory) recordEvictions(n int64) {
	if n <= 0 {
		return
	}

	m.statsMu.Lock()
	m.evictions += n
	m.statsMu.Unlock()

	metrics.CacheEvictions.WithLabelValues(string(BackendMemory)).Add(float64(n))
}

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
)

// newBrokenRedis returns a Redis backend whose client is already closed.
// Every command fails immediately without touching the network, which makes
// failure-path and breaker behavior deterministic.
func newBrokenRedis() *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
	})
	client.Close() //nolint:errcheck

	return &Redis{
		client: client,
		cb:     newRedisBreaker(),
		prefix: defaultKeyPrefix,
		ttl:    time.Minute,
	}
}

func TestRedisGetFailureIsMiss(t *testing.T) {
	r := newBrokenRedis()

	ids, ok := r.Get(context.Background(), "user:1:8")
	if ok {
		t.Error("Expected miss from failing backend")
	}
	if ids != nil {
		t.Errorf("Expected nil ids, got %v", ids)
	}

	stats := r.GetStats()
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.Hits != 0 {
		t.Errorf("Expected 0 hits, got %d", stats.Hits)
	}
}

func TestRedisWritesSwallowFailures(t *testing.T) {
	r := newBrokenRedis()
	ctx := context.Background()

	// None of these may panic or block; failures are logged and dropped
	r.Set(ctx, "user:1:8", []int64{1, 2, 3}, time.Minute)
	r.Delete(ctx, "user:1:8")
	r.Clear(ctx)
}

func TestRedisBreakerOpensAfterFailures(t *testing.T) {
	r := newBrokenRedis()
	ctx := context.Background()

	if r.State() != gobreaker.StateClosed {
		t.Fatalf("Expected breaker closed at start, got %v", r.State())
	}

	// Trip threshold: 10 requests at >= 60% failure rate
	for i := 0; i < 10; i++ {
		r.Get(ctx, "user:1:8")
	}

	if r.State() != gobreaker.StateOpen {
		t.Errorf("Expected breaker open after 10 failures, got %v", r.State())
	}

	// Rejected requests are still plain misses
	if _, ok := r.Get(ctx, "user:1:8"); ok {
		t.Error("Expected miss while circuit is open")
	}
	if r.State() != gobreaker.StateOpen {
		t.Errorf("Expected breaker to stay open, got %v", r.State())
	}
}

func TestRedisStorageKey(t *testing.T) {
	r := &Redis{prefix: "mercatus:"}

	// Short keys pass through with the prefix
	if got := r.storageKey("user:1:8"); got != "mercatus:user:1:8" {
		t.Errorf("storageKey(short) = %q", got)
	}

	// Oversized keys collapse to a bounded, stable hash
	long := "session:" + strings.Repeat("x", 300) + ":8"
	hashed := r.storageKey(long)
	if len(hashed) >= len("mercatus:")+len(long) {
		t.Errorf("Expected oversized key to shrink, got %d bytes", len(hashed))
	}
	if !strings.HasPrefix(hashed, "mercatus:") {
		t.Errorf("Expected prefix on hashed key, got %q", hashed)
	}
	if again := r.storageKey(long); again != hashed {
		t.Error("Expected deterministic hashing for the same key")
	}

	other := "session:" + strings.Repeat("y", 300) + ":8"
	if r.storageKey(other) == hashed {
		t.Error("Expected different oversized keys to hash differently")
	}
}

func TestRedisHitRateEmpty(t *testing.T) {
	r := &Redis{}

	if rate := r.HitRate(); rate != 0.0 {
		t.Errorf("Expected 0%% hit rate with no traffic, got %.2f%%", rate)
	}
}

func TestIsBreakerRejection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"open state", gobreaker.ErrOpenState, true},
		{"too many requests", gobreaker.ErrTooManyRequests, true},
		{"wrapped open state", fmt.Errorf("cache: %w", gobreaker.ErrOpenState), true},
		{"redis failure", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBreakerRejection(tt.err); got != tt.want {
				t.Errorf("isBreakerRejection(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStateToString(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  string
	}{
		{gobreaker.StateClosed, "closed"},
		{gobreaker.StateHalfOpen, "half-open"},
		{gobreaker.StateOpen, "open"},
		{gobreaker.State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := stateToString(tt.state); got != tt.want {
			t.Errorf("stateToString(%v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStateToFloat(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
		{gobreaker.State(99), -1},
	}

	for _, tt := range tests {
		if got := stateToFloat(tt.state); got != tt.want {
			t.Errorf("stateToFloat(%v) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

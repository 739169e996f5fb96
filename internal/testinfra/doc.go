// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// providing realistic testing environments that closely match production.
//
// # Redis Container
//
// The RedisContainer provides a real Redis instance for testing the redis cache backend:
//
//	func TestRedisCacher(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//
//	    ctx := context.Background()
//	    rc, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer rc.Terminate(ctx)
//
//	    cacher, err := cache.NewCacher(cache.Config{
//	        Backend: cache.BackendRedis,
//	        Redis:   cache.RedisConfig{Addr: rc.Addr},
//	    })
//	    // Test against real Redis semantics: TTL expiry, SCAN-based clear, ...
//	}
//
// # Benefits Over Mocks
//
// Using real containers provides several advantages:
//   - Tests validate actual wire behavior (serialization, TTLs, SCAN)
//   - No mock drift (mocks getting out of sync with the real backend)
//   - Tests run against production-equivalent services
//
// # CI Considerations
//
// These tests require Docker and are guarded by the integration build tag:
//   - go test -tags=integration ./...
//   - Tests are skipped gracefully if Docker is unavailable
//
// # Network Requirements
//
// First run may need to download container images. Subsequent runs use cached images.
package testinfra

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements comprehensive application instrumentation using the Prometheus
client library, exposing metrics for monitoring performance, errors, and system health.

# Overview

The package provides metrics for:
  - Recommendation serving latency and outcomes
  - Candidate generator durations and degradations
  - View event ingestion
  - Database query performance
  - API endpoint latency and throughput
  - Cache hit/miss rates
  - Circuit breaker state transitions

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8880/metrics

# Available Metrics

Recommendation Metrics:
  - recommendation_requests_total: Served recommendation requests (counter)
    Labels: operation, outcome (ok, fallback, empty)
  - recommendation_duration_seconds: End-to-end serving latency (histogram)
    Labels: operation
    Buckets: .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1
  - recommendation_generator_duration_seconds: Generator run duration (histogram)
    Labels: generator
  - recommendation_generator_degradations_total: Generator degradations (counter)
    Labels: generator, reason

View Tracking Metrics:
  - product_views_tracked_total: Persisted view events (counter)
  - product_views_failed_total: Rejected or failed view events (counter)
    Labels: reason (invalid_viewer, invalid_product, upsert_error)
  - product_view_upsert_duration_seconds: View upsert latency (histogram)

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type
  - duckdb_connection_pool_size: Connections in use (gauge)

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
    Buckets: .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Cache Metrics:
  - cache_hits_total: Cache hits (counter)
    Labels: backend (memory, redis)
  - cache_misses_total: Cache misses (counter)
    Labels: backend
  - cache_entries: Current cached entries (gauge)
    Labels: backend
  - cache_evictions_total: TTL evictions (counter)
    Labels: backend
  - cache_errors_total: Backend errors (counter)
    Labels: backend, operation

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests through breaker (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_consecutive_failures: Consecutive failures (gauge)
    Labels: name
  - circuit_breaker_state_transitions_total: State transitions (counter)
    Labels: name, from_state, to_state

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/tomtom215/mercatus/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    // Register metrics endpoint
	    http.Handle("/metrics", promhttp.Handler())

	    // Record metrics
	    metrics.RecordRecommendation("personalized", "ok")
	    metrics.ObserveRecommendationDuration("personalized", 0.012)
	    metrics.RecordDBQuery("SELECT", "products", 5*time.Millisecond, nil)
	}

Recording query metrics in a data provider:

	func (p *Provider) BestSellingProducts(ctx context.Context, limit int) ([]recommend.Product, error) {
	    start := time.Now()
	    rows, err := p.db.QueryContext(ctx, query, limit)
	    metrics.RecordDBQuery("SELECT", "order_items", time.Since(start), err)
	    ...
	}

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'mercatus'
	    static_configs:
	      - targets: ['localhost:8880']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

# Grafana Dashboards

The metrics support Grafana dashboards with panels for:

  - Recommendation rate and outcome ratio (ok vs fallback vs empty)
  - Serving latency (p50, p95, p99 percentiles)
  - Generator degradation rate by reason
  - Database query performance (duration distribution)
  - Cache hit rate per backend
  - Circuit breaker state visualization

Example PromQL queries:

	# Recommendation request rate
	rate(recommendation_requests_total[5m])

	# Fallback ratio
	sum(rate(recommendation_requests_total{outcome="fallback"}[5m])) / sum(rate(recommendation_requests_total[5m]))

	# Serving p95 latency
	histogram_quantile(0.95, rate(recommendation_duration_seconds_bucket[5m]))

	# Cache hit rate
	sum(rate(cache_hits_total[5m])) / (sum(rate(cache_hits_total[5m])) + sum(rate(cache_misses_total[5m])))

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

To prevent high cardinality issues:

  - Operation, generator, and reason labels come from fixed constants
  - Endpoint labels use route patterns, never raw paths with IDs
  - Database error types are truncated to 50 characters
  - User and session identifiers are never used as labels

# See Also

  - internal/api: HTTP middleware with metrics integration
  - internal/database: Database metrics recording
  - internal/cache: Cache backend metrics recording
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
  - https://prometheus.io/docs/practices/instrumentation/: Instrumentation guide
*/
package metrics

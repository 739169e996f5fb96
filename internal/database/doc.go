// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

// Package database provides DuckDB-backed storage for the Mercatus
// recommendation engine.
//
// # Overview
//
// This package is the data layer between the recommendation engine and
// DuckDB. It owns the marketplace read schema (catalog, orders, reviews,
// views), the view-event write path, and the candidate queries the engine's
// generators run.
//
// # Architecture
//
// The package is organized into a small set of files:
//
//   - database.go: Core database lifecycle (connection, initialization, cleanup)
//   - schema.go: Table creation and index management
//   - provider.go: Engine-facing queries (recommend.DataProvider, recommend.ViewStore)
//   - seed.go: Deterministic mock catalog for local development
//   - errors.go: Resource cleanup helpers
//
// # Database Technology
//
// The package uses DuckDB as its storage engine:
//   - OLAP-friendly for the aggregation-heavy candidate queries
//     (best sellers, co-purchase counts, neighbor overlap)
//   - Advanced SQL features (CTEs, ON CONFLICT upserts)
//   - CGO-based driver (github.com/duckdb/duckdb-go/v2)
//
// # Key Queries
//
// Candidate generation:
//   - Best sellers by units sold across order items
//   - Co-purchase counts from shared orders
//   - Purchase-overlap neighbors for collaborative filtering
//   - Category/store/price-band filtered catalog scans
//
// View tracking:
//   - Deduplicated per-viewer view counters with ON CONFLICT upserts
//   - Denormalized product view counts bumped in the same transaction
//
// # Usage Example
//
//	cfg := &config.DatabaseConfig{Path: "/data/mercatus.duckdb", MaxMemory: "2GB"}
//	db, err := database.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	provider := database.NewProvider(db)
//	svc, err := recommend.NewService(provider, provider, cache, engineCfg, logger)
//
// # See Also
//
//   - internal/recommend: the engine consuming this package's queries
//   - internal/config: DatabaseConfig and its environment variables
package database

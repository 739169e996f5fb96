// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

/*
schema.go - Database Schema Management

This file manages the DuckDB database schema including table creation
and index management for the recommendation read paths.

Tables:
  - categories: Product taxonomy (category per product, nullable on product)
  - stores: Marketplace sellers
  - products: Catalog with list price, active flag, and denormalized view count
  - product_variants: Per-product purchasable variants; the cheapest active
    variant price is the product's effective price
  - orders: Order headers with lifecycle status
  - order_items: Order lines referencing products and optional variants
  - reviews: User ratings (1-5) with moderation approval flag
  - product_views: Deduplicated view counters per (user, product) or
    (session, product), exactly one owner per row

Schema Strategy (Pre-Release):
All columns are defined in the initial CREATE TABLE statement. This provides:
  - Single source of truth for the complete schema
  - Faster startup (no migrations to run)
  - Cleaner codebase

Index Strategy:
Indexes are created for:
  - Candidate generation filters (category, store, active + view count)
  - Order traversal in both directions (order -> items, product -> orders)
  - Review aggregation (product + approval)
  - View recency lookups per user and per session
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getTableCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	return []string{
		// Catalog taxonomy
		`CREATE TABLE IF NOT EXISTS categories (
			category_id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE
		)`,

		// Marketplace sellers
		`CREATE TABLE IF NOT EXISTS stores (
			store_id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			is_verified BOOLEAN NOT NULL DEFAULT false
		)`,

		// Product catalog
		// category_id is nullable: uncategorized products are legal and
		// simply contribute no category signal.
		// view_count is denormalized from product_views for cheap
		// popularity ordering.
		`CREATE TABLE IF NOT EXISTS products (
			product_id BIGINT PRIMARY KEY,
			store_id BIGINT NOT NULL,
			category_id BIGINT,
			name TEXT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			view_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		// Purchasable variants; MIN(active variant price) overrides the
		// product list price as the effective price.
		`CREATE TABLE IF NOT EXISTS product_variants (
			variant_id BIGINT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			variant_name TEXT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			stock INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT true
		)`,

		// Order lifecycle: pending -> waiting_pickup -> shipping ->
		// delivered, or cancelled.
		`CREATE TABLE IF NOT EXISTS orders (
			order_id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('pending', 'waiting_pickup', 'shipping', 'delivered', 'cancelled')),
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		// Order lines
		`CREATE TABLE IF NOT EXISTS order_items (
			order_item_id BIGINT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			variant_id BIGINT,
			quantity INTEGER NOT NULL DEFAULT 1,
			unit_price DECIMAL(10,2) NOT NULL
		)`,

		// Product reviews; only approved reviews feed quality scoring.
		`CREATE TABLE IF NOT EXISTS reviews (
			review_id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			is_approved BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		// View ledger: one row per (user, product) or (session, product).
		// Exactly one of user_id/session_key is set; repeat views bump
		// view_count and refresh last_viewed instead of inserting.
		// The UNIQUE constraints double as the ON CONFLICT targets for
		// the upsert paths.
		`CREATE TABLE IF NOT EXISTS product_views (
			view_id UUID PRIMARY KEY,
			user_id BIGINT,
			session_key TEXT,
			product_id BIGINT NOT NULL,
			view_count BIGINT NOT NULL DEFAULT 1,
			last_viewed TIMESTAMP NOT NULL DEFAULT current_timestamp,
			UNIQUE (user_id, product_id),
			UNIQUE (session_key, product_id),
			CHECK ((user_id IS NULL) != (session_key IS NULL))
		)`,
	}
}

// createIndexes creates all database indexes
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := db.getIndexQueries()

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}

	return nil
}

// getIndexQueries returns index creation SQL statements
func (db *DB) getIndexQueries() []string {
	return []string{
		// Candidate generation filters
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);`,
		`CREATE INDEX IF NOT EXISTS idx_products_store ON products(store_id);`,
		`CREATE INDEX IF NOT EXISTS idx_products_active_views ON products(is_active, view_count DESC);`,

		// Effective-price variant lookup
		`CREATE INDEX IF NOT EXISTS idx_variants_product ON product_variants(product_id);`,

		// Order traversal
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);`,

		// Review aggregation
		`CREATE INDEX IF NOT EXISTS idx_reviews_product_approved ON reviews(product_id, is_approved);`,

		// View recency lookups
		`CREATE INDEX IF NOT EXISTS idx_views_user ON product_views(user_id, last_viewed DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_views_session ON product_views(session_key, last_viewed DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_views_product ON product_views(product_id);`,
	}
}

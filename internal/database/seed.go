// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tomtom215/mercatus/internal/logging"
)

// SeedMockData populates the database with a small deterministic catalog
// for local development and API smoke testing. The data is shaped so every
// recommendation path has signal: co-purchased bundles, purchase overlap
// between users, variant discounts, moderated reviews, and view history for
// both users and anonymous sessions.
//
// Seeding is skipped when the catalog already has products, so it is safe
// to leave enabled across restarts.
func (db *DB) SeedMockData(ctx context.Context) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var productCount int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&productCount); err != nil {
		return fmt.Errorf("check existing catalog: %w", err)
	}
	if productCount > 0 {
		logging.Info().Int64("products", productCount).Msg("Catalog already populated, skipping mock seed")
		return nil
	}

	logging.Info().Msg("Seeding database with mock catalog data...")

	if err := db.seedCatalog(ctx); err != nil {
		return err
	}
	if err := db.seedOrders(ctx); err != nil {
		return err
	}
	if err := db.seedReviews(ctx); err != nil {
		return err
	}
	if err := db.seedViews(ctx); err != nil {
		return err
	}

	logging.Info().Msg("Mock data seeded successfully")
	return nil
}

func (db *DB) seedCatalog(ctx context.Context) error {
	categories := []struct {
		id   int64
		name string
		slug string
	}{
		{1, "Electronics", "electronics"},
		{2, "Books", "books"},
		{3, "Home & Kitchen", "home-kitchen"},
		{4, "Toys & Games", "toys-games"},
	}

	for _, c := range categories {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO categories (category_id, name, slug) VALUES (?, ?, ?)`,
			c.id, c.name, c.slug); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.slug, err)
		}
	}
	logging.Info().Int("count", len(categories)).Msg("Created categories")

	stores := []struct {
		id       int64
		name     string
		verified bool
	}{
		{1, "Volt Electronics", true},
		{2, "Page & Co", true},
		{3, "Hearth Home Goods", false},
		{4, "Brightside Toys", false},
	}

	for _, s := range stores {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO stores (store_id, name, is_verified) VALUES (?, ?, ?)`,
			s.id, s.name, s.verified); err != nil {
			return fmt.Errorf("failed to seed store %s: %w", s.name, err)
		}
	}
	logging.Info().Int("count", len(stores)).Msg("Created stores")

	// categoryID 0 means uncategorized and is stored as NULL.
	products := []struct {
		id         int64
		storeID    int64
		categoryID int64
		name       string
		price      float64
		active     bool
		views      int64
	}{
		{1, 1, 1, "Wireless Earbuds", 79.90, true, 5200},
		{2, 1, 1, "Mechanical Keyboard", 129.00, true, 3100},
		{3, 1, 1, "USB-C Charging Hub", 45.50, true, 1800},
		{4, 1, 1, "Smart Speaker", 99.00, true, 2500},
		{5, 1, 1, "Legacy MP3 Player", 59.00, false, 4000},
		{6, 2, 2, "The Silent Harbor", 18.50, true, 900},
		{7, 2, 2, "Gardens of Glass", 22.00, true, 450},
		{8, 2, 2, "A Field Guide to Stars", 31.75, true, 1200},
		{9, 3, 3, "Cast Iron Skillet", 54.00, true, 2100},
		{10, 3, 3, "French Press", 38.25, true, 1600},
		{11, 3, 3, "Linen Apron", 29.90, true, 300},
		{12, 4, 4, "Wooden Block Set", 42.00, true, 700},
		{13, 4, 4, "Puzzle: World Map", 19.95, true, 1100},
		{14, 4, 4, "Plush Fox", 16.50, true, 950},
		{15, 3, 0, "Gift Card", 25.00, true, 150},
	}

	for _, p := range products {
		var categoryID any
		if p.categoryID > 0 {
			categoryID = p.categoryID
		}
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO products (product_id, store_id, category_id, name, price, is_active, view_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.id, p.storeID, categoryID, p.name, p.price, p.active, p.views); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.name, err)
		}
	}
	logging.Info().Int("count", len(products)).Msg("Created products")

	variants := []struct {
		id        int64
		productID int64
		name      string
		price     float64
		stock     int
		active    bool
	}{
		{101, 1, "Black", 79.90, 120, true},
		{102, 1, "White", 74.90, 45, true},
		{103, 1, "Red", 69.90, 0, false},
		{104, 9, "10-inch", 54.00, 30, true},
		{105, 9, "12-inch", 63.00, 22, true},
		{106, 12, "50-piece", 42.00, 60, true},
		{107, 12, "100-piece", 68.00, 15, true},
	}

	for _, v := range variants {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO product_variants (variant_id, product_id, variant_name, price, stock, is_active)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			v.id, v.productID, v.name, v.price, v.stock, v.active); err != nil {
			return fmt.Errorf("failed to seed variant %s: %w", v.name, err)
		}
	}
	logging.Info().Int("count", len(variants)).Msg("Created product variants")

	return nil
}

func (db *DB) seedOrders(ctx context.Context) error {
	orders := []struct {
		id     int64
		userID int64
		status string
	}{
		{1001, 1, "delivered"},
		{1002, 1, "delivered"},
		{1003, 2, "delivered"},
		{1004, 2, "shipping"},
		{1005, 3, "delivered"},
		{1006, 3, "cancelled"},
		{1007, 4, "delivered"},
		{1008, 5, "pending"},
		{1009, 5, "delivered"},
		{1010, 6, "waiting_pickup"},
	}

	for _, o := range orders {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO orders (order_id, user_id, status) VALUES (?, ?, ?)`,
			o.id, o.userID, o.status); err != nil {
			return fmt.Errorf("failed to seed order %d: %w", o.id, err)
		}
	}
	logging.Info().Int("count", len(orders)).Msg("Created orders")

	// variantID 0 means the order line has no variant and is stored NULL.
	items := []struct {
		id        int64
		orderID   int64
		productID int64
		variantID int64
		quantity  int
		unitPrice float64
	}{
		{2001, 1001, 1, 101, 1, 79.90},
		{2002, 1001, 3, 0, 1, 45.50},
		{2003, 1002, 6, 0, 1, 18.50},
		{2004, 1003, 1, 102, 1, 74.90},
		{2005, 1003, 4, 0, 1, 99.00},
		{2006, 1004, 9, 104, 1, 54.00},
		{2007, 1005, 1, 101, 2, 79.90},
		{2008, 1005, 3, 0, 1, 45.50},
		{2009, 1006, 13, 0, 1, 19.95},
		{2010, 1007, 9, 105, 1, 63.00},
		{2011, 1007, 10, 0, 1, 38.25},
		{2012, 1007, 11, 0, 1, 29.90},
		{2013, 1008, 12, 106, 1, 42.00},
		{2014, 1009, 6, 0, 1, 18.50},
		{2015, 1009, 7, 0, 1, 22.00},
		{2016, 1010, 14, 0, 3, 16.50},
	}

	for _, it := range items {
		var variantID any
		if it.variantID > 0 {
			variantID = it.variantID
		}
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO order_items (order_item_id, order_id, product_id, variant_id, quantity, unit_price)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			it.id, it.orderID, it.productID, variantID, it.quantity, it.unitPrice); err != nil {
			return fmt.Errorf("failed to seed order item %d: %w", it.id, err)
		}
	}
	logging.Info().Int("count", len(items)).Msg("Created order items")

	return nil
}

func (db *DB) seedReviews(ctx context.Context) error {
	reviews := []struct {
		id        int64
		userID    int64
		productID int64
		rating    int
		approved  bool
	}{
		{3001, 1, 1, 5, true},
		{3002, 2, 1, 4, true},
		{3003, 3, 1, 2, false},
		{3004, 4, 9, 5, true},
		{3005, 1, 6, 4, true},
		{3006, 5, 7, 3, false},
		{3007, 2, 4, 4, true},
	}

	for _, r := range reviews {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO reviews (review_id, user_id, product_id, rating, is_approved)
			 VALUES (?, ?, ?, ?, ?)`,
			r.id, r.userID, r.productID, r.rating, r.approved); err != nil {
			return fmt.Errorf("failed to seed review %d: %w", r.id, err)
		}
	}
	logging.Info().Int("count", len(reviews)).Msg("Created reviews")

	return nil
}

func (db *DB) seedViews(ctx context.Context) error {
	now := time.Now()

	// userID 0 marks a session view, sessionKey "" a user view.
	views := []struct {
		userID     int64
		sessionKey string
		productID  int64
		count      int64
		age        time.Duration
	}{
		{1, "", 2, 3, 2 * time.Minute},
		{1, "", 4, 1, 10 * time.Minute},
		{1, "", 6, 2, time.Hour},
		{2, "", 9, 1, 5 * time.Minute},
		{0, "seed-session-1", 13, 2, 3 * time.Minute},
		{0, "seed-session-1", 12, 1, 30 * time.Minute},
		{0, "seed-session-2", 1, 1, time.Minute},
	}

	for _, v := range views {
		var userID, sessionKey any
		if v.userID > 0 {
			userID = v.userID
		} else {
			sessionKey = v.sessionKey
		}
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO product_views (view_id, user_id, session_key, product_id, view_count, last_viewed)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New(), userID, sessionKey, v.productID, v.count, now.Add(-v.age)); err != nil {
			return fmt.Errorf("failed to seed view of product %d: %w", v.productID, err)
		}
	}
	logging.Info().Int("count", len(views)).Msg("Created product views")

	return nil
}

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package database

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/tomtom215/mercatus/internal/recommend"
)

// setupSeededProvider builds a provider over the deterministic mock catalog.
// The fixture's shape (bundle orders, purchase overlap, variant discounts,
// moderated reviews, per-viewer view history) is documented in seed.go.
func setupSeededProvider(t *testing.T) *Provider {
	t.Helper()

	db := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.SeedMockData(ctx); err != nil {
		t.Fatalf("Failed to seed mock data: %v", err)
	}

	return NewProvider(db)
}

func productIDs(products []recommend.Product) []int64 {
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func TestBestSellingProducts(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	products, err := provider.BestSellingProducts(ctx, 5)
	if err != nil {
		t.Fatalf("BestSellingProducts() error = %v", err)
	}

	// Units sold, any status: earbuds 4, plush fox 3, then 2-unit ties
	// broken by product ID.
	want := []int64{1, 14, 3, 6, 9}
	if !reflect.DeepEqual(productIDs(products), want) {
		t.Errorf("BestSellingProducts() IDs = %v, want %v", productIDs(products), want)
	}

	top := products[0]
	if top.Name != "Wireless Earbuds" {
		t.Errorf("top seller name = %q, want %q", top.Name, "Wireless Earbuds")
	}
	// Effective price is the cheapest active variant, not the list price.
	if math.Abs(top.EffectivePrice-74.90) > 1e-9 {
		t.Errorf("top seller effective price = %v, want 74.90", top.EffectivePrice)
	}
	if math.Abs(top.Price-79.90) > 1e-9 {
		t.Errorf("top seller list price = %v, want 79.90", top.Price)
	}
}

func TestMostViewedActive(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("orders by view count", func(t *testing.T) {
		products, err := provider.MostViewedActive(ctx, 3, nil)
		if err != nil {
			t.Fatalf("MostViewedActive() error = %v", err)
		}
		want := []int64{1, 2, 4}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("MostViewedActive() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("applies exclusions", func(t *testing.T) {
		products, err := provider.MostViewedActive(ctx, 3, []int64{1, 2})
		if err != nil {
			t.Fatalf("MostViewedActive() error = %v", err)
		}
		want := []int64{4, 9, 3}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("MostViewedActive() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("omits inactive products", func(t *testing.T) {
		products, err := provider.MostViewedActive(ctx, 50, nil)
		if err != nil {
			t.Fatalf("MostViewedActive() error = %v", err)
		}
		if len(products) != 14 {
			t.Errorf("active product count = %d, want 14", len(products))
		}
		for _, p := range products {
			// The retired MP3 player has the second-highest view count
			// but must never surface.
			if p.ID == 5 {
				t.Error("MostViewedActive() returned inactive product 5")
			}
		}
	})
}

func TestActiveByCategories(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("category filter", func(t *testing.T) {
		products, err := provider.ActiveByCategories(ctx, []int64{1}, 0, 0, nil, 10)
		if err != nil {
			t.Fatalf("ActiveByCategories() error = %v", err)
		}
		want := []int64{1, 2, 4, 3}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("ActiveByCategories() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("price bounds use effective price", func(t *testing.T) {
		// Earbuds list at 79.90 but their cheapest active variant is
		// 74.90, so an 80 upper bound keeps them.
		products, err := provider.ActiveByCategories(ctx, []int64{1}, 40, 80, nil, 10)
		if err != nil {
			t.Fatalf("ActiveByCategories() error = %v", err)
		}
		want := []int64{1, 3}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("ActiveByCategories() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("lower bound only", func(t *testing.T) {
		products, err := provider.ActiveByCategories(ctx, []int64{3}, 40, 0, nil, 10)
		if err != nil {
			t.Fatalf("ActiveByCategories() error = %v", err)
		}
		want := []int64{9}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("ActiveByCategories() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("multiple categories", func(t *testing.T) {
		products, err := provider.ActiveByCategories(ctx, []int64{2, 3}, 0, 0, nil, 10)
		if err != nil {
			t.Fatalf("ActiveByCategories() error = %v", err)
		}
		want := []int64{9, 10, 8, 6, 7, 11}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("ActiveByCategories() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("empty category set means no filter", func(t *testing.T) {
		products, err := provider.ActiveByCategories(ctx, nil, 0, 0, nil, 50)
		if err != nil {
			t.Fatalf("ActiveByCategories() error = %v", err)
		}
		if len(products) != 14 {
			t.Errorf("unfiltered active count = %d, want 14", len(products))
		}
	})

	t.Run("applies exclusions", func(t *testing.T) {
		products, err := provider.ActiveByCategories(ctx, []int64{1}, 0, 0, []int64{1, 2}, 10)
		if err != nil {
			t.Fatalf("ActiveByCategories() error = %v", err)
		}
		want := []int64{4, 3}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("ActiveByCategories() IDs = %v, want %v", productIDs(products), want)
		}
	})
}

func TestProductsByIDs(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("resolves existing and drops missing", func(t *testing.T) {
		products, err := provider.ProductsByIDs(ctx, []int64{1, 5, 999})
		if err != nil {
			t.Fatalf("ProductsByIDs() error = %v", err)
		}

		ids := productIDs(products)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		want := []int64{1, 5}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("ProductsByIDs() IDs = %v, want %v", ids, want)
		}

		for _, p := range products {
			if p.ID == 5 && p.IsActive {
				t.Error("product 5 IsActive = true, want false (lookup must not filter)")
			}
		}
	})

	t.Run("empty input skips the query", func(t *testing.T) {
		products, err := provider.ProductsByIDs(ctx, nil)
		if err != nil {
			t.Fatalf("ProductsByIDs() error = %v", err)
		}
		if len(products) != 0 {
			t.Errorf("ProductsByIDs(nil) = %v, want empty", products)
		}
	})
}

func TestSimilarByCategoryAndStore(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("union of category and store", func(t *testing.T) {
		anchor := recommend.Product{ID: 9, CategoryID: 3, StoreID: 3}
		products, err := provider.SimilarByCategoryAndStore(ctx, anchor, 10)
		if err != nil {
			t.Fatalf("SimilarByCategoryAndStore() error = %v", err)
		}
		// Same category or store as the skillet: its home-goods
		// neighbors plus the store's uncategorized gift card.
		want := []int64{10, 11, 15}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("SimilarByCategoryAndStore() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("uncategorized anchor matches by store alone", func(t *testing.T) {
		anchor := recommend.Product{ID: 15, CategoryID: 0, StoreID: 3}
		products, err := provider.SimilarByCategoryAndStore(ctx, anchor, 10)
		if err != nil {
			t.Fatalf("SimilarByCategoryAndStore() error = %v", err)
		}
		want := []int64{9, 10, 11}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("SimilarByCategoryAndStore() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("anchor never recommends itself", func(t *testing.T) {
		anchor := recommend.Product{ID: 1, CategoryID: 1, StoreID: 1}
		products, err := provider.SimilarByCategoryAndStore(ctx, anchor, 10)
		if err != nil {
			t.Fatalf("SimilarByCategoryAndStore() error = %v", err)
		}
		for _, p := range products {
			if p.ID == anchor.ID {
				t.Error("SimilarByCategoryAndStore() returned the anchor itself")
			}
		}
	})
}

func TestCoPurchasedWith(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("ranks by shared order count", func(t *testing.T) {
		products, err := provider.CoPurchasedWith(ctx, 1, 10)
		if err != nil {
			t.Fatalf("CoPurchasedWith() error = %v", err)
		}
		// The charging hub shares two orders with the earbuds, the
		// smart speaker one.
		want := []int64{3, 4}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("CoPurchasedWith() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("product never ordered", func(t *testing.T) {
		products, err := provider.CoPurchasedWith(ctx, 15, 10)
		if err != nil {
			t.Fatalf("CoPurchasedWith() error = %v", err)
		}
		if len(products) != 0 {
			t.Errorf("CoPurchasedWith() = %v, want empty", productIDs(products))
		}
	})
}

func TestUserOrderedProductIDs(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("distinct across orders", func(t *testing.T) {
		ids, err := provider.UserOrderedProductIDs(ctx, 1)
		if err != nil {
			t.Fatalf("UserOrderedProductIDs() error = %v", err)
		}
		want := []int64{1, 3, 6}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("UserOrderedProductIDs() = %v, want %v", ids, want)
		}
	})

	t.Run("includes cancelled orders", func(t *testing.T) {
		ids, err := provider.UserOrderedProductIDs(ctx, 3)
		if err != nil {
			t.Fatalf("UserOrderedProductIDs() error = %v", err)
		}
		want := []int64{1, 3, 13}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("UserOrderedProductIDs() = %v, want %v", ids, want)
		}
	})

	t.Run("user without orders", func(t *testing.T) {
		ids, err := provider.UserOrderedProductIDs(ctx, 99)
		if err != nil {
			t.Fatalf("UserOrderedProductIDs() error = %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("UserOrderedProductIDs() = %v, want empty", ids)
		}
	})
}

func TestUserDeliveredProductIDs(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("delivered only", func(t *testing.T) {
		ids, err := provider.UserDeliveredProductIDs(ctx, 3)
		if err != nil {
			t.Fatalf("UserDeliveredProductIDs() error = %v", err)
		}
		// The cancelled puzzle order must not count.
		want := []int64{1, 3}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("UserDeliveredProductIDs() = %v, want %v", ids, want)
		}
	})

	t.Run("undelivered user", func(t *testing.T) {
		ids, err := provider.UserDeliveredProductIDs(ctx, 6)
		if err != nil {
			t.Fatalf("UserDeliveredProductIDs() error = %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("UserDeliveredProductIDs() = %v, want empty", ids)
		}
	})
}

func TestDeliveredProducts(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	products, err := provider.DeliveredProducts(ctx, 4)
	if err != nil {
		t.Fatalf("DeliveredProducts() error = %v", err)
	}

	want := []int64{9, 10, 11}
	if !reflect.DeepEqual(productIDs(products), want) {
		t.Errorf("DeliveredProducts() IDs = %v, want %v", productIDs(products), want)
	}

	if math.Abs(products[0].EffectivePrice-54.00) > 1e-9 {
		t.Errorf("skillet effective price = %v, want 54.00", products[0].EffectivePrice)
	}
}

func TestNeighborsByOverlap(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("ranks by shared product count", func(t *testing.T) {
		ids, err := provider.NeighborsByOverlap(ctx, 1, 10)
		if err != nil {
			t.Fatalf("NeighborsByOverlap() error = %v", err)
		}
		// User 3 shares two products with user 1, users 2 and 5 one
		// each; zero-overlap users never appear.
		want := []int64{3, 2, 5}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("NeighborsByOverlap() = %v, want %v", ids, want)
		}
	})

	t.Run("user without orders has no neighbors", func(t *testing.T) {
		ids, err := provider.NeighborsByOverlap(ctx, 99, 10)
		if err != nil {
			t.Fatalf("NeighborsByOverlap() error = %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("NeighborsByOverlap() = %v, want empty", ids)
		}
	})
}

func TestProductsOrderedByUsers(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("ranks neighbor products with exclusions", func(t *testing.T) {
		products, err := provider.ProductsOrderedByUsers(ctx, []int64{2, 3, 5}, []int64{1, 3, 6}, 10)
		if err != nil {
			t.Fatalf("ProductsOrderedByUsers() error = %v", err)
		}
		want := []int64{4, 7, 9, 12, 13}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("ProductsOrderedByUsers() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("empty user set skips the query", func(t *testing.T) {
		products, err := provider.ProductsOrderedByUsers(ctx, nil, nil, 10)
		if err != nil {
			t.Fatalf("ProductsOrderedByUsers() error = %v", err)
		}
		if len(products) != 0 {
			t.Errorf("ProductsOrderedByUsers(nil) = %v, want empty", products)
		}
	})
}

func TestRecentViewedProducts(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("user views most recent first", func(t *testing.T) {
		products, err := provider.RecentViewedProducts(ctx, recommend.Viewer{UserID: 1}, 10)
		if err != nil {
			t.Fatalf("RecentViewedProducts() error = %v", err)
		}
		want := []int64{2, 4, 6}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("RecentViewedProducts() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("session views most recent first", func(t *testing.T) {
		products, err := provider.RecentViewedProducts(ctx, recommend.Viewer{SessionKey: "seed-session-1"}, 10)
		if err != nil {
			t.Fatalf("RecentViewedProducts() error = %v", err)
		}
		want := []int64{13, 12}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("RecentViewedProducts() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		products, err := provider.RecentViewedProducts(ctx, recommend.Viewer{SessionKey: "never-seen"}, 10)
		if err != nil {
			t.Fatalf("RecentViewedProducts() error = %v", err)
		}
		if len(products) != 0 {
			t.Errorf("RecentViewedProducts() = %v, want empty", productIDs(products))
		}
	})
}

func TestApprovedRatingAverages(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	t.Run("averages approved reviews only", func(t *testing.T) {
		averages, err := provider.ApprovedRatingAverages(ctx, []int64{1, 9, 7, 15})
		if err != nil {
			t.Fatalf("ApprovedRatingAverages() error = %v", err)
		}

		if math.Abs(averages[1]-4.5) > 1e-9 {
			t.Errorf("average for product 1 = %v, want 4.5 (unapproved review excluded)", averages[1])
		}
		if math.Abs(averages[9]-5.0) > 1e-9 {
			t.Errorf("average for product 9 = %v, want 5.0", averages[9])
		}
		if _, ok := averages[7]; ok {
			t.Error("product 7 present, want absent (only unapproved reviews)")
		}
		if _, ok := averages[15]; ok {
			t.Error("product 15 present, want absent (no reviews)")
		}
	})

	t.Run("empty input skips the query", func(t *testing.T) {
		averages, err := provider.ApprovedRatingAverages(ctx, nil)
		if err != nil {
			t.Fatalf("ApprovedRatingAverages() error = %v", err)
		}
		if len(averages) != 0 {
			t.Errorf("ApprovedRatingAverages(nil) = %v, want empty", averages)
		}
	})
}

func TestUpsertView(t *testing.T) {
	provider := setupSeededProvider(t)
	ctx := context.Background()

	viewRow := func(t *testing.T, where string, args ...any) (count int64, rows int64) {
		t.Helper()
		err := provider.db.Conn().QueryRowContext(ctx,
			`SELECT CAST(COALESCE(SUM(view_count), 0) AS BIGINT), COUNT(*) FROM product_views WHERE `+where,
			args...).Scan(&count, &rows)
		if err != nil {
			t.Fatalf("query view row: %v", err)
		}
		return count, rows
	}

	productViews := func(t *testing.T, productID int64) int64 {
		t.Helper()
		var views int64
		err := provider.db.Conn().QueryRowContext(ctx,
			`SELECT view_count FROM products WHERE product_id = ?`, productID).Scan(&views)
		if err != nil {
			t.Fatalf("query product views: %v", err)
		}
		return views
	}

	t.Run("repeat user views dedupe into one row", func(t *testing.T) {
		before := productViews(t, 2)

		viewer := recommend.Viewer{UserID: 7}
		if err := provider.UpsertView(ctx, viewer, 2); err != nil {
			t.Fatalf("UpsertView() error = %v", err)
		}
		if err := provider.UpsertView(ctx, viewer, 2); err != nil {
			t.Fatalf("UpsertView() repeat error = %v", err)
		}

		count, rows := viewRow(t, "user_id = ? AND product_id = ?", int64(7), int64(2))
		if rows != 1 {
			t.Errorf("view rows = %d, want 1 (upsert must not duplicate)", rows)
		}
		if count != 2 {
			t.Errorf("view count = %d, want 2", count)
		}

		if got := productViews(t, 2); got != before+2 {
			t.Errorf("product view count = %d, want %d", got, before+2)
		}
	})

	t.Run("session views dedupe independently", func(t *testing.T) {
		viewer := recommend.Viewer{SessionKey: "test-session"}
		if err := provider.UpsertView(ctx, viewer, 2); err != nil {
			t.Fatalf("UpsertView() error = %v", err)
		}
		if err := provider.UpsertView(ctx, viewer, 2); err != nil {
			t.Fatalf("UpsertView() repeat error = %v", err)
		}

		count, rows := viewRow(t, "session_key = ? AND product_id = ?", "test-session", int64(2))
		if rows != 1 {
			t.Errorf("view rows = %d, want 1", rows)
		}
		if count != 2 {
			t.Errorf("view count = %d, want 2", count)
		}
	})

	t.Run("repeat view refreshes recency", func(t *testing.T) {
		viewer := recommend.Viewer{UserID: 2}

		// User 2 has a seeded view of the skillet. A new view of the
		// french press then a fresh skillet view must reorder recency.
		if err := provider.UpsertView(ctx, viewer, 10); err != nil {
			t.Fatalf("UpsertView() error = %v", err)
		}
		time.Sleep(5 * time.Millisecond)
		if err := provider.UpsertView(ctx, viewer, 9); err != nil {
			t.Fatalf("UpsertView() error = %v", err)
		}

		products, err := provider.RecentViewedProducts(ctx, viewer, 10)
		if err != nil {
			t.Fatalf("RecentViewedProducts() error = %v", err)
		}
		want := []int64{9, 10}
		if !reflect.DeepEqual(productIDs(products), want) {
			t.Errorf("RecentViewedProducts() IDs = %v, want %v", productIDs(products), want)
		}
	})

	t.Run("invalid viewers are rejected", func(t *testing.T) {
		if err := provider.UpsertView(ctx, recommend.Viewer{}, 2); !errors.Is(err, recommend.ErrInvalidViewer) {
			t.Errorf("UpsertView(empty viewer) error = %v, want ErrInvalidViewer", err)
		}

		both := recommend.Viewer{UserID: 7, SessionKey: "x"}
		if err := provider.UpsertView(ctx, both, 2); !errors.Is(err, recommend.ErrInvalidViewer) {
			t.Errorf("UpsertView(both set) error = %v, want ErrInvalidViewer", err)
		}
	})
}

func TestViewerExclusivityConstraint(t *testing.T) {
	db := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The schema enforces exactly one owner even for writes that bypass
	// the provider.
	_, err := db.Conn().ExecContext(ctx, `
		INSERT INTO product_views (view_id, user_id, session_key, product_id)
		VALUES ('10000000-0000-0000-0000-000000000001', 1, 'both-set', 1)
	`)
	if err == nil {
		t.Error("insert with both owners succeeded, want CHECK violation")
	}

	_, err = db.Conn().ExecContext(ctx, `
		INSERT INTO product_views (view_id, product_id)
		VALUES ('10000000-0000-0000-0000-000000000002', 1)
	`)
	if err == nil {
		t.Error("insert with no owner succeeded, want CHECK violation")
	}
}

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tomtom215/mercatus/internal/metrics"
	"github.com/tomtom215/mercatus/internal/recommend"
)

// productColumns is the shared projection for product queries. The alias `p`
// must refer to the products table. Effective price resolves to the cheapest
// active variant, falling back to the list price for variant-less products.
const productColumns = `
	p.product_id,
	p.name,
	COALESCE(p.category_id, 0) AS category_id,
	p.store_id,
	CAST(p.price AS DOUBLE) AS price,
	CAST(COALESCE(
		(SELECT MIN(v.price) FROM product_variants v
		 WHERE v.product_id = p.product_id AND v.is_active),
		p.price) AS DOUBLE) AS effective_price,
	p.view_count,
	p.is_active`

// Provider adapts the database to the recommendation engine's read and
// write interfaces. All product-returning queries serve active products
// only, except ProductsByIDs, which resolves whatever still exists.
type Provider struct {
	db *DB
}

// NewProvider creates a provider backed by db.
func NewProvider(db *DB) *Provider {
	return &Provider{db: db}
}

// Ensure interface compliance.
var (
	_ recommend.DataProvider = (*Provider)(nil)
	_ recommend.ViewStore    = (*Provider)(nil)
)

// BestSellingProducts returns active products ranked by total quantity sold
// across all order items, any order status.
func (p *Provider) BestSellingProducts(ctx context.Context, limit int) ([]recommend.Product, error) {
	query := `
		WITH sales AS (
			SELECT oi.product_id, SUM(oi.quantity) AS units_sold
			FROM order_items oi
			GROUP BY oi.product_id
		)
		SELECT` + productColumns + `
		FROM products p
		JOIN sales s ON s.product_id = p.product_id
		WHERE p.is_active
		ORDER BY s.units_sold DESC, p.product_id
		LIMIT ?
	`

	products, err := p.queryProducts(ctx, "best_selling_products", "order_items", query, limit)
	if err != nil {
		return nil, fmt.Errorf("query best sellers: %w", err)
	}
	return products, nil
}

// MostViewedActive returns active products by view count descending,
// excluding the given product IDs.
func (p *Provider) MostViewedActive(ctx context.Context, limit int, excludeIDs []int64) ([]recommend.Product, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT` + productColumns + `
		FROM products p
		WHERE p.is_active`)

	var args []any
	if len(excludeIDs) > 0 {
		sb.WriteString(` AND p.product_id NOT IN (` + inPlaceholders(len(excludeIDs)) + `)`)
		args = append(args, int64Args(excludeIDs)...)
	}
	sb.WriteString(` ORDER BY p.view_count DESC, p.product_id LIMIT ?`)
	args = append(args, limit)

	products, err := p.queryProducts(ctx, "most_viewed_active", "products", sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query most viewed: %w", err)
	}
	return products, nil
}

// ActiveByCategories returns active products filtered by category set and
// optional effective-price bounds, by view count descending. An empty
// category set means no category filter; zero bounds disable the price
// filter.
func (p *Provider) ActiveByCategories(ctx context.Context, categoryIDs []int64, priceMin, priceMax float64, excludeIDs []int64, limit int) ([]recommend.Product, error) {
	var sb strings.Builder
	sb.WriteString(`
		WITH candidates AS (
			SELECT` + productColumns + `
			FROM products p
			WHERE p.is_active`)

	var args []any
	if len(categoryIDs) > 0 {
		sb.WriteString(` AND p.category_id IN (` + inPlaceholders(len(categoryIDs)) + `)`)
		args = append(args, int64Args(categoryIDs)...)
	}
	if len(excludeIDs) > 0 {
		sb.WriteString(` AND p.product_id NOT IN (` + inPlaceholders(len(excludeIDs)) + `)`)
		args = append(args, int64Args(excludeIDs)...)
	}
	sb.WriteString(`
		)
		SELECT product_id, name, category_id, store_id, price, effective_price, view_count, is_active
		FROM candidates
		WHERE 1=1`)
	if priceMin > 0 {
		sb.WriteString(` AND effective_price >= ?`)
		args = append(args, priceMin)
	}
	if priceMax > 0 {
		sb.WriteString(` AND effective_price <= ?`)
		args = append(args, priceMax)
	}
	sb.WriteString(` ORDER BY view_count DESC, product_id LIMIT ?`)
	args = append(args, limit)

	products, err := p.queryProducts(ctx, "active_by_categories", "products", sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query by categories: %w", err)
	}
	return products, nil
}

// ProductsByIDs resolves products by ID in no particular order, active or
// not. Missing IDs are silently dropped.
func (p *Provider) ProductsByIDs(ctx context.Context, ids []int64) ([]recommend.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT` + productColumns + `
		FROM products p
		WHERE p.product_id IN (` + inPlaceholders(len(ids)) + `)`

	products, err := p.queryProducts(ctx, "products_by_ids", "products", query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	return products, nil
}

// SimilarByCategoryAndStore returns the union of same-category and
// same-store active products, excluding the anchor, by view count
// descending. An uncategorized anchor matches on store alone.
func (p *Provider) SimilarByCategoryAndStore(ctx context.Context, anchor recommend.Product, limit int) ([]recommend.Product, error) {
	query := `
		SELECT` + productColumns + `
		FROM products p
		WHERE p.is_active
		  AND p.product_id != ?
		  AND (p.category_id = ? OR p.store_id = ?)
		ORDER BY p.view_count DESC, p.product_id
		LIMIT ?
	`

	products, err := p.queryProducts(ctx, "similar_by_category_store", "products", query,
		anchor.ID, anchor.CategoryID, anchor.StoreID, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar products: %w", err)
	}
	return products, nil
}

// CoPurchasedWith returns active products co-occurring in orders that
// contain the anchor product, ranked by the number of shared orders.
func (p *Provider) CoPurchasedWith(ctx context.Context, productID int64, limit int) ([]recommend.Product, error) {
	query := `
		WITH anchor_orders AS (
			SELECT DISTINCT oi.order_id
			FROM order_items oi
			WHERE oi.product_id = ?
		),
		co_products AS (
			SELECT oi.product_id, COUNT(DISTINCT oi.order_id) AS together_count
			FROM order_items oi
			JOIN anchor_orders ao ON ao.order_id = oi.order_id
			WHERE oi.product_id != ?
			GROUP BY oi.product_id
		)
		SELECT` + productColumns + `
		FROM products p
		JOIN co_products c ON c.product_id = p.product_id
		WHERE p.is_active
		ORDER BY c.together_count DESC, p.product_id
		LIMIT ?
	`

	products, err := p.queryProducts(ctx, "co_purchased_with", "order_items", query,
		productID, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("query co-purchased products: %w", err)
	}
	return products, nil
}

// UserOrderedProductIDs returns the distinct products a user has ordered,
// any status.
func (p *Provider) UserOrderedProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT oi.product_id
		FROM order_items oi
		JOIN orders o ON o.order_id = oi.order_id
		WHERE o.user_id = ?
		ORDER BY oi.product_id
	`

	ids, err := p.queryIDs(ctx, "user_ordered_product_ids", "orders", query, userID)
	if err != nil {
		return nil, fmt.Errorf("query ordered product ids: %w", err)
	}
	return ids, nil
}

// UserDeliveredProductIDs returns the distinct products a user has received
// in delivered orders.
func (p *Provider) UserDeliveredProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT oi.product_id
		FROM order_items oi
		JOIN orders o ON o.order_id = oi.order_id
		WHERE o.user_id = ? AND o.status = 'delivered'
		ORDER BY oi.product_id
	`

	ids, err := p.queryIDs(ctx, "user_delivered_product_ids", "orders", query, userID)
	if err != nil {
		return nil, fmt.Errorf("query delivered product ids: %w", err)
	}
	return ids, nil
}

// DeliveredProducts returns the active products from a user's delivered
// orders.
func (p *Provider) DeliveredProducts(ctx context.Context, userID int64) ([]recommend.Product, error) {
	query := `
		SELECT` + productColumns + `
		FROM products p
		WHERE p.is_active
		  AND p.product_id IN (
			SELECT DISTINCT oi.product_id
			FROM order_items oi
			JOIN orders o ON o.order_id = oi.order_id
			WHERE o.user_id = ? AND o.status = 'delivered'
		  )
		ORDER BY p.product_id
	`

	products, err := p.queryProducts(ctx, "delivered_products", "products", query, userID)
	if err != nil {
		return nil, fmt.Errorf("query delivered products: %w", err)
	}
	return products, nil
}

// NeighborsByOverlap returns user IDs ranked by the count of ordered
// products they share with the given user, descending.
func (p *Provider) NeighborsByOverlap(ctx context.Context, userID int64, limit int) ([]int64, error) {
	query := `
		WITH my_products AS (
			SELECT DISTINCT oi.product_id
			FROM order_items oi
			JOIN orders o ON o.order_id = oi.order_id
			WHERE o.user_id = ?
		)
		SELECT o.user_id
		FROM order_items oi
		JOIN orders o ON o.order_id = oi.order_id
		JOIN my_products mp ON mp.product_id = oi.product_id
		WHERE o.user_id != ?
		GROUP BY o.user_id
		ORDER BY COUNT(DISTINCT oi.product_id) DESC, o.user_id
		LIMIT ?
	`

	ids, err := p.queryIDs(ctx, "neighbors_by_overlap", "orders", query, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}
	return ids, nil
}

// ProductsOrderedByUsers returns active products ordered by the given
// users, excluding the given product IDs, ranked by order-item count
// descending.
func (p *Provider) ProductsOrderedByUsers(ctx context.Context, userIDs []int64, excludeIDs []int64, limit int) ([]recommend.Product, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`
		WITH neighbor_items AS (
			SELECT oi.product_id, COUNT(*) AS item_count
			FROM order_items oi
			JOIN orders o ON o.order_id = oi.order_id
			WHERE o.user_id IN (` + inPlaceholders(len(userIDs)) + `)
			GROUP BY oi.product_id
		)
		SELECT` + productColumns + `
		FROM products p
		JOIN neighbor_items n ON n.product_id = p.product_id
		WHERE p.is_active`)

	args := int64Args(userIDs)
	if len(excludeIDs) > 0 {
		sb.WriteString(` AND p.product_id NOT IN (` + inPlaceholders(len(excludeIDs)) + `)`)
		args = append(args, int64Args(excludeIDs)...)
	}
	sb.WriteString(` ORDER BY n.item_count DESC, p.product_id LIMIT ?`)
	args = append(args, limit)

	products, err := p.queryProducts(ctx, "products_ordered_by_users", "order_items", sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query neighbor products: %w", err)
	}
	return products, nil
}

// RecentViewedProducts returns the viewer's most recently viewed active
// products, most recent first.
func (p *Provider) RecentViewedProducts(ctx context.Context, viewer recommend.Viewer, limit int) ([]recommend.Product, error) {
	ownerClause := `pv.session_key = ?`
	owner := any(viewer.SessionKey)
	if viewer.IsUser() {
		ownerClause = `pv.user_id = ?`
		owner = viewer.UserID
	}

	query := `
		SELECT` + productColumns + `
		FROM products p
		JOIN product_views pv ON pv.product_id = p.product_id
		WHERE p.is_active AND ` + ownerClause + `
		ORDER BY pv.last_viewed DESC, p.product_id
		LIMIT ?
	`

	products, err := p.queryProducts(ctx, "recent_viewed_products", "product_views", query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent views: %w", err)
	}
	return products, nil
}

// ApprovedRatingAverages returns the mean approved-review rating per
// product. Products without approved reviews are absent from the map.
func (p *Provider) ApprovedRatingAverages(ctx context.Context, productIDs []int64) (map[int64]float64, error) {
	averages := make(map[int64]float64, len(productIDs))
	if len(productIDs) == 0 {
		return averages, nil
	}

	query := `
		SELECT r.product_id, AVG(r.rating) AS avg_rating
		FROM reviews r
		WHERE r.is_approved AND r.product_id IN (` + inPlaceholders(len(productIDs)) + `)
		GROUP BY r.product_id
	`

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.db.conn.QueryContext(ctx, query, int64Args(productIDs)...)
	if err != nil {
		metrics.RecordDBQuery("approved_rating_averages", "reviews", time.Since(start), err)
		return nil, fmt.Errorf("query rating averages: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var (
			productID int64
			avg       float64
		)
		if err := rows.Scan(&productID, &avg); err != nil {
			metrics.RecordDBQuery("approved_rating_averages", "reviews", time.Since(start), err)
			return nil, fmt.Errorf("scan rating average: %w", err)
		}
		averages[productID] = avg
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBQuery("approved_rating_averages", "reviews", time.Since(start), err)
		return nil, fmt.Errorf("iterate rating averages: %w", err)
	}

	metrics.RecordDBQuery("approved_rating_averages", "reviews", time.Since(start), nil)
	return averages, nil
}

// UpsertView records a product view. A repeat view by the same viewer
// increments the existing row and refreshes its timestamp; the product's
// denormalized view count is bumped in the same transaction.
func (p *Provider) UpsertView(ctx context.Context, viewer recommend.Viewer, productID int64) error {
	if err := viewer.Validate(); err != nil {
		return err
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := p.upsertViewTx(ctx, viewer, productID)
	metrics.RecordDBQuery("upsert_view", "product_views", time.Since(start), err)
	return err
}

func (p *Provider) upsertViewTx(ctx context.Context, viewer recommend.Viewer, productID int64) error {
	tx, err := p.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin view transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The conflict target must name the UNIQUE constraint that the viewer
	// kind collides on, so user and session viewers need separate
	// statements. DuckDB 1.4.x mis-binds the bare current_timestamp alias
	// as a column inside DO UPDATE SET, so the canonical
	// get_current_timestamp() is required there.
	if viewer.IsUser() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_views (view_id, user_id, product_id, view_count, last_viewed)
			VALUES (?, ?, ?, 1, current_timestamp)
			ON CONFLICT (user_id, product_id)
			DO UPDATE SET view_count = view_count + 1, last_viewed = get_current_timestamp()
		`, uuid.New(), viewer.UserID, productID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_views (view_id, session_key, product_id, view_count, last_viewed)
			VALUES (?, ?, ?, 1, current_timestamp)
			ON CONFLICT (session_key, product_id)
			DO UPDATE SET view_count = view_count + 1, last_viewed = get_current_timestamp()
		`, uuid.New(), viewer.SessionKey, productID)
	}
	if err != nil {
		return fmt.Errorf("upsert view: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products SET view_count = view_count + 1 WHERE product_id = ?
	`, productID); err != nil {
		return fmt.Errorf("bump product view count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit view transaction: %w", err)
	}
	return nil
}

// queryProducts runs a query selecting productColumns and scans the rows.
func (p *Provider) queryProducts(ctx context.Context, operation, table, query string, args ...any) ([]recommend.Product, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery(operation, table, time.Since(start), err)
		return nil, err
	}
	defer closeQuietly(rows)

	products, err := scanProducts(rows)
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	return products, err
}

// queryIDs runs a query selecting a single BIGINT column and scans the rows.
func (p *Provider) queryIDs(ctx context.Context, operation, table, query string, args ...any) ([]int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery(operation, table, time.Since(start), err)
		return nil, err
	}
	defer closeQuietly(rows)

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			metrics.RecordDBQuery(operation, table, time.Since(start), err)
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBQuery(operation, table, time.Since(start), err)
		return nil, fmt.Errorf("iterate ids: %w", err)
	}

	metrics.RecordDBQuery(operation, table, time.Since(start), nil)
	return ids, nil
}

func scanProducts(rows *sql.Rows) ([]recommend.Product, error) {
	var products []recommend.Product
	for rows.Next() {
		var prod recommend.Product
		if err := rows.Scan(&prod.ID, &prod.Name, &prod.CategoryID, &prod.StoreID,
			&prod.Price, &prod.EffectivePrice, &prod.ViewCount, &prod.IsActive); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, prod)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// inPlaceholders returns a "?, ?, ?" fragment for n bound values.
func inPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

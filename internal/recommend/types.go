// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrProductNotFound is returned when an anchor product cannot be resolved.
var ErrProductNotFound = errors.New("recommend: product not found")

// ErrInvalidViewer is returned when a viewer does not set exactly one of
// user ID or session key.
var ErrInvalidViewer = errors.New("recommend: viewer must set exactly one of user id or session key")

// Product is the catalog read model consumed by the engine.
type Product struct {
	// ID is the product identifier.
	ID int64 `json:"id"`

	// Name is the product display name.
	Name string `json:"name"`

	// CategoryID is the product's category. Zero means uncategorized;
	// uncategorized products never contribute a category signal.
	CategoryID int64 `json:"category_id"`

	// StoreID is the marketplace store selling the product.
	StoreID int64 `json:"store_id"`

	// Price is the base listing price.
	Price float64 `json:"price"`

	// EffectivePrice is the variant-aware minimum price: the cheapest
	// active variant's price if the product has variants, else Price.
	EffectivePrice float64 `json:"effective_price"`

	// ViewCount is the global number of recorded views.
	ViewCount int64 `json:"view_count"`

	// IsActive reports whether the product is currently purchasable.
	IsActive bool `json:"is_active"`
}

// Viewer identifies who looked at a product: an authenticated user or an
// anonymous session, never both.
type Viewer struct {
	// UserID is the authenticated user, or zero for anonymous viewers.
	UserID int64 `json:"user_id,omitempty"`

	// SessionKey is the anonymous session key, or empty for users.
	SessionKey string `json:"session_key,omitempty"`
}

// IsUser reports whether the viewer is an authenticated user.
func (v Viewer) IsUser() bool {
	return v.UserID > 0
}

// Validate enforces the exactly-one-of invariant.
func (v Viewer) Validate() error {
	hasUser := v.UserID > 0
	hasSession := v.SessionKey != ""
	if hasUser == hasSession {
		return ErrInvalidViewer
	}
	return nil
}

// String returns the viewer's log identity, e.g. "user:42" or "session:abc".
func (v Viewer) String() string {
	if v.IsUser() {
		return fmt.Sprintf("user:%d", v.UserID)
	}
	return "session:" + v.SessionKey
}

// Source identifies the generator that proposed a candidate.
type Source int

const (
	// SourceContentBased marks candidates from category/price/store affinity.
	SourceContentBased Source = iota
	// SourceCollaborative marks candidates from neighbor purchase overlap.
	SourceCollaborative
	// SourceCoPurchase marks candidates from product similarity and
	// co-occurrence across orders.
	SourceCoPurchase
	// SourcePopular marks best-selling and most-viewed fallback candidates.
	SourcePopular
)

// String returns a human-readable source name.
func (s Source) String() string {
	switch s {
	case SourceContentBased:
		return "content_based"
	case SourceCollaborative:
		return "collaborative"
	case SourceCoPurchase:
		return "co_purchase"
	case SourcePopular:
		return "popular"
	default:
		return "unknown"
	}
}

// Candidate is a product proposed by one generator before ranking.
type Candidate struct {
	// Product is the proposed product.
	Product Product `json:"product"`

	// Source records which generator proposed the candidate.
	Source Source `json:"source"`

	// RawSignals carries the generator's own ordering signals, such as the
	// candidate's rank within the generator output and its view count.
	RawSignals map[string]float64 `json:"raw_signals,omitempty"`
}

// Reason classifies why a generator degraded instead of producing its
// primary result.
type Reason int

const (
	// ReasonNoHistory indicates the user has no order history.
	ReasonNoHistory Reason = iota + 1
	// ReasonNoNeighbors indicates no users share purchase overlap.
	ReasonNoNeighbors
	// ReasonNoSessionData indicates the session has no recorded views.
	ReasonNoSessionData
	// ReasonQueryFailure indicates an underlying store query failed.
	ReasonQueryFailure
	// ReasonEmptyCatalog indicates even the fallback queries found nothing.
	ReasonEmptyCatalog
)

// String returns a human-readable reason name.
func (r Reason) String() string {
	switch r {
	case ReasonNoHistory:
		return "no_history"
	case ReasonNoNeighbors:
		return "no_neighbors"
	case ReasonNoSessionData:
		return "no_session_data"
	case ReasonQueryFailure:
		return "query_failure"
	case ReasonEmptyCatalog:
		return "empty_catalog"
	default:
		return "unknown"
	}
}

// Degradation describes a generator falling back from its primary strategy.
// Signal-unavailable cases (no history, no neighbors, no session data) carry
// a nil Cause; query failures carry the underlying error.
type Degradation struct {
	// Reason classifies the degradation.
	Reason Reason

	// Cause is the underlying error for query failures, nil otherwise.
	Cause error
}

// ScoredCandidate pairs a candidate with its fused score.
type ScoredCandidate struct {
	// Candidate is the scored candidate.
	Candidate Candidate `json:"candidate"`

	// Score is the weighted linear combination of the candidate's signals.
	// Higher is better; ties preserve input order.
	Score float64 `json:"score"`

	// Signals is the per-signal score breakdown (category, price, store,
	// popularity, quality) for explainability.
	Signals map[string]float64 `json:"signals,omitempty"`
}

// PriceRange holds price statistics over a user's delivered purchases,
// computed on effective prices.
type PriceRange struct {
	// Min is the cheapest delivered purchase.
	Min float64 `json:"min"`

	// Max is the most expensive delivered purchase.
	Max float64 `json:"max"`

	// Avg is the mean purchase price.
	Avg float64 `json:"avg"`
}

// PreferenceProfile is a per-user snapshot of implicit affinities, derived
// fresh on each personalization request.
type PreferenceProfile struct {
	// Categories holds category IDs from delivered purchases and recent
	// views. Uncategorized products contribute nothing.
	Categories map[int64]struct{} `json:"-"`

	// Stores holds store IDs from delivered purchases only. View-based
	// store affinity is deliberately excluded to avoid over-fitting to
	// casual browsing.
	Stores map[int64]struct{} `json:"-"`

	// PriceRange is nil when the user has no delivered purchases.
	// Downstream scoring treats absence as "no price signal", not zero.
	PriceRange *PriceRange `json:"price_range,omitempty"`
}

// IsEmpty reports whether the profile carries no preference signal at all.
func (p PreferenceProfile) IsEmpty() bool {
	return len(p.Categories) == 0 && len(p.Stores) == 0 && p.PriceRange == nil
}

// DataProvider is the read interface over the catalog/order/review store.
// All product-returning queries serve active products only, except
// ProductsByIDs, which resolves whatever still exists.
type DataProvider interface {
	// BestSellingProducts returns active products ranked by total quantity
	// sold across all order items, any order status, descending.
	BestSellingProducts(ctx context.Context, limit int) ([]Product, error)

	// MostViewedActive returns active products by view count descending,
	// excluding the given product IDs.
	MostViewedActive(ctx context.Context, limit int, excludeIDs []int64) ([]Product, error)

	// ActiveByCategories returns active products filtered by category set
	// and optional effective-price bounds, ordered by view count
	// descending. An empty category set means no category filter; zero
	// bounds disable the price filter.
	ActiveByCategories(ctx context.Context, categoryIDs []int64, priceMin, priceMax float64, excludeIDs []int64, limit int) ([]Product, error)

	// ProductsByIDs resolves products by ID in no particular order.
	// Missing IDs are silently dropped.
	ProductsByIDs(ctx context.Context, ids []int64) ([]Product, error)

	// SimilarByCategoryAndStore returns the union of same-category and
	// same-store active products, excluding the anchor, by view count
	// descending.
	SimilarByCategoryAndStore(ctx context.Context, anchor Product, limit int) ([]Product, error)

	// CoPurchasedWith returns products co-occurring in orders that contain
	// the anchor product, ranked by co-occurrence count descending.
	CoPurchasedWith(ctx context.Context, productID int64, limit int) ([]Product, error)

	// UserOrderedProductIDs returns the distinct products a user has
	// ordered, any status.
	UserOrderedProductIDs(ctx context.Context, userID int64) ([]int64, error)

	// UserDeliveredProductIDs returns the distinct products a user has
	// received in delivered orders.
	UserDeliveredProductIDs(ctx context.Context, userID int64) ([]int64, error)

	// DeliveredProducts returns the full products from a user's delivered
	// orders.
	DeliveredProducts(ctx context.Context, userID int64) ([]Product, error)

	// NeighborsByOverlap returns user IDs ranked by the count of ordered
	// products they share with the given user, descending.
	NeighborsByOverlap(ctx context.Context, userID int64, limit int) ([]int64, error)

	// ProductsOrderedByUsers returns products ordered by the given users,
	// excluding the given product IDs, ranked by order-item count
	// descending.
	ProductsOrderedByUsers(ctx context.Context, userIDs []int64, excludeIDs []int64, limit int) ([]Product, error)

	// RecentViewedProducts returns the viewer's most recently viewed
	// products, most recent first.
	RecentViewedProducts(ctx context.Context, viewer Viewer, limit int) ([]Product, error)

	// ApprovedRatingAverages returns the mean approved-review rating per
	// product. Products without approved reviews are absent from the map.
	ApprovedRatingAverages(ctx context.Context, productIDs []int64) (map[int64]float64, error)
}

// ViewStore is the one write interface the engine owns.
type ViewStore interface {
	// UpsertView records a product view for a viewer. A repeat view of the
	// same product increments the existing row's count and refreshes its
	// timestamp instead of creating a duplicate. The product's global view
	// count is incremented in the same transaction.
	UpsertView(ctx context.Context, viewer Viewer, productID int64) error
}

// Cache memoizes ranked product-ID lists under string keys with bounded
// TTLs. Implementations must treat failures as misses; a cache outage must
// never fail a recommendation request.
type Cache interface {
	// Get returns the cached ID list for a key, if present and fresh.
	Get(ctx context.Context, key string) ([]int64, bool)

	// Set stores an ID list under a key with the given TTL.
	Set(ctx context.Context, key string, ids []int64, ttl time.Duration)

	// Delete removes a key.
	Delete(ctx context.Context, key string)
}

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package models

// RecommendedProduct is the wire representation of a single recommended product.
// Rank is the 1-based position within the returned list.
type RecommendedProduct struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	CategoryID     int64   `json:"category_id,omitempty"`
	StoreID        int64   `json:"store_id,omitempty"`
	Price          float64 `json:"price"`
	EffectivePrice float64 `json:"effective_price"`
	ViewCount      int64   `json:"view_count"`
	Rank           int     `json:"rank"`
}

// RecommendationList is the payload returned by all recommendation endpoints.
//
// Fields:
//   - Operation: Which recommendation operation produced the list
//     (personalized, session, similar, bought_together, best_selling, collaborative)
//   - Count: Number of products returned (may be below the requested limit)
//   - Products: Ranked products, best match first
type RecommendationList struct {
	Operation string               `json:"operation"`
	Count     int                  `json:"count"`
	Products  []RecommendedProduct `json:"products"`
}

// ViewAck is the payload returned when a view event is accepted for recording.
type ViewAck struct {
	Recorded  bool  `json:"recorded"`
	ProductID int64 `json:"product_id"`
}

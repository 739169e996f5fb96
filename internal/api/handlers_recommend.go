// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/mercatus/internal/logging"
	"github.com/tomtom215/mercatus/internal/models"
	"github.com/tomtom215/mercatus/internal/recommend"
)

// Personalized handles GET /api/v1/recommendations/personalized/{userID}.
// Unknown or historyless users receive the best-selling fallback, so the
// endpoint always returns a ranked list.
func (h *Handler) Personalized(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	start := time.Now()

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "Invalid user ID", err)
		return
	}
	limit := getIntParam(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	products := h.service.Personalized(ctx, userID, limit)
	respondRecommendations(w, r, opPersonalized, products, start)
}

// SessionBased handles GET /api/v1/recommendations/session/{sessionKey}.
func (h *Handler) SessionBased(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	start := time.Now()

	sessionKey := chi.URLParam(r, "sessionKey")
	limit := getIntParam(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	products := h.service.SessionBased(ctx, sessionKey, limit)
	respondRecommendations(w, r, opSessionBased, products, start)
}

// SimilarTo handles GET /api/v1/recommendations/similar/{productID}.
// The anchor product is never part of its own similarity list.
func (h *Handler) SimilarTo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	start := time.Now()

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "Invalid product ID", err)
		return
	}
	limit := getIntParam(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	products := h.service.SimilarTo(ctx, productID, limit)
	respondRecommendations(w, r, opSimilar, products, start)
}

// BoughtTogether handles GET /api/v1/recommendations/bought-together/{productID}.
func (h *Handler) BoughtTogether(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	start := time.Now()

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "Invalid product ID", err)
		return
	}
	limit := getIntParam(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	products := h.service.BoughtTogether(ctx, productID, limit)
	respondRecommendations(w, r, opBoughtTogether, products, start)
}

// Collaborative handles GET /api/v1/recommendations/collaborative/{userID}.
func (h *Handler) Collaborative(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	start := time.Now()

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "Invalid user ID", err)
		return
	}
	limit := getIntParam(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	products := h.service.Collaborative(ctx, userID, limit)
	respondRecommendations(w, r, opCollaborative, products, start)
}

// BestSelling handles GET /api/v1/recommendations/best-selling.
func (h *Handler) BestSelling(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	start := time.Now()

	limit := getIntParam(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	products := h.service.BestSelling(ctx, limit)
	respondRecommendations(w, r, opBestSelling, products, start)
}

// respondRecommendations writes the shared success envelope for all six
// recommendation endpoints.
func respondRecommendations(w http.ResponseWriter, r *http.Request, operation string, products []recommend.Product, start time.Time) {
	list := models.RecommendationList{
		Operation: operation,
		Count:     len(products),
		Products:  toWireProducts(products),
	}

	respondJSON(w, http.StatusOK, models.APIResponse{
		Status: "success",
		Data:   list,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   logging.RequestIDFromContext(r.Context()),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// toWireProducts converts engine products to their wire form, assigning
// 1-based ranks. Always returns a non-nil slice so empty lists marshal as
// [] rather than null.
func toWireProducts(products []recommend.Product) []models.RecommendedProduct {
	wire := make([]models.RecommendedProduct, len(products))
	for i, p := range products {
		wire[i] = models.RecommendedProduct{
			ID:             p.ID,
			Name:           p.Name,
			CategoryID:     p.CategoryID,
			StoreID:        p.StoreID,
			Price:          p.Price,
			EffectivePrice: p.EffectivePrice,
			ViewCount:      p.ViewCount,
			Rank:           i + 1,
		}
	}
	return wire
}

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/mercatus/internal/models"
)

// healthCheckTimeout bounds the dependency pings. A probe that waits the
// full handler timeout would itself trip the orchestrator's deadline.
const healthCheckTimeout = 2 * time.Second

// Health handles GET /api/v1/health. It always answers 200: a broken
// database degrades the engine to cached and fallback serving, so the
// process itself remains healthy enough to report its own state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	dbConnected := h.db != nil && h.db.Ping(ctx) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	cacheBackend := "disabled"
	if h.cache != nil {
		cacheBackend = h.cache.GetStats().Backend
	}

	respondJSON(w, http.StatusOK, models.APIResponse{
		Status: "success",
		Data: models.HealthStatus{
			Status:            status,
			Version:           h.version,
			DatabaseConnected: dbConnected,
			CacheBackend:      cacheBackend,
			Uptime:            h.uptime(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthLive handles GET /api/v1/health/live. Liveness only proves the
// process is serving requests; it must not depend on downstream state.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	respondJSON(w, http.StatusOK, models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":         "alive",
			"uptime_seconds": h.uptime(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthReady handles GET /api/v1/health/ready. Readiness gates on the
// database alone: the cache being down only costs recomputation, but
// without the database even the best-selling fallback has nothing to rank.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if h.db == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database unavailable", nil)
		return
	}
	if err := h.db.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database unavailable", err)
		return
	}

	cacheConnected := h.cache != nil && h.cache.Ping(ctx) == nil

	respondJSON(w, http.StatusOK, models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":             "ready",
			"database_connected": true,
			"cache_connected":    cacheConnected,
			"uptime_seconds":     h.uptime(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

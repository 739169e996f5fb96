// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/mercatus/internal/models"
)

// healthEnvelope is the typed envelope for the aggregate health endpoint.
type healthEnvelope struct {
	Status   string              `json:"status"`
	Data     models.HealthStatus `json:"data"`
	Metadata models.Metadata     `json:"metadata"`
	Error    *models.APIError    `json:"error"`
}

// The test router has no database handle, so health reports degraded while
// still answering 200: the engine serves fallbacks without a database.
func TestHealth_DegradedWithoutDatabase(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var envelope healthEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if envelope.Data.Status != "degraded" {
		t.Errorf("Expected degraded status, got %s", envelope.Data.Status)
	}
	if envelope.Data.DatabaseConnected {
		t.Error("Expected database_connected false")
	}
	if envelope.Data.CacheBackend != "memory" {
		t.Errorf("Expected cache backend memory, got %s", envelope.Data.CacheBackend)
	}
	if envelope.Data.Version != "test" {
		t.Errorf("Expected version test, got %s", envelope.Data.Version)
	}
	if envelope.Data.Uptime < 0 {
		t.Errorf("Expected non-negative uptime, got %f", envelope.Data.Uptime)
	}
}

func TestHealthLive_AlwaysOK(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/health/live", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var envelope struct {
		Status string                 `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if envelope.Data["status"] != "alive" {
		t.Errorf("Expected alive, got %v", envelope.Data["status"])
	}
}

func TestHealthReady_NotReadyWithoutDatabase(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/health/ready", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d: %s", w.Code, w.Body.String())
	}

	envelope := decodeError(t, w)
	if envelope.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("Expected code SERVICE_UNAVAILABLE, got %s", envelope.Error.Code)
	}
}

func TestHealth_NilCacheReportsDisabled(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var envelope healthEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if envelope.Data.CacheBackend != "disabled" {
		t.Errorf("Expected cache backend disabled, got %s", envelope.Data.CacheBackend)
	}
}

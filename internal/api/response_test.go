// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/mercatus/internal/models"
)

func TestRespondJSON_SetsHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	respondJSON(w, http.StatusOK, models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"hello": "world"},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=60" {
		t.Errorf("Expected Cache-Control public, max-age=60, got %q", got)
	}
	if got := w.Header().Get("Vary"); got != "Accept-Encoding" {
		t.Errorf("Expected Vary Accept-Encoding, got %q", got)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("Expected ETag header")
	}
}

func TestGenerateETag_Deterministic(t *testing.T) {
	a := generateETag([]byte(`{"status":"success"}`))
	b := generateETag([]byte(`{"status":"success"}`))
	c := generateETag([]byte(`{"status":"error"}`))

	if a != b {
		t.Errorf("Equal payloads must produce equal tags: %q vs %q", a, b)
	}
	if a == c {
		t.Error("Different payloads should produce different tags")
	}
	if len(a) < 4 || a[:3] != `W/"` {
		t.Errorf("Expected weak ETag format, got %q", a)
	}
}

func TestRespondError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "Invalid product ID", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", got)
	}

	envelope := decodeError(t, w)
	if envelope.Status != "error" {
		t.Errorf("Expected status error, got %s", envelope.Status)
	}
	if envelope.Error.Code != "INVALID_PARAMETER" {
		t.Errorf("Expected code INVALID_PARAMETER, got %s", envelope.Error.Code)
	}
	if envelope.Error.Message != "Invalid product ID" {
		t.Errorf("Unexpected message %q", envelope.Error.Message)
	}
	if envelope.Metadata.Timestamp.IsZero() {
		t.Error("Expected timestamp in error metadata")
	}
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "best-selling", "best-selling"},
		{"newline injection", "line1\nline2", `line1\x0aline2`},
		{"carriage return", "a\rb", `a\x0db`},
		{"escape sequence", "a\x1bb", `a\x1bb`},
		{"delete char", "a\x7fb", `a\x7fb`},
		{"unicode preserved", "prodüct", "prodüct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogValue(tt.input); got != tt.want {
				t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetIntParam(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		key      string
		fallback int
		want     int
	}{
		{"present", "limit=12", "limit", 8, 12},
		{"absent", "", "limit", 8, 8},
		{"garbage", "limit=abc", "limit", 8, 8},
		{"negative", "limit=-3", "limit", 8, 8},
		{"zero", "limit=0", "limit", 8, 8},
		{"other key", "k=5", "limit", 8, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test?"+tt.query, nil)
			if got := getIntParam(req, tt.key, tt.fallback); got != tt.want {
				t.Errorf("getIntParam() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := ViewEventRequest{ProductID: 42, UserID: 7}
		if apiErr := validateRequest(&req); apiErr != nil {
			t.Errorf("Expected nil for valid request, got %+v", apiErr)
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		req := ViewEventRequest{ProductID: -1}
		apiErr := validateRequest(&req)
		if apiErr == nil {
			t.Fatal("Expected validation error")
		}
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Expected code VALIDATION_ERROR, got %s", apiErr.Code)
		}
		if apiErr.Message == "" {
			t.Error("Expected non-empty message")
		}
	})
}

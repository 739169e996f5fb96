// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package api

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/mercatus/internal/logging"
	"github.com/tomtom215/mercatus/internal/models"
	"github.com/tomtom215/mercatus/internal/validation"
)

// sanitizeLogValue strips control characters from user-supplied strings
// before they reach a log line. Newlines and escapes in a crafted value
// could otherwise forge log entries.
func sanitizeLogValue(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			b.WriteString(fmt.Sprintf("\\x%02x", r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// respondJSON writes a success envelope with cache and ETag headers.
func respondJSON(w http.ResponseWriter, statusCode int, response models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal response")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode response", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Header().Set("Vary", "Accept-Encoding")
	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(statusCode)

	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write response")
	}
}

// generateETag produces a weak entity tag from the response body using
// FNV-1a. Collisions only cost an unnecessary re-download.
func generateETag(data []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return `W/"` + strconv.FormatUint(h.Sum64(), 16) + `"`
}

// respondError writes the standard error envelope. err is logged but never
// surfaced to the client.
func respondError(w http.ResponseWriter, statusCode int, code, message string, err error) {
	event := logging.Warn()
	if statusCode >= http.StatusInternalServerError {
		event = logging.Error()
	}
	event.
		Int("status", statusCode).
		Str("code", code).
		Err(err).
		Msg(sanitizeLogValue(message))

	response := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	}

	data, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		logging.Error().Err(marshalErr).Msg("Failed to marshal error response")
		http.Error(w, message, statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(data); writeErr != nil {
		logging.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

// validateRequest runs struct tag validation and converts the outcome to
// the API error shape. Returns nil when the request is valid.
func validateRequest(req interface{}) *models.APIError {
	verr := validation.ValidateStruct(req)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// getIntParam reads an integer query parameter, falling back to
// defaultValue when the parameter is absent or not a positive integer.
// Garbage values degrade to the default rather than failing the request.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

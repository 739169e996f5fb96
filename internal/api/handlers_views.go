// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package api

import (
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/mercatus/internal/logging"
	"github.com/tomtom215/mercatus/internal/models"
	"github.com/tomtom215/mercatus/internal/recommend"
)

// TrackView handles POST /api/v1/views. A well-formed event is always
// acknowledged with 202: recording is fire-and-forget, and a storage
// failure degrades view counts rather than the shopper's page load.
func (h *Handler) TrackView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	start := time.Now()

	var req ViewEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	// Exactly one viewer identity. Tag validation can only check fields in
	// isolation, so the cross-field rule lives here.
	hasUser := req.UserID > 0
	hasSession := req.SessionKey != ""
	if hasUser == hasSession {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"View event must set exactly one of user_id or session_key", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	viewer := recommend.Viewer{UserID: req.UserID, SessionKey: req.SessionKey}
	h.service.RecordView(ctx, viewer, req.ProductID)

	respondJSON(w, http.StatusAccepted, models.APIResponse{
		Status: "success",
		Data: models.ViewAck{
			Recorded:  true,
			ProductID: req.ProductID,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   logging.RequestIDFromContext(r.Context()),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

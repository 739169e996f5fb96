// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

/*
Package models defines the wire-level data structures for the Mercatus HTTP API.

This package contains the API response envelope and the payload types returned
by the recommendation and view-tracking endpoints. Domain types (products,
candidates, preference profiles) live in internal/recommend; this package only
shapes what goes over the wire.

Key Components:

  - APIResponse: Standardized API response wrapper
  - APIError: Structured error details
  - Metadata: Response metadata (timestamp, request ID, query time)
  - RecommendationList: Ranked product payload for all six recommendation endpoints
  - RecommendedProduct: Single ranked product
  - ViewAck: Acknowledgement payload for accepted view events
  - HealthStatus: Health check response

Usage Example - API Response:

	import "github.com/tomtom215/mercatus/internal/models"

	// Success response
	response := models.APIResponse{
	    Status: "success",
	    Data: models.RecommendationList{
	        Operation: "best_selling",
	        Count:     len(products),
	        Products:  products,
	    },
	    Metadata: models.Metadata{
	        Timestamp:   time.Now(),
	        QueryTimeMS: 12,
	    },
	}

	json.NewEncoder(w).Encode(response)

	// Error response
	errorResponse := models.APIResponse{
	    Status: "error",
	    Error: &models.APIError{
	        Code:    "VALIDATION_ERROR",
	        Message: "Invalid product ID",
	        Details: map[string]interface{}{
	            "field": "productID",
	        },
	    },
	}

Thread Safety:

All models are:
  - Immutable after creation (pass-by-value or pointers)
  - Safe for concurrent read access
  - No internal mutexes needed (data structures only)

JSON Marshaling:

All models support JSON serialization:
  - snake_case struct tags throughout
  - Omitempty tags for optional fields
  - Time.Time uses RFC3339 format

See Also:

  - internal/api: API handlers returning these models
  - internal/recommend: Domain types these payloads are built from
*/
package models

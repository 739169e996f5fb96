// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package api

// ViewEventRequest is the body of POST /api/v1/views. It records that a
// viewer looked at a product detail page.
//
// Exactly one of UserID or SessionKey must be set: authenticated shoppers
// report their user ID, anonymous shoppers report their session key. The
// exactly-one rule is structural and enforced by the handler on top of the
// per-field tag validation.
//
// Fields:
//   - ProductID: The product that was viewed. Required, must be positive.
//   - UserID: Authenticated viewer's user ID. Omit for anonymous viewers.
//   - SessionKey: Anonymous viewer's session key. Omit for authenticated
//     viewers. Capped at 128 characters, matching the session store.
//
// Example:
//
//	{"product_id": 42, "session_key": "c1b2a3d4"}
type ViewEventRequest struct {
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	UserID     int64  `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	SessionKey string `json:"session_key,omitempty" validate:"omitempty,max=128"`
}

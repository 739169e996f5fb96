// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package api

import (
	"time"

	"github.com/tomtom215/mercatus/internal/cache"
	"github.com/tomtom215/mercatus/internal/database"
	"github.com/tomtom215/mercatus/internal/recommend"
)

// handlerTimeout caps each request's downstream work. Recommendation reads
// are interactive; anything slower than this is served better by the
// degraded fallback than by a hung connection.
const handlerTimeout = 10 * time.Second

// Operation labels used in response payloads and metrics.
const (
	opPersonalized   = "personalized"
	opSessionBased   = "session"
	opSimilar        = "similar"
	opBoughtTogether = "bought_together"
	opBestSelling    = "best_selling"
	opCollaborative  = "collaborative"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	service   *recommend.Service
	db        *database.DB
	cache     cache.Cacher
	version   string
	startTime time.Time
}

// NewHandler creates a handler backed by the given recommendation service.
// db and cacher feed the health endpoints and may be nil in tests.
func NewHandler(service *recommend.Service, db *database.DB, cacher cache.Cacher, version string) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{
		service:   service,
		db:        db,
		cache:     cacher,
		version:   version,
		startTime: time.Now(),
	}
}

// uptime reports seconds since the handler was constructed.
func (h *Handler) uptime() float64 {
	return time.Since(h.startTime).Seconds()
}

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mercatus/internal/metrics"
)

// Tracker records product view events, the raw signal source for
// personalization.
type Tracker struct {
	views  ViewStore
	cache  Cache
	cfg    *Config
	logger zerolog.Logger
}

// NewTracker creates a view tracker. cache may be nil, in which case no
// invalidation happens.
func NewTracker(views ViewStore, cache Cache, cfg *Config, logger zerolog.Logger) *Tracker {
	return &Tracker{
		views:  views,
		cache:  cache,
		cfg:    cfg,
		logger: logger.With().Str("component", "viewtracker").Logger(),
	}
}

// Record upserts a view for the viewer and invalidates the viewer's cached
// recommendation lists so fresh browsing influences personalization before
// the TTL expires.
//
// Record is fire-and-forget: failures are logged and counted, never
// returned. View tracking must not interrupt the caller's primary flow.
func (t *Tracker) Record(ctx context.Context, viewer Viewer, productID int64) {
	if err := viewer.Validate(); err != nil {
		t.logger.Warn().Err(err).Int64("product_id", productID).Msg("View rejected")
		metrics.RecordViewFailed("invalid_viewer")
		return
	}
	if productID <= 0 {
		t.logger.Warn().Stringer("viewer", viewer).Int64("product_id", productID).Msg("View rejected")
		metrics.RecordViewFailed("invalid_product")
		return
	}

	start := time.Now()
	if err := t.views.UpsertView(ctx, viewer, productID); err != nil {
		t.logger.Error().Err(err).Stringer("viewer", viewer).Int64("product_id", productID).
			Msg("View upsert failed")
		metrics.RecordViewFailed("upsert_error")
		return
	}
	metrics.ObserveViewUpsertDuration(time.Since(start).Seconds())
	metrics.RecordViewTracked()

	t.invalidate(ctx, viewer)
}

// invalidate drops the viewer's cached lists for the commonly requested
// limits. Other limits age out through their TTL.
func (t *Tracker) invalidate(ctx context.Context, viewer Viewer) {
	if t.cache == nil {
		return
	}
	for _, limit := range t.cfg.InvalidateLimits {
		if viewer.IsUser() {
			t.cache.Delete(ctx, userCacheKey(viewer.UserID, limit))
		} else {
			t.cache.Delete(ctx, sessionCacheKey(viewer.SessionKey, limit))
		}
	}
}

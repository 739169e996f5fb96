// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package recommend

import (
	"context"

	"github.com/rs/zerolog"
)

// Extractor derives implicit preference profiles from purchase and view
// history.
type Extractor struct {
	provider DataProvider
	cfg      *Config
	logger   zerolog.Logger
}

// NewExtractor creates a preference extractor.
func NewExtractor(provider DataProvider, cfg *Config, logger zerolog.Logger) *Extractor {
	return &Extractor{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With().Str("component", "preferences").Logger(),
	}
}

// Extract derives the preference profile for a user.
//
// Categories come from delivered purchases and the user's most recent views;
// stores from delivered purchases only. The price range covers effective
// prices of delivered purchases and is absent when the user has none. Any
// failure yields an empty profile rather than an error, so callers always
// receive a usable (possibly signal-free) profile.
func (e *Extractor) Extract(ctx context.Context, userID int64) PreferenceProfile {
	if userID <= 0 {
		return PreferenceProfile{}
	}

	delivered, err := e.provider.DeliveredProducts(ctx, userID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).
			Msg("Delivered purchase lookup failed, using empty profile")
		return PreferenceProfile{}
	}

	viewed, err := e.provider.RecentViewedProducts(ctx, Viewer{UserID: userID}, e.cfg.RecentViewWindow)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).
			Msg("Recent view lookup failed, using empty profile")
		return PreferenceProfile{}
	}

	profile := PreferenceProfile{
		Categories: make(map[int64]struct{}, len(delivered)+len(viewed)),
		Stores:     make(map[int64]struct{}, len(delivered)),
	}

	var priceMin, priceMax, priceSum float64
	for i, p := range delivered {
		if p.CategoryID != 0 {
			profile.Categories[p.CategoryID] = struct{}{}
		}
		profile.Stores[p.StoreID] = struct{}{}

		price := p.EffectivePrice
		if i == 0 {
			priceMin, priceMax = price, price
		} else {
			if price < priceMin {
				priceMin = price
			}
			if price > priceMax {
				priceMax = price
			}
		}
		priceSum += price
	}

	for _, p := range viewed {
		if p.CategoryID != 0 {
			profile.Categories[p.CategoryID] = struct{}{}
		}
	}

	if len(delivered) > 0 {
		profile.PriceRange = &PriceRange{
			Min: priceMin,
			Max: priceMax,
			Avg: priceSum / float64(len(delivered)),
		}
	}

	return profile
}

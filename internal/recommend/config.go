// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// DefaultLimit is the result size used when a caller passes limit <= 0.
	// Default: 8.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps the result size for any single operation.
	// Default: 50.
	MaxLimit int `json:"max_limit"`

	// ContentShare is the fraction of a personalized request served from
	// the content-based generator; the remainder comes from collaborative
	// filtering. Default: 0.6.
	ContentShare float64 `json:"content_share"`

	// RecentViewWindow is how many recent views feed preference extraction.
	// Default: 20.
	RecentViewWindow int `json:"recent_view_window"`

	// SessionViewWindow is how many recent session views feed session-based
	// recommendations. Default: 10.
	SessionViewWindow int `json:"session_view_window"`

	// NeighborLimit is how many overlap-ranked neighbor users feed
	// collaborative filtering. Default: 10.
	NeighborLimit int `json:"neighbor_limit"`

	// Weights defines the score fusion terms.
	Weights Weights `json:"weights"`

	// PriceBand widens the observed purchase price range for content-based
	// filtering so personalization doesn't over-constrain.
	PriceBand PriceBand `json:"price_band"`

	// TTL holds the cache lifetimes per recommendation kind.
	TTL TTLConfig `json:"ttl"`

	// InvalidateLimits lists the result sizes whose cached lists are
	// invalidated for a viewer after a recorded view. These should cover
	// the limits callers commonly request. Default: [8, 12, 16, 20].
	InvalidateLimits []int `json:"invalidate_limits"`
}

// Weights defines the score fusion terms. Each candidate's score is the sum
// of the signal contributions below; the theoretical maximum is about 1.0
// and no further normalization is applied.
type Weights struct {
	// Category is the contribution of a profile category match.
	// Default: 0.40.
	Category float64 `json:"category"`

	// PriceProximity is the maximum contribution of price closeness to the
	// profile's average purchase price. The contribution falls off linearly
	// and reaches zero at PriceProximityCutoff relative distance.
	// Default: 0.20.
	PriceProximity float64 `json:"price_proximity"`

	// PriceProximityCutoff is the relative price distance beyond which the
	// price signal contributes nothing. Default: 0.3 (30%).
	PriceProximityCutoff float64 `json:"price_proximity_cutoff"`

	// Store is the contribution of a profile store match.
	// Default: 0.10.
	Store float64 `json:"store"`

	// PopularityCap caps the popularity contribution.
	// Default: 0.10.
	PopularityCap float64 `json:"popularity_cap"`

	// PopularityDivisor scales raw view counts into the popularity signal:
	// contribution = min(PopularityCap, view_count/PopularityDivisor).
	// Default: 10000.
	PopularityDivisor float64 `json:"popularity_divisor"`

	// Quality is the maximum contribution of review quality, scaled by
	// mean approved rating out of 5. Default: 0.20.
	Quality float64 `json:"quality"`
}

// PriceBand widens a profile's observed [min, max] purchase price range
// into the coarse content-based filter band [min*Lower, max*Upper].
type PriceBand struct {
	// Lower multiplies the observed minimum price. Default: 0.5.
	Lower float64 `json:"lower"`

	// Upper multiplies the observed maximum price. Default: 1.5.
	Upper float64 `json:"upper"`
}

// TTLConfig holds the cache lifetimes per recommendation kind.
type TTLConfig struct {
	// User is the TTL for personalized lists. Default: 1h.
	User time.Duration `json:"user"`

	// Session is the TTL for session-based lists. Default: 30m.
	Session time.Duration `json:"session"`

	// BestSelling is the TTL for the global best-selling list.
	// Default: 2h.
	BestSelling time.Duration `json:"best_selling"`

	// Product is the TTL for per-product similar and bought-together
	// lists. Default: 1h.
	Product time.Duration `json:"product"`
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit:      8,
		MaxLimit:          50,
		ContentShare:      0.6,
		RecentViewWindow:  20,
		SessionViewWindow: 10,
		NeighborLimit:     10,
		Weights: Weights{
			Category:             0.40,
			PriceProximity:       0.20,
			PriceProximityCutoff: 0.3,
			Store:                0.10,
			PopularityCap:        0.10,
			PopularityDivisor:    10000,
			Quality:              0.20,
		},
		PriceBand: PriceBand{
			Lower: 0.5,
			Upper: 1.5,
		},
		TTL: TTLConfig{
			User:        time.Hour,
			Session:     30 * time.Minute,
			BestSelling: 2 * time.Hour,
			Product:     time.Hour,
		},
		InvalidateLimits: []int{8, 12, 16, 20},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit must be >= default_limit, got %d < %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.ContentShare < 0 || c.ContentShare > 1 {
		return fmt.Errorf("content_share must be in [0, 1], got %f", c.ContentShare)
	}
	if c.RecentViewWindow < 1 {
		return fmt.Errorf("recent_view_window must be positive, got %d", c.RecentViewWindow)
	}
	if c.SessionViewWindow < 1 {
		return fmt.Errorf("session_view_window must be positive, got %d", c.SessionViewWindow)
	}
	if c.NeighborLimit < 1 {
		return fmt.Errorf("neighbor_limit must be positive, got %d", c.NeighborLimit)
	}

	if c.Weights.Category < 0 || c.Weights.Category > 1 {
		return fmt.Errorf("weights.category must be in [0, 1], got %f", c.Weights.Category)
	}
	if c.Weights.PriceProximity < 0 || c.Weights.PriceProximity > 1 {
		return fmt.Errorf("weights.price_proximity must be in [0, 1], got %f", c.Weights.PriceProximity)
	}
	if c.Weights.PriceProximityCutoff <= 0 {
		return fmt.Errorf("weights.price_proximity_cutoff must be positive, got %f", c.Weights.PriceProximityCutoff)
	}
	if c.Weights.Store < 0 || c.Weights.Store > 1 {
		return fmt.Errorf("weights.store must be in [0, 1], got %f", c.Weights.Store)
	}
	if c.Weights.PopularityCap < 0 || c.Weights.PopularityCap > 1 {
		return fmt.Errorf("weights.popularity_cap must be in [0, 1], got %f", c.Weights.PopularityCap)
	}
	if c.Weights.PopularityDivisor <= 0 {
		return fmt.Errorf("weights.popularity_divisor must be positive, got %f", c.Weights.PopularityDivisor)
	}
	if c.Weights.Quality < 0 || c.Weights.Quality > 1 {
		return fmt.Errorf("weights.quality must be in [0, 1], got %f", c.Weights.Quality)
	}

	if c.PriceBand.Lower <= 0 || c.PriceBand.Lower > 1 {
		return fmt.Errorf("price_band.lower must be in (0, 1], got %f", c.PriceBand.Lower)
	}
	if c.PriceBand.Upper < 1 {
		return fmt.Errorf("price_band.upper must be >= 1, got %f", c.PriceBand.Upper)
	}

	if c.TTL.User <= 0 {
		return fmt.Errorf("ttl.user must be positive, got %v", c.TTL.User)
	}
	if c.TTL.Session <= 0 {
		return fmt.Errorf("ttl.session must be positive, got %v", c.TTL.Session)
	}
	if c.TTL.BestSelling <= 0 {
		return fmt.Errorf("ttl.best_selling must be positive, got %v", c.TTL.BestSelling)
	}
	if c.TTL.Product <= 0 {
		return fmt.Errorf("ttl.product must be positive, got %v", c.TTL.Product)
	}

	for i, limit := range c.InvalidateLimits {
		if limit < 1 {
			return fmt.Errorf("invalidate_limits[%d] must be positive, got %d", i, limit)
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.InvalidateLimits != nil {
		clone.InvalidateLimits = make([]int, len(c.InvalidateLimits))
		copy(clone.InvalidateLimits, c.InvalidateLimits)
	}
	return &clone
}

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package recommend

import (
	"math"
	"sort"
)

// neutralScore is applied to every candidate when score fusion fails.
// Ranking degrades to input order but the request still succeeds.
const neutralScore = 0.5

// Signal names in ScoredCandidate.Signals.
const (
	signalCategory   = "category"
	signalPrice      = "price"
	signalStore      = "store"
	signalPopularity = "popularity"
	signalQuality    = "quality"
)

// scoreCandidates fuses per-candidate signals into a single ranked list,
// descending by score with ties preserving input order. A panic anywhere in
// fusion is recovered at this boundary: every candidate then receives the
// neutral score and the input order stands.
func (s *Service) scoreCandidates(candidates []Candidate, profile PreferenceProfile, ratings map[int64]float64) (scored []ScoredCandidate) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Int("candidates", len(candidates)).
				Msg("Score fusion panicked, applying neutral scores")
			scored = neutralScores(candidates)
		}
	}()

	scored = make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		score, signals := s.scorer(c.Product, profile, ratings, s.cfg.Weights)
		scored = append(scored, ScoredCandidate{
			Candidate: c,
			Score:     score,
			Signals:   signals,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// scoreOne computes the weighted linear combination for one product:
//
//	category match        +w.Category
//	price proximity       +w.PriceProximity * (1 - relDist/cutoff), relDist <= cutoff
//	store match           +w.Store
//	popularity            +min(w.PopularityCap, views/w.PopularityDivisor)
//	review quality        +w.Quality * (avgApprovedRating / 5)
//
// Signals that don't apply are absent from the breakdown; popularity is
// always present, possibly zero.
func scoreOne(p Product, profile PreferenceProfile, ratings map[int64]float64, w Weights) (float64, map[string]float64) {
	signals := make(map[string]float64, 5)

	if _, ok := profile.Categories[p.CategoryID]; ok && p.CategoryID != 0 {
		signals[signalCategory] = w.Category
	}

	if pr := profile.PriceRange; pr != nil && pr.Avg > 0 {
		relDist := math.Abs(p.EffectivePrice-pr.Avg) / pr.Avg
		if relDist <= w.PriceProximityCutoff {
			signals[signalPrice] = w.PriceProximity * (1 - relDist/w.PriceProximityCutoff)
		}
	}

	if _, ok := profile.Stores[p.StoreID]; ok {
		signals[signalStore] = w.Store
	}

	signals[signalPopularity] = math.Min(w.PopularityCap, float64(p.ViewCount)/w.PopularityDivisor)

	if avg, ok := ratings[p.ID]; ok && avg > 0 {
		signals[signalQuality] = w.Quality * (avg / 5)
	}

	var total float64
	for _, v := range signals {
		total += v
	}
	return total, signals
}

// neutralScores assigns every candidate the neutral score in input order.
func neutralScores(candidates []Candidate) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, ScoredCandidate{Candidate: c, Score: neutralScore})
	}
	return scored
}

// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/mercatus/internal/metrics"
)

// Generator labels for logs and metrics.
const (
	generatorBestSelling   = "best_selling"
	generatorContentBased  = "content_based"
	generatorCollaborative = "collaborative"
	generatorSimilar       = "similar"
	generatorCoPurchase    = "co_purchase"
	generatorSession       = "session"
)

// bestSelling is the fallback of last resort. It ranks by total quantity
// sold and pads with the most-viewed active products; if the sales query
// fails, the most-viewed query serves the whole result. It reports a
// degradation instead of an error and returns an empty list only when every
// query fails or the catalog is empty.
func (s *Service) bestSelling(ctx context.Context, limit int) ([]Candidate, *Degradation) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() {
		metrics.ObserveGeneratorDuration(generatorBestSelling, time.Since(start).Seconds())
	}()

	products, err := s.provider.BestSellingProducts(ctx, limit)
	var deg *Degradation
	if err != nil {
		deg = &Degradation{Reason: ReasonQueryFailure, Cause: err}
		products = nil
	}

	seen := make(map[int64]struct{}, limit)
	candidates := make([]Candidate, 0, limit)
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		candidates = append(candidates, newCandidate(p, SourcePopular, len(candidates)+1))
		if len(candidates) == limit {
			break
		}
	}

	if len(candidates) < limit {
		padded, padErr := s.provider.MostViewedActive(ctx, limit-len(candidates), sortedIDs(seen))
		if padErr != nil {
			if deg == nil {
				deg = &Degradation{Reason: ReasonQueryFailure, Cause: padErr}
			}
		} else {
			for _, p := range padded {
				if _, dup := seen[p.ID]; dup {
					continue
				}
				seen[p.ID] = struct{}{}
				candidates = append(candidates, newCandidate(p, SourcePopular, len(candidates)+1))
				if len(candidates) == limit {
					break
				}
			}
		}
	}

	if len(candidates) == 0 && deg == nil {
		deg = &Degradation{Reason: ReasonEmptyCatalog}
	}
	return candidates, deg
}

// contentBased proposes active products matching the profile's categories
// and widened price band, excluding everything the user has ever ordered.
// An empty profile simply applies no category or price filter.
func (s *Service) contentBased(ctx context.Context, userID int64, profile PreferenceProfile, limit int) ([]Candidate, *Degradation) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() {
		metrics.ObserveGeneratorDuration(generatorContentBased, time.Since(start).Seconds())
	}()

	ordered, err := s.provider.UserOrderedProductIDs(ctx, userID)
	if err != nil {
		return nil, &Degradation{Reason: ReasonQueryFailure, Cause: err}
	}

	var priceMin, priceMax float64
	if pr := profile.PriceRange; pr != nil {
		priceMin = pr.Min * s.cfg.PriceBand.Lower
		priceMax = pr.Max * s.cfg.PriceBand.Upper
	}

	products, err := s.provider.ActiveByCategories(ctx, sortedIDs(profile.Categories), priceMin, priceMax, ordered, limit)
	if err != nil {
		return nil, &Degradation{Reason: ReasonQueryFailure, Cause: err}
	}

	candidates := make([]Candidate, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, newCandidate(p, SourceContentBased, len(candidates)+1))
		if len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

// collaborative proposes products ordered by the user's nearest neighbors.
// Neighbors are other users ranked by count of overlapping ordered products;
// their purchases are aggregated by order-item count, excluding everything
// the user already ordered. Missing history or neighbors degrade without a
// cause so the facade can defer to best-selling.
func (s *Service) collaborative(ctx context.Context, userID int64, limit int) ([]Candidate, *Degradation) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() {
		metrics.ObserveGeneratorDuration(generatorCollaborative, time.Since(start).Seconds())
	}()

	ordered, err := s.provider.UserOrderedProductIDs(ctx, userID)
	if err != nil {
		return nil, &Degradation{Reason: ReasonQueryFailure, Cause: err}
	}
	if len(ordered) == 0 {
		return nil, &Degradation{Reason: ReasonNoHistory}
	}

	neighbors, err := s.provider.NeighborsByOverlap(ctx, userID, s.cfg.NeighborLimit)
	if err != nil {
		return nil, &Degradation{Reason: ReasonQueryFailure, Cause: err}
	}
	if len(neighbors) == 0 {
		return nil, &Degradation{Reason: ReasonNoNeighbors}
	}

	products, err := s.provider.ProductsOrderedByUsers(ctx, neighbors, ordered, limit)
	if err != nil {
		return nil, &Degradation{Reason: ReasonQueryFailure, Cause: err}
	}

	candidates := make([]Candidate, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, newCandidate(p, SourceCollaborative, len(candidates)+1))
		if len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

// similarTo proposes the same-category/same-store union for an anchor
// product, padded with best-selling. The anchor never appears in its own
// result.
func (s *Service) similarTo(ctx context.Context, anchor Product, limit int) ([]Candidate, *Degradation) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() {
		metrics.ObserveGeneratorDuration(generatorSimilar, time.Since(start).Seconds())
	}()

	products, err := s.provider.SimilarByCategoryAndStore(ctx, anchor, limit)
	var deg *Degradation
	if err != nil {
		deg = &Degradation{Reason: ReasonQueryFailure, Cause: err}
		products = nil
	}

	seen := map[int64]struct{}{anchor.ID: {}}
	candidates := make([]Candidate, 0, limit)
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		candidates = append(candidates, newCandidate(p, SourceCoPurchase, len(candidates)+1))
		if len(candidates) == limit {
			break
		}
	}

	if len(candidates) < limit {
		pad, padDeg := s.popularPad(ctx, limit-len(candidates), seen)
		if deg == nil {
			deg = padDeg
		}
		candidates = append(candidates, pad...)
	}
	return candidates, deg
}

// boughtTogether proposes products co-occurring in orders that contain the
// anchor, padded with best-selling. The anchor never appears in its own
// result.
func (s *Service) boughtTogether(ctx context.Context, productID int64, limit int) ([]Candidate, *Degradation) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() {
		metrics.ObserveGeneratorDuration(generatorCoPurchase, time.Since(start).Seconds())
	}()

	products, err := s.provider.CoPurchasedWith(ctx, productID, limit)
	var deg *Degradation
	if err != nil {
		deg = &Degradation{Reason: ReasonQueryFailure, Cause: err}
		products = nil
	}

	seen := map[int64]struct{}{productID: {}}
	candidates := make([]Candidate, 0, limit)
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		candidates = append(candidates, newCandidate(p, SourceCoPurchase, len(candidates)+1))
		if len(candidates) == limit {
			break
		}
	}

	if len(candidates) < limit {
		pad, padDeg := s.popularPad(ctx, limit-len(candidates), seen)
		if deg == nil {
			deg = padDeg
		}
		candidates = append(candidates, pad...)
	}
	return candidates, deg
}

// popularPad returns up to need best-selling candidates, skipping excluded
// IDs. It over-fetches by the exclusion count so exclusions don't starve the
// pad.
func (s *Service) popularPad(ctx context.Context, need int, exclude map[int64]struct{}) ([]Candidate, *Degradation) {
	if need <= 0 {
		return nil, nil
	}
	candidates, deg := s.bestSelling(ctx, need+len(exclude))
	out := make([]Candidate, 0, need)
	for _, c := range candidates {
		if _, skip := exclude[c.Product.ID]; skip {
			continue
		}
		out = append(out, c)
		if len(out) == need {
			break
		}
	}
	return out, deg
}

// newCandidate tags a product with its generator provenance and raw
// ordering signals.
func newCandidate(p Product, src Source, rank int) Candidate {
	return Candidate{
		Product: p,
		Source:  src,
		RawSignals: map[string]float64{
			"rank":       float64(rank),
			"view_count": float64(p.ViewCount),
		},
	}
}

// mergeCandidates unions candidate lists, first occurrence wins. A product
// proposed by several generators keeps its first provenance and receives no
// compounding score bonus.
func mergeCandidates(lists ...[]Candidate) []Candidate {
	var total int
	for _, l := range lists {
		total += len(l)
	}
	seen := make(map[int64]struct{}, total)
	merged := make([]Candidate, 0, total)
	for _, l := range lists {
		for _, c := range l {
			if _, dup := seen[c.Product.ID]; dup {
				continue
			}
			seen[c.Product.ID] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}

// candidateProducts extracts the product list in candidate order.
func candidateProducts(candidates []Candidate) []Product {
	products := make([]Product, 0, len(candidates))
	for _, c := range candidates {
		products = append(products, c.Product)
	}
	return products
}

// sortedIDs returns a set's members in ascending order for deterministic
// query arguments.
func sortedIDs(set map[int64]struct{}) []int64 {
	if len(set) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// toSet builds a membership set from an ID slice.
func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

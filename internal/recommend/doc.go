// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

// Package recommend implements the recommendation and ranking engine.
//
// # Architecture
//
// The engine blends four candidate strategies into ranked product lists:
//
//   - Best-selling: total quantity sold across all orders, padded with the
//     most-viewed active products. This is the fallback of last resort for
//     every other strategy.
//   - Content-based: category, price-band, and store affinity derived from
//     the user's delivered purchases and recent views.
//   - Collaborative: products ordered by neighbor users with overlapping
//     purchase history.
//   - Similar / co-purchase: same-category and same-store unions for an
//     anchor product, and co-occurrence counts across orders containing it.
//
// Candidates are fused by a weighted linear score (category match, price
// proximity, store affinity, popularity, review quality) and ranked with a
// stable sort. Final product-ID lists are cached per (kind, subject, limit)
// with bounded TTLs and rehydrated through the catalog on every hit, so
// cached entries stay resilient to product mutation.
//
// # Degradation Contract
//
// Every public operation on Service shares one contract: it never returns an
// error and never exceeds the requested limit. Internal failures degrade to
// the best-selling list, and an empty list is the absolute floor. Degraded
// paths are logged and counted, not propagated. Generators report their own
// degradations as typed Degradation values so the facade can decide whether
// to fall back, pad, or serve a partial list.
//
// # Data Access
//
// The engine reads the catalog/order/review store through the DataProvider
// interface and owns exactly one write path: product view upserts through
// ViewStore. Both are injected, so tests run against in-memory fakes.
//
// # Usage
//
//	svc, err := recommend.NewService(provider, provider, cacher, recommend.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//
//	products := svc.Personalized(ctx, userID, 8)
//
// # Thread Safety
//
// Service is safe for concurrent use. Operations are request-synchronous and
// share no mutable state beyond the injected cache; concurrent requests for
// the same subject may race to compute and overwrite the same cache entry,
// which is accepted (last writer wins over equivalent data).
package recommend

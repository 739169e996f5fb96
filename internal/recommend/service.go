// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/mercatus/internal/metrics"
)

// Operation labels for logs and metrics.
const (
	opPersonalized  = "personalized"
	opSession       = "session"
	opSimilar       = "similar"
	opTogether      = "bought_together"
	opBestSelling   = "best_selling"
	opCollaborative = "collaborative"
)

// Outcome labels for the recommendation request counter.
const (
	outcomeOK       = "ok"
	outcomeFallback = "fallback"
	outcomeEmpty    = "empty"
)

// Service is the public recommendation facade.
//
// Every operation follows the same two-state machine: cache-check, then
// compute-or-serve. Compute is try-primary with immediate, unconditional
// fallback to best-selling on any failure; there is no retry. Operations
// never return errors and never exceed the requested limit.
type Service struct {
	provider  DataProvider
	cache     Cache
	extractor *Extractor
	tracker   *Tracker
	cfg       *Config
	logger    zerolog.Logger

	// scorer computes one candidate's fused score. Seam for the fusion
	// panic boundary.
	scorer func(Product, PreferenceProfile, map[int64]float64, Weights) (float64, map[string]float64)
}

// NewService creates the recommendation facade. cache may be nil to disable
// caching. A nil cfg uses DefaultConfig; the config is cloned, so later
// mutation by the caller has no effect.
func NewService(provider DataProvider, views ViewStore, cache Cache, cfg *Config, logger zerolog.Logger) (*Service, error) {
	if provider == nil {
		return nil, errors.New("recommend: data provider is required")
	}
	if views == nil {
		return nil, errors.New("recommend: view store is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("recommend: invalid config: %w", err)
	}
	cfg = cfg.Clone()

	logger = logger.With().Str("component", "recommend").Logger()
	return &Service{
		provider:  provider,
		cache:     cache,
		extractor: NewExtractor(provider, cfg, logger),
		tracker:   NewTracker(views, cache, cfg, logger),
		cfg:       cfg,
		logger:    logger,
		scorer:    scoreOne,
	}, nil
}

// RecordView records a product view event. See Tracker.Record.
func (s *Service) RecordView(ctx context.Context, viewer Viewer, productID int64) {
	s.tracker.Record(ctx, viewer, productID)
}

// Personalized returns ranked recommendations for a user. Anonymous callers
// (userID <= 0) receive the best-selling list.
//
// Content-based and collaborative candidates are generated in parallel with
// a configured split, merged without duplicates, fused by score, and then
// passed through the authoritative purchase-exclusion gate: no product the
// user has received in a delivered order appears in the result.
func (s *Service) Personalized(ctx context.Context, userID int64, limit int) []Product {
	limit = s.clampLimit(limit)
	start := time.Now()
	defer func() {
		metrics.ObserveRecommendationDuration(opPersonalized, time.Since(start).Seconds())
	}()

	if userID <= 0 {
		metrics.RecordRecommendation(opPersonalized, outcomeFallback)
		return s.bestSellingList(ctx, limit)
	}

	key := userCacheKey(userID, limit)
	if products, ok := s.fromCache(ctx, key); ok {
		metrics.RecordRecommendation(opPersonalized, outcomeOK)
		return products
	}

	products, ok := s.computePersonalized(ctx, userID, limit)
	if !ok {
		metrics.RecordRecommendation(opPersonalized, outcomeFallback)
		return s.bestSellingList(ctx, limit)
	}
	s.storeCache(ctx, key, products, s.cfg.TTL.User)
	metrics.RecordRecommendation(opPersonalized, outcomeOK)
	return products
}

// SessionBased returns recommendations for an anonymous browsing session,
// derived from the categories of the session's recent views. Sessions with
// no views receive the best-selling list.
func (s *Service) SessionBased(ctx context.Context, sessionKey string, limit int) []Product {
	limit = s.clampLimit(limit)
	start := time.Now()
	defer func() {
		metrics.ObserveRecommendationDuration(opSession, time.Since(start).Seconds())
	}()

	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		metrics.RecordRecommendation(opSession, outcomeFallback)
		return s.bestSellingList(ctx, limit)
	}

	key := sessionCacheKey(sessionKey, limit)
	if products, ok := s.fromCache(ctx, key); ok {
		metrics.RecordRecommendation(opSession, outcomeOK)
		return products
	}

	products, ok := s.computeSession(ctx, sessionKey, limit)
	if !ok {
		metrics.RecordRecommendation(opSession, outcomeFallback)
		return s.bestSellingList(ctx, limit)
	}
	if len(products) == 0 {
		metrics.RecordRecommendation(opSession, outcomeEmpty)
		return products
	}
	s.storeCache(ctx, key, products, s.cfg.TTL.Session)
	metrics.RecordRecommendation(opSession, outcomeOK)
	return products
}

// SimilarTo returns products similar to an anchor: the same-category and
// same-store union, padded with best sellers. The anchor itself never
// appears in the result.
func (s *Service) SimilarTo(ctx context.Context, productID int64, limit int) []Product {
	limit = s.clampLimit(limit)
	start := time.Now()
	defer func() {
		metrics.ObserveRecommendationDuration(opSimilar, time.Since(start).Seconds())
	}()

	if productID <= 0 {
		metrics.RecordRecommendation(opSimilar, outcomeFallback)
		return s.bestSellingList(ctx, limit)
	}

	key := similarCacheKey(productID, limit)
	if products, ok := s.fromCache(ctx, key); ok {
		metrics.RecordRecommendation(opSimilar, outcomeOK)
		return products
	}

	anchor, err := s.productByID(ctx, productID)
	if err != nil {
		s.logger.Debug().Err(err).Str("op", opSimilar).Int64("product_id", productID).
			Msg("Anchor lookup failed, deferring to best sellers")
		metrics.RecordRecommendation(opSimilar, outcomeFallback)
		return excludeID(s.bestSellingList(ctx, limit), productID)
	}

	candidates, deg := s.similarTo(ctx, anchor, limit)
	if deg != nil {
		s.logDegradation(generatorSimilar, deg)
	}
	products := candidateProducts(candidates)
	if len(products) == 0 {
		metrics.RecordRecommendation(opSimilar, outcomeEmpty)
		return products
	}
	s.storeCache(ctx, key, products, s.cfg.TTL.Product)
	metrics.RecordRecommendation(opSimilar, outcomeOK)
	return products
}

// BoughtTogether returns products frequently co-purchased with an anchor,
// padded with best sellers. The anchor itself never appears in the result.
func (s *Service) BoughtTogether(ctx context.Context, productID int64, limit int) []Product {
	limit = s.clampLimit(limit)
	start := time.Now()
	defer func() {
		metrics.ObserveRecommendationDuration(opTogether, time.Since(start).Seconds())
	}()

	if productID <= 0 {
		metrics.RecordRecommendation(opTogether, outcomeFallback)
		return s.bestSellingList(ctx, limit)
	}

	key := togetherCacheKey(productID, limit)
	if products, ok := s.fromCache(ctx, key); ok {
		metrics.RecordRecommendation(opTogether, outcomeOK)
		return products
	}

	candidates, deg := s.boughtTogether(ctx, productID, limit)
	if deg != nil {
		s.logDegradation(generatorCoPurchase, deg)
	}
	products := candidateProducts(candidates)
	if len(products) == 0 {
		metrics.RecordRecommendation(opTogether, outcomeEmpty)
		return products
	}
	s.storeCache(ctx, key, products, s.cfg.TTL.Product)
	metrics.RecordRecommendation(opTogether, outcomeOK)
	return products
}

// BestSelling returns the global best-selling list.
func (s *Service) BestSelling(ctx context.Context, limit int) []Product {
	limit = s.clampLimit(limit)
	start := time.Now()
	defer func() {
		metrics.ObserveRecommendationDuration(opBestSelling, time.Since(start).Seconds())
	}()

	products := s.bestSellingList(ctx, limit)
	if len(products) == 0 {
		metrics.RecordRecommendation(opBestSelling, outcomeEmpty)
	} else {
		metrics.RecordRecommendation(opBestSelling, outcomeOK)
	}
	return products
}

// Collaborative exposes the collaborative generator directly. Degradations
// of any kind defer to best-selling. Results are not independently cached;
// the hot path is reached through Personalized, which is.
func (s *Service) Collaborative(ctx context.Context, userID int64, limit int) []Product {
	limit = s.clampLimit(limit)
	start := time.Now()
	defer func() {
		metrics.ObserveRecommendationDuration(opCollaborative, time.Since(start).Seconds())
	}()

	if userID <= 0 {
		metrics.RecordRecommendation(opCollaborative, outcomeFallback)
		return s.bestSellingList(ctx, limit)
	}

	candidates, deg := s.collaborative(ctx, userID, limit)
	if deg != nil {
		s.logDegradation(generatorCollaborative, deg)
		metrics.RecordRecommendation(opCollaborative, outcomeFallback)
		return s.bestSellingList(ctx, limit)
	}
	products := candidateProducts(candidates)
	if len(products) == 0 {
		metrics.RecordRecommendation(opCollaborative, outcomeEmpty)
		return products
	}
	metrics.RecordRecommendation(opCollaborative, outcomeOK)
	return products
}

// computePersonalized runs the primary personalization path. It reports
// ok=false whenever the facade should fall back to best-selling: no
// preference signal at all, an empty merged candidate set, a failed
// purchase-exclusion lookup, or an empty post-gate result.
func (s *Service) computePersonalized(ctx context.Context, userID int64, limit int) ([]Product, bool) {
	profile := s.extractor.Extract(ctx, userID)
	if profile.IsEmpty() {
		s.logger.Debug().Int64("user_id", userID).
			Msg("No preference signals, deferring to best sellers")
		return nil, false
	}

	contentLimit := int(float64(limit) * s.cfg.ContentShare)
	collabLimit := limit - contentLimit

	var (
		contentCands []Candidate
		collabCands  []Candidate
		contentDeg   *Degradation
		collabDeg    *Degradation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		contentCands, contentDeg = s.contentBased(gctx, userID, profile, contentLimit)
		return nil
	})
	g.Go(func() error {
		collabCands, collabDeg = s.collaborative(gctx, userID, collabLimit)
		return nil
	})
	_ = g.Wait() // generators report degradations, never errors

	if contentDeg != nil {
		s.logDegradation(generatorContentBased, contentDeg)
	}
	if collabDeg != nil {
		s.logDegradation(generatorCollaborative, collabDeg)
	}

	merged := mergeCandidates(contentCands, collabCands)
	if len(merged) == 0 {
		return nil, false
	}

	scored := s.scoreCandidates(merged, profile, s.ratingsFor(ctx, merged))

	delivered, err := s.provider.UserDeliveredProductIDs(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).
			Msg("Purchase-exclusion lookup failed, deferring to best sellers")
		return nil, false
	}
	deliveredSet := toSet(delivered)

	products := make([]Product, 0, limit)
	for _, sc := range scored {
		if _, bought := deliveredSet[sc.Candidate.Product.ID]; bought {
			continue
		}
		products = append(products, sc.Candidate.Product)
		if len(products) == limit {
			break
		}
	}
	if len(products) == 0 {
		return nil, false
	}
	return products, true
}

// computeSession derives recommendations from the session's recent views:
// same-category actives excluding everything already viewed, by view count,
// padded with best sellers. ok=false defers the facade to best-selling.
func (s *Service) computeSession(ctx context.Context, sessionKey string, limit int) ([]Product, bool) {
	viewer := Viewer{SessionKey: sessionKey}
	recent, err := s.provider.RecentViewedProducts(ctx, viewer, s.cfg.SessionViewWindow)
	if err != nil {
		s.logDegradation(generatorSession, &Degradation{Reason: ReasonQueryFailure, Cause: err})
		return nil, false
	}
	if len(recent) == 0 {
		s.logDegradation(generatorSession, &Degradation{Reason: ReasonNoSessionData})
		return nil, false
	}

	viewed := make(map[int64]struct{}, len(recent))
	categories := make(map[int64]struct{})
	for _, p := range recent {
		viewed[p.ID] = struct{}{}
		if p.CategoryID != 0 {
			categories[p.CategoryID] = struct{}{}
		}
	}

	// Uncategorized-only view history yields no category candidates; the
	// best-selling pad serves the whole result.
	var products []Product
	if len(categories) > 0 {
		products, err = s.provider.ActiveByCategories(ctx, sortedIDs(categories), 0, 0, sortedIDs(viewed), limit)
		if err != nil {
			s.logDegradation(generatorSession, &Degradation{Reason: ReasonQueryFailure, Cause: err})
			return nil, false
		}
		if len(products) > limit {
			products = products[:limit]
		}
	}

	if len(products) < limit {
		exclude := make(map[int64]struct{}, len(viewed)+len(products))
		for id := range viewed {
			exclude[id] = struct{}{}
		}
		for _, p := range products {
			exclude[p.ID] = struct{}{}
		}
		pad, padDeg := s.popularPad(ctx, limit-len(products), exclude)
		if padDeg != nil {
			s.logDegradation(generatorBestSelling, padDeg)
		}
		for _, c := range pad {
			products = append(products, c.Product)
		}
	}
	return products, true
}

// bestSellingList computes or serves the cached global best-selling list.
// Shared by the BestSelling operation and every fallback path, so Scenario
// equality holds: a degraded operation returns exactly what BestSelling
// would.
func (s *Service) bestSellingList(ctx context.Context, limit int) []Product {
	key := bestSellingCacheKey(limit)
	if products, ok := s.fromCache(ctx, key); ok {
		return products
	}

	candidates, deg := s.bestSelling(ctx, limit)
	if deg != nil {
		s.logDegradation(generatorBestSelling, deg)
	}
	products := candidateProducts(candidates)
	s.storeCache(ctx, key, products, s.cfg.TTL.BestSelling)
	return products
}

// ratingsFor loads mean approved ratings for the candidates. A failed
// lookup forfeits only the quality signal, not the request.
func (s *Service) ratingsFor(ctx context.Context, candidates []Candidate) map[int64]float64 {
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Product.ID)
	}
	ratings, err := s.provider.ApprovedRatingAverages(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rating lookup failed, quality signal omitted")
		return nil
	}
	return ratings
}

// productByID resolves a single product or ErrProductNotFound.
func (s *Service) productByID(ctx context.Context, id int64) (Product, error) {
	products, err := s.provider.ProductsByIDs(ctx, []int64{id})
	if err != nil {
		return Product{}, err
	}
	if len(products) == 0 {
		return Product{}, ErrProductNotFound
	}
	return products[0], nil
}

// fromCache serves a cached ID list, rehydrated through the catalog. IDs
// that no longer resolve are dropped, so a hit may return fewer products
// than originally cached. Hydration failure counts as a miss.
func (s *Service) fromCache(ctx context.Context, key string) ([]Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	ids, ok := s.cache.Get(ctx, key)
	if !ok || len(ids) == 0 {
		return nil, false
	}

	products, err := s.provider.ProductsByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("Cache hydration failed, recomputing")
		return nil, false
	}
	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, found := byID[id]; found {
			ordered = append(ordered, p)
		}
	}
	if len(ordered) == 0 {
		return nil, false
	}
	return ordered, true
}

// storeCache writes the result's ID list. Empty results are not cached;
// they recompute until the catalog has data.
func (s *Service) storeCache(ctx context.Context, key string, products []Product, ttl time.Duration) {
	if s.cache == nil || len(products) == 0 {
		return
	}
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	s.cache.Set(ctx, key, ids, ttl)
}

// clampLimit applies the default for non-positive limits and caps at the
// configured maximum.
func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

// logDegradation records a generator degradation in logs and metrics.
// Query failures log at warn with their cause; signal-unavailable cases log
// at debug.
func (s *Service) logDegradation(generator string, deg *Degradation) {
	metrics.RecordGeneratorDegradation(generator, deg.Reason.String())
	evt := s.logger.Debug()
	if deg.Reason == ReasonQueryFailure {
		evt = s.logger.Warn()
	}
	evt.Err(deg.Cause).Str("generator", generator).Str("reason", deg.Reason.String()).
		Msg("Generator degraded")
}

// excludeID filters one product ID out of a list.
func excludeID(products []Product, id int64) []Product {
	out := products[:0:0]
	for _, p := range products {
		if p.ID == id {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Cache keys follow {kind}:{subject}:{limit}. Values are ordered product-ID
// lists, never full products, so cached entries survive product mutation.
func userCacheKey(userID int64, limit int) string {
	return fmt.Sprintf("user:%d:%d", userID, limit)
}

func sessionCacheKey(sessionKey string, limit int) string {
	return fmt.Sprintf("session:%s:%d", sessionKey, limit)
}

func similarCacheKey(productID int64, limit int) string {
	return fmt.Sprintf("similar:%d:%d", productID, limit)
}

func togetherCacheKey(productID int64, limit int) string {
	return fmt.Sprintf("together:%d:%d", productID, limit)
}

func bestSellingCacheKey(limit int) string {
	return fmt.Sprintf("bestselling:global:%d", limit)
}

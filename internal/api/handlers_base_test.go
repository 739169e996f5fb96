// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/mercatus/internal/cache"
	"github.com/tomtom215/mercatus/internal/config"
	"github.com/tomtom215/mercatus/internal/logging"
	"github.com/tomtom215/mercatus/internal/models"
	"github.com/tomtom215/mercatus/internal/recommend"
)

func TestMain(m *testing.M) {
	logging.SetLogger(zerolog.Nop())
	os.Exit(m.Run())
}

// testCatalog returns ten active products. Catalog order doubles as the
// best-selling order, so fallback results are predictable.
func testCatalog() []recommend.Product {
	catalog := make([]recommend.Product, 0, 10)
	for i := int64(1); i <= 10; i++ {
		catalog = append(catalog, recommend.Product{
			ID:             i,
			Name:           fmt.Sprintf("Product %d", i),
			CategoryID:     (i + 1) / 2, // two products per category
			StoreID:        (i + 2) / 2,
			Price:          float64(i) * 10,
			EffectivePrice: float64(i) * 10,
			ViewCount:      (11 - i) * 10,
			IsActive:       true,
		})
	}
	return catalog
}

// stubProvider serves the canned catalog. Purchase history is empty, so
// personalized and collaborative requests exercise the best-selling
// fallback deterministically.
type stubProvider struct {
	catalog      []recommend.Product
	coPurchased  map[int64][]int64
	sessionViews map[string][]int64
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		catalog: testCatalog(),
		coPurchased: map[int64][]int64{
			1: {5, 7},
			5: {1},
		},
		sessionViews: map[string][]int64{
			"s-1": {3},
		},
	}
}

var _ recommend.DataProvider = (*stubProvider)(nil)

func (s *stubProvider) byIDs(ids []int64) []recommend.Product {
	byID := make(map[int64]recommend.Product, len(s.catalog))
	for _, p := range s.catalog {
		byID[p.ID] = p
	}
	out := make([]recommend.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func capList(products []recommend.Product, limit int) []recommend.Product {
	if limit >= 0 && len(products) > limit {
		return products[:limit]
	}
	return products
}

func (s *stubProvider) BestSellingProducts(_ context.Context, limit int) ([]recommend.Product, error) {
	return capList(s.catalog, limit), nil
}

func (s *stubProvider) MostViewedActive(_ context.Context, limit int, excludeIDs []int64) ([]recommend.Product, error) {
	exclude := make(map[int64]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}
	out := make([]recommend.Product, 0, limit)
	for _, p := range s.catalog {
		if _, skip := exclude[p.ID]; skip {
			continue
		}
		out = append(out, p)
	}
	return capList(out, limit), nil
}

func (s *stubProvider) ActiveByCategories(_ context.Context, categoryIDs []int64, _, _ float64, excludeIDs []int64, limit int) ([]recommend.Product, error) {
	categories := make(map[int64]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		categories[id] = struct{}{}
	}
	exclude := make(map[int64]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}
	out := make([]recommend.Product, 0, limit)
	for _, p := range s.catalog {
		if len(categories) > 0 {
			if _, ok := categories[p.CategoryID]; !ok {
				continue
			}
		}
		if _, skip := exclude[p.ID]; skip {
			continue
		}
		out = append(out, p)
	}
	return capList(out, limit), nil
}

func (s *stubProvider) ProductsByIDs(_ context.Context, ids []int64) ([]recommend.Product, error) {
	return s.byIDs(ids), nil
}

func (s *stubProvider) SimilarByCategoryAndStore(_ context.Context, anchor recommend.Product, limit int) ([]recommend.Product, error) {
	out := make([]recommend.Product, 0, limit)
	for _, p := range s.catalog {
		if p.ID == anchor.ID {
			continue
		}
		if p.CategoryID != anchor.CategoryID && p.StoreID != anchor.StoreID {
			continue
		}
		out = append(out, p)
	}
	return capList(out, limit), nil
}

func (s *stubProvider) CoPurchasedWith(_ context.Context, productID int64, limit int) ([]recommend.Product, error) {
	return capList(s.byIDs(s.coPurchased[productID]), limit), nil
}

func (s *stubProvider) UserOrderedProductIDs(_ context.Context, _ int64) ([]int64, error) {
	return nil, nil
}

func (s *stubProvider) UserDeliveredProductIDs(_ context.Context, _ int64) ([]int64, error) {
	return nil, nil
}

func (s *stubProvider) DeliveredProducts(_ context.Context, _ int64) ([]recommend.Product, error) {
	return nil, nil
}

func (s *stubProvider) NeighborsByOverlap(_ context.Context, _ int64, _ int) ([]int64, error) {
	return nil, nil
}

func (s *stubProvider) ProductsOrderedByUsers(_ context.Context, _ []int64, _ []int64, _ int) ([]recommend.Product, error) {
	return nil, nil
}

func (s *stubProvider) RecentViewedProducts(_ context.Context, viewer recommend.Viewer, limit int) ([]recommend.Product, error) {
	if viewer.SessionKey == "" {
		return nil, nil
	}
	return capList(s.byIDs(s.sessionViews[viewer.SessionKey]), limit), nil
}

func (s *stubProvider) ApprovedRatingAverages(_ context.Context, _ []int64) (map[int64]float64, error) {
	return map[int64]float64{}, nil
}

// recordedView captures one UpsertView call.
type recordedView struct {
	viewer    recommend.Viewer
	productID int64
}

// stubViewStore records upserts for assertions.
type stubViewStore struct {
	mu    sync.Mutex
	views []recordedView
}

var _ recommend.ViewStore = (*stubViewStore)(nil)

func (s *stubViewStore) UpsertView(_ context.Context, viewer recommend.Viewer, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, recordedView{viewer: viewer, productID: productID})
	return nil
}

func (s *stubViewStore) recorded() []recordedView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedView, len(s.views))
	copy(out, s.views)
	return out
}

// newTestRouter builds the full routing stack around the stub catalog with
// rate limiting disabled. The database handle is nil, which the health
// endpoints report as a degraded state.
func newTestRouter(t *testing.T) (http.Handler, *stubViewStore) {
	t.Helper()

	views := &stubViewStore{}
	svc, err := recommend.NewService(newStubProvider(), views, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}

	cacher := cache.NewMemory(time.Hour, 100)
	t.Cleanup(func() { _ = cacher.Close() })

	handler := NewHandler(svc, nil, cacher, "test")
	router := NewRouter(handler, &config.APIConfig{
		RateLimitDisabled: true,
		CORSOrigins:       []string{"*"},
	})
	return router.Setup(), views
}

// newTestHandler builds a bare handler for direct method-level tests.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	svc, err := recommend.NewService(newStubProvider(), &stubViewStore{}, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}
	return NewHandler(svc, nil, nil, "test")
}

func doRequest(t *testing.T, h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// listEnvelope is the typed success envelope for recommendation endpoints.
type listEnvelope struct {
	Status   string                    `json:"status"`
	Data     models.RecommendationList `json:"data"`
	Metadata models.Metadata           `json:"metadata"`
	Error    *models.APIError          `json:"error"`
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listEnvelope {
	t.Helper()

	var envelope listEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return envelope
}

// errorEnvelope is the typed error envelope.
type errorEnvelope struct {
	Status   string           `json:"status"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()

	var envelope errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode error response %q: %v", w.Body.String(), err)
	}
	if envelope.Error == nil {
		t.Fatalf("Expected error payload in response %q", w.Body.String())
	}
	return envelope
}

func productID(t *testing.T, list models.RecommendationList, index int) int64 {
	t.Helper()

	if index >= len(list.Products) {
		t.Fatalf("Product index %d out of range, got %d products", index, len(list.Products))
	}
	return list.Products[index].ID
}

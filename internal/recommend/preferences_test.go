// Mercatus - Marketplace Recommendation and Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mercatus

package recommend

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
)

// --- Test: Extract ---

func TestExtract_BuildsProfileFromHistory(t *testing.T) {
	t.Parallel()

	delivered := []Product{
		{ID: 1, CategoryID: 1, StoreID: 10, EffectivePrice: 10, IsActive: true},
		{ID: 2, CategoryID: 2, StoreID: 20, EffectivePrice: 30, IsActive: true},
		{ID: 3, CategoryID: 2, StoreID: 10, EffectivePrice: 20, IsActive: true},
	}
	viewed := []Product{
		{ID: 4, CategoryID: 3, StoreID: 30, IsActive: true},
		{ID: 5, CategoryID: 0, StoreID: 40, IsActive: true},
	}
	provider := &mockProvider{
		delivered:   delivered,
		recentViews: map[string][]Product{"user:7": viewed},
	}
	ex := NewExtractor(provider, DefaultConfig(), testLogger())

	profile := ex.Extract(context.Background(), 7)

	wantCategories := map[int64]struct{}{1: {}, 2: {}, 3: {}}
	if !reflect.DeepEqual(profile.Categories, wantCategories) {
		t.Errorf("Categories = %v, want %v", profile.Categories, wantCategories)
	}

	// Store affinity comes from purchases only, never views.
	wantStores := map[int64]struct{}{10: {}, 20: {}}
	if !reflect.DeepEqual(profile.Stores, wantStores) {
		t.Errorf("Stores = %v, want %v", profile.Stores, wantStores)
	}

	if profile.PriceRange == nil {
		t.Fatal("PriceRange = nil, want price statistics")
	}
	if profile.PriceRange.Min != 10 || profile.PriceRange.Max != 30 || profile.PriceRange.Avg != 20 {
		t.Errorf("PriceRange = %+v, want {Min:10 Max:30 Avg:20}", *profile.PriceRange)
	}
}

func TestExtract_PassesViewWindow(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{}
	cfg := DefaultConfig()
	cfg.RecentViewWindow = 5
	ex := NewExtractor(provider, cfg, testLogger())

	ex.Extract(context.Background(), 7)

	provider.mu.Lock()
	defer provider.mu.Unlock()
	if provider.lastRecentViews.limit != 5 {
		t.Errorf("view window = %d, want 5", provider.lastRecentViews.limit)
	}
	if provider.lastRecentViews.viewer.UserID != 7 {
		t.Errorf("viewer = %v, want user 7", provider.lastRecentViews.viewer)
	}
}

func TestExtract_UncategorizedContributesNoCategory(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		delivered: []Product{{ID: 1, CategoryID: 0, StoreID: 10, EffectivePrice: 5, IsActive: true}},
	}
	ex := NewExtractor(provider, DefaultConfig(), testLogger())

	profile := ex.Extract(context.Background(), 7)

	if len(profile.Categories) != 0 {
		t.Errorf("Categories = %v, want empty", profile.Categories)
	}
	if _, ok := profile.Stores[10]; !ok {
		t.Error("store 10 missing from profile")
	}
	if profile.IsEmpty() {
		t.Error("IsEmpty() = true, want false: store and price signals present")
	}
}

func TestExtract_ViewsOnlyProfileHasNoPriceRange(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		recentViews: map[string][]Product{
			"user:7": {{ID: 4, CategoryID: 3, StoreID: 30, IsActive: true}},
		},
	}
	ex := NewExtractor(provider, DefaultConfig(), testLogger())

	profile := ex.Extract(context.Background(), 7)

	if _, ok := profile.Categories[3]; !ok {
		t.Error("viewed category 3 missing from profile")
	}
	if len(profile.Stores) != 0 {
		t.Errorf("Stores = %v, want empty", profile.Stores)
	}
	if profile.PriceRange != nil {
		t.Errorf("PriceRange = %+v, want nil without purchases", *profile.PriceRange)
	}
	if profile.IsEmpty() {
		t.Error("IsEmpty() = true, want false")
	}
}

func TestExtract_SinglePurchasePriceRange(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{
		delivered: []Product{{ID: 1, CategoryID: 1, StoreID: 1, EffectivePrice: 42, IsActive: true}},
	}
	ex := NewExtractor(provider, DefaultConfig(), testLogger())

	profile := ex.Extract(context.Background(), 7)

	if profile.PriceRange == nil {
		t.Fatal("PriceRange = nil, want price statistics")
	}
	if profile.PriceRange.Min != 42 || profile.PriceRange.Max != 42 || profile.PriceRange.Avg != 42 {
		t.Errorf("PriceRange = %+v, want {Min:42 Max:42 Avg:42}", *profile.PriceRange)
	}
}

func TestExtract_FailuresYieldEmptyProfile(t *testing.T) {
	t.Parallel()

	queryErr := errors.New("connection refused")

	tests := []struct {
		name     string
		provider *mockProvider
		userID   int64
	}{
		{
			name:     "delivered lookup fails",
			provider: &mockProvider{deliveredErr: queryErr},
			userID:   7,
		},
		{
			name: "view lookup fails",
			provider: &mockProvider{
				delivered:      []Product{{ID: 1, CategoryID: 1, StoreID: 1, EffectivePrice: 5, IsActive: true}},
				recentViewsErr: queryErr,
			},
			userID: 7,
		},
		{
			name:     "anonymous user",
			provider: &mockProvider{},
			userID:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ex := NewExtractor(tt.provider, DefaultConfig(), testLogger())
			profile := ex.Extract(context.Background(), tt.userID)

			if !profile.IsEmpty() {
				t.Errorf("profile = %+v, want empty", profile)
			}
		})
	}
}

func TestExtract_AnonymousSkipsLookups(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{}
	ex := NewExtractor(provider, DefaultConfig(), testLogger())

	ex.Extract(context.Background(), 0)

	if calls := atomic.LoadInt32(&provider.deliveredCalls); calls != 0 {
		t.Errorf("delivered lookup ran for anonymous user: %d calls", calls)
	}
	if calls := atomic.LoadInt32(&provider.recentViewCalls); calls != 0 {
		t.Errorf("view lookup ran for anonymous user: %d calls", calls)
	}
}

package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalogsearch/internal/domain"
	"github.com/utafrali/catalogsearch/internal/index"
	apperrors "github.com/utafrali/catalogsearch/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string       { return &s }
func floatPtr(f float64) *float64 { return &f }

func testCatalog() []domain.Product {
	return []domain.Product{
		{Code: "BRK-001", Brand: "Acme", Category: "Brakes", Description: "Front brake pad set", CurrentPrice: 49.9, IsAvailable: true},
		{Code: "BRK-002", Brand: "Zenith", Category: "Brakes", Description: "Rear brake pad set", CurrentPrice: 39.9, IsAvailable: true},
		{Code: "BRK-003", Brand: "Acme", Category: "Brakes", Description: "Brake fluid DOT4", CurrentPrice: 12.5, IsAvailable: false},
		{Code: "OIL-001", Brand: "Zenith", Category: "Fluids", Description: "Synthetic engine oil", CurrentPrice: 29, IsAvailable: true},
	}
}

// countingIndex counts how often the index is actually searched.
type countingIndex struct {
	*index.Index
	searches int32
}

func (c *countingIndex) SearchScored(query string, maxResults int) []index.Hit {
	atomic.AddInt32(&c.searches, 1)
	return c.Index.SearchScored(query, maxResults)
}

func newTestService(t *testing.T, records []domain.Product) (*SearchService, *countingIndex) {
	t.Helper()
	idx := &countingIndex{Index: index.New(nil)}
	if records != nil {
		idx.BuildIndex(records)
	}
	svc, err := NewSearchService(idx, Options{CacheSize: 16}, newTestLogger())
	require.NoError(t, err)
	return svc, idx
}

func codesOf(res *domain.SearchResult) []string {
	codes := make([]string, len(res.Products))
	for i, p := range res.Products {
		codes[i] = p.Code
	}
	return codes
}

func TestSearchProducts_Filters(t *testing.T) {
	svc, _ := newTestService(t, testCatalog())

	tests := []struct {
		name  string
		query domain.SearchQuery
		want  []string
	}{
		{"relevance ties by code", domain.SearchQuery{Query: "brake"}, []string{"BRK-001", "BRK-002", "BRK-003"}},
		{"brand", domain.SearchQuery{Query: "brake", Brand: strPtr("ACME")}, []string{"BRK-001", "BRK-003"}},
		{"category", domain.SearchQuery{Query: "brake", Category: strPtr("brakes")}, []string{"BRK-001", "BRK-002", "BRK-003"}},
		{"available only", domain.SearchQuery{Query: "brake", AvailableOnly: true}, []string{"BRK-001", "BRK-002"}},
		{"price range", domain.SearchQuery{Query: "brake", MinPrice: floatPtr(20), MaxPrice: floatPtr(45)}, []string{"BRK-002"}},
		{"price asc", domain.SearchQuery{Query: "brake", SortBy: domain.SortPriceAsc}, []string{"BRK-003", "BRK-002", "BRK-001"}},
		{"price desc", domain.SearchQuery{Query: "brake", SortBy: domain.SortPriceDesc}, []string{"BRK-001", "BRK-002", "BRK-003"}},
		{"code desc", domain.SearchQuery{Query: "brake", SortBy: domain.SortCodeDesc}, []string{"BRK-003", "BRK-002", "BRK-001"}},
		{"name asc", domain.SearchQuery{Query: "brake", SortBy: domain.SortNameAsc}, []string{"BRK-003", "BRK-001", "BRK-002"}},
		{"name desc", domain.SearchQuery{Query: "brake", SortBy: domain.SortNameDesc}, []string{"BRK-002", "BRK-001", "BRK-003"}},
		{"empty query lists by brand then description", domain.SearchQuery{}, []string{"BRK-003", "BRK-001", "BRK-002", "OIL-001"}},
		{"empty query with explicit sort", domain.SearchQuery{SortBy: domain.SortCodeAsc}, []string{"BRK-001", "BRK-002", "BRK-003", "OIL-001"}},
		{"empty query with filter", domain.SearchQuery{Category: strPtr("Fluids")}, []string{"OIL-001"}},
		{"no match", domain.SearchQuery{Query: "turbocharger"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			res, err := svc.SearchProducts(context.Background(), &q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, codesOf(res))
			assert.Equal(t, len(tt.want), res.Total)
		})
	}
}

func TestSearchProducts_RelevanceOrderAndScores(t *testing.T) {
	svc, _ := newTestService(t, testCatalog())

	res, err := svc.SearchProducts(context.Background(), &domain.SearchQuery{Query: "acme brake"})
	require.NoError(t, err)

	// brand boost 2.0 for acme plus 1.0 for brake
	require.Equal(t, []string{"BRK-001", "BRK-003", "BRK-002"}, codesOf(res))
	assert.InDelta(t, 3.0, res.Products[0].Score, 1e-9)
	assert.InDelta(t, 1.0, res.Products[2].Score, 1e-9)
}

func TestSearchProducts_Pagination(t *testing.T) {
	svc, _ := newTestService(t, testCatalog())

	res, err := svc.SearchProducts(context.Background(), &domain.SearchQuery{Query: "brake", Page: 2, PerPage: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"BRK-003"}, codesOf(res))
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.TotalPages)
	assert.False(t, res.HasNext)

	res, err = svc.SearchProducts(context.Background(), &domain.SearchQuery{Query: "brake", Page: 9, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, res.Products)
	assert.Equal(t, 3, res.Total)
}

func TestSearchProducts_Suggestions(t *testing.T) {
	svc, _ := newTestService(t, testCatalog())

	res, err := svc.SearchProducts(context.Background(), &domain.SearchQuery{Query: "front brak"})
	require.NoError(t, err)
	assert.Equal(t, []string{"brake", "brakes"}, res.Suggestions)
}

func TestSearchProducts_InvalidQuery(t *testing.T) {
	svc, _ := newTestService(t, testCatalog())

	_, err := svc.SearchProducts(context.Background(), &domain.SearchQuery{Query: "brake", SortBy: "popularity"})
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))

	_, err = svc.SearchProducts(context.Background(), &domain.SearchQuery{MinPrice: floatPtr(10), MaxPrice: floatPtr(5)})
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
}

func TestSearchProducts_UninitializedIndexIsEmpty(t *testing.T) {
	svc, _ := newTestService(t, nil)

	res, err := svc.SearchProducts(context.Background(), &domain.SearchQuery{Query: "brake"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Suggestions)
}

func TestHits_CachedUntilIndexChanges(t *testing.T) {
	svc, idx := newTestService(t, testCatalog())
	ctx := context.Background()

	first := svc.Hits(ctx, "Brake ", 10)
	second := svc.Hits(ctx, "brake", 10)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&idx.searches), "normalized repeat should be served from cache")
	assert.Equal(t, 1, svc.cache.len())

	require.NoError(t, svc.IndexProduct(ctx, domain.Product{Code: "BRK-009", Description: "brake disc"}))

	third := svc.Hits(ctx, "brake", 10)
	assert.Equal(t, int32(2), atomic.LoadInt32(&idx.searches), "mutation must invalidate cached hits")
	assert.Len(t, third, 4)
}

func TestHits_CacheDisabled(t *testing.T) {
	idx := &countingIndex{Index: index.New(nil)}
	idx.BuildIndex(testCatalog())
	svc, err := NewSearchService(idx, Options{}, newTestLogger())
	require.NoError(t, err)

	svc.Hits(context.Background(), "brake", 10)
	svc.Hits(context.Background(), "brake", 10)
	assert.Equal(t, int32(2), atomic.LoadInt32(&idx.searches))
}

func TestMutations(t *testing.T) {
	svc, idx := newTestService(t, testCatalog())
	ctx := context.Background()

	err := svc.IndexProduct(ctx, domain.Product{Description: "no code"})
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))

	require.NoError(t, svc.UpdateProduct(ctx, "OIL-001", domain.Product{Description: "Mineral gear oil"}))
	assert.Equal(t, []string{"OIL-001"}, idx.Search("mineral", 0))
	assert.Empty(t, idx.Search("synthetic", 0))

	err = svc.UpdateProduct(ctx, "OIL-001", domain.Product{Code: "OIL-002"})
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))

	require.NoError(t, svc.DeleteProduct(ctx, "OIL-001"))
	err = svc.DeleteProduct(ctx, "OIL-001")
	assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))

	res := svc.BulkIndex(ctx, []domain.Product{{Code: "A1", Brand: "Acme"}, {Brand: "orphan"}, {Code: "A2"}})
	assert.Equal(t, BulkIndexResult{Indexed: 2, Skipped: 1}, res)
	assert.Equal(t, 5, svc.Stats(ctx).TotalProducts)
}

func TestSuggest(t *testing.T) {
	svc, _ := newTestService(t, testCatalog())

	assert.Equal(t, []string{"brake"}, svc.Suggest(context.Background(), " BRA ", 1))
	assert.Equal(t, []string{}, svc.Suggest(context.Background(), "b", 5))
}

func TestLastWord(t *testing.T) {
	assert.Equal(t, "pad", lastWord("brake  pad "))
	assert.Equal(t, "", lastWord("   "))
}

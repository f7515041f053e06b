package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/utafrali/catalogsearch/internal/catalog"
	"github.com/utafrali/catalogsearch/internal/domain"
	"github.com/utafrali/catalogsearch/internal/index"
	apperrors "github.com/utafrali/catalogsearch/pkg/errors"
	"github.com/utafrali/catalogsearch/pkg/pagination"
	"github.com/utafrali/catalogsearch/pkg/tracing"
)

const (
	// searchCandidates is how many ranked codes the index is asked for before
	// filters and pagination are applied.
	searchCandidates = 500
	// resultSuggestions is how many suggestions accompany a search result.
	resultSuggestions = 5
)

// SearchIndex is the index surface the service depends on.
type SearchIndex interface {
	BuildIndex(records []domain.Product) index.BuildResult
	AddProduct(p domain.Product) bool
	UpdateProduct(p domain.Product) bool
	RemoveProduct(code string) bool
	SearchScored(query string, maxResults int) []index.Hit
	Suggestions(partial string, maxSuggestions int) []string
	Stats() domain.IndexStats
	Generation() uint64
	Products(codes []string) []domain.Product
	All() []domain.Product
}

// Options configures a SearchService.
type Options struct {
	// Source feeds Reindex. Nil disables full reindexing.
	Source catalog.Source
	// CacheSize bounds the query cache. Zero or less disables it.
	CacheSize int
}

// SearchService implements catalog search on top of the in-process index.
type SearchService struct {
	idx    SearchIndex
	source catalog.Source
	cache  *queryCache
	group  singleflight.Group
	tracer trace.Tracer
	logger *slog.Logger

	// background tracks rebuilds started by ReindexAsync.
	background sync.WaitGroup
}

// NewSearchService creates a search service over idx.
func NewSearchService(idx SearchIndex, opts Options, logger *slog.Logger) (*SearchService, error) {
	cache, err := newQueryCache(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &SearchService{
		idx:    idx,
		source: opts.Source,
		cache:  cache,
		tracer: tracing.Tracer("github.com/utafrali/catalogsearch/internal/service"),
		logger: logger,
	}, nil
}

// SearchProducts ranks the catalog against q.Query, applies the filters,
// sorts and paginates. An empty query lists every indexed product ordered by
// brand, then description, through the same filters.
func (s *SearchService) SearchProducts(ctx context.Context, q *domain.SearchQuery) (*domain.SearchResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "SearchService.SearchProducts",
		trace.WithAttributes(attribute.String("search.query", q.Query)))
	defer span.End()

	if err := validateQuery(q); err != nil {
		return nil, err
	}

	var candidates []domain.ScoredProduct
	query := strings.TrimSpace(q.Query)
	if query == "" {
		for _, p := range s.idx.All() {
			candidates = append(candidates, domain.ScoredProduct{Product: p})
		}
		sortListing(candidates)
	} else {
		candidates = s.rank(ctx, query)
	}

	matched := filterProducts(candidates, q)
	sortProducts(matched, q.SortBy)

	params := pagination.New(q.Page, q.PerPage)
	result := &domain.SearchResult{
		Products:   pagination.Slice(matched, params),
		Total:      len(matched),
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: params.TotalPages(len(matched)),
		HasNext:    params.HasNext(len(matched)),
		Query:      q.Query,
	}
	if query != "" {
		result.Suggestions = s.idx.Suggestions(lastWord(query), resultSuggestions)
	}

	elapsed := time.Since(start)
	result.TookMs = elapsed.Milliseconds()
	searchDuration.Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("search.total", result.Total))

	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", q.Query),
		slog.Int("total", result.Total),
		slog.Int64("took_ms", result.TookMs),
	)
	return result, nil
}

// rank returns the cached records of the top candidates in relevance order
// with their scores.
func (s *SearchService) rank(ctx context.Context, query string) []domain.ScoredProduct {
	hits := s.Hits(ctx, query, searchCandidates)
	if len(hits) == 0 {
		return nil
	}

	codes := make([]string, len(hits))
	scores := make(map[string]float64, len(hits))
	for i, h := range hits {
		codes[i] = h.Code
		scores[h.Code] = h.Score
	}

	products := s.idx.Products(codes)
	out := make([]domain.ScoredProduct, 0, len(products))
	for _, p := range products {
		out = append(out, domain.ScoredProduct{Product: p, Score: scores[p.Code]})
	}
	return out
}

// Hits returns the ranked hit list for query, served from the query cache
// while the index generation is unchanged. The returned slice is shared and
// must not be modified.
func (s *SearchService) Hits(ctx context.Context, query string, limit int) []index.Hit {
	key := cacheKey(query, limit)
	gen := s.idx.Generation()

	if hits, ok := s.cache.get(key, gen); ok {
		cacheHits.Inc()
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("search.cache_hit", true))
		return hits
	}

	cacheMisses.Inc()
	// gen was read before searching, so a concurrent mutation at worst tags
	// fresher hits with an older generation and the entry is recomputed.
	hits := s.idx.SearchScored(query, limit)
	s.cache.put(key, gen, hits)
	return hits
}

// Suggest returns indexed tokens starting with partial.
func (s *SearchService) Suggest(ctx context.Context, partial string, limit int) []string {
	suggestions := s.idx.Suggestions(strings.TrimSpace(partial), limit)
	if suggestions == nil {
		suggestions = []string{}
	}
	return suggestions
}

// Stats returns the current index statistics.
func (s *SearchService) Stats(_ context.Context) domain.IndexStats {
	return s.idx.Stats()
}

// IndexProduct adds p, replacing any product with the same code.
func (s *SearchService) IndexProduct(ctx context.Context, p domain.Product) error {
	if !p.Valid() {
		return apperrors.InvalidInput("product_code is required")
	}
	s.idx.AddProduct(p)
	s.recordIndexSize()

	s.logger.InfoContext(ctx, "product indexed", slog.String("product_code", p.Code))
	return nil
}

// UpdateProduct replaces the product stored under code. A body without a
// code inherits it; a body naming a different code is rejected.
func (s *SearchService) UpdateProduct(ctx context.Context, code string, p domain.Product) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return apperrors.InvalidInput("product_code is required")
	}
	if p.Code == "" {
		p.Code = code
	}
	if p.Code != code {
		return apperrors.InvalidInput(fmt.Sprintf("product_code %q does not match path code %q", p.Code, code))
	}

	s.idx.UpdateProduct(p)
	s.recordIndexSize()

	s.logger.InfoContext(ctx, "product updated in index", slog.String("product_code", code))
	return nil
}

// DeleteProduct removes the product stored under code.
func (s *SearchService) DeleteProduct(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return apperrors.InvalidInput("product_code is required")
	}
	if !s.idx.RemoveProduct(code) {
		return apperrors.NotFound("product", code)
	}
	s.recordIndexSize()

	s.logger.InfoContext(ctx, "product removed from index", slog.String("product_code", code))
	return nil
}

// BulkIndexResult reports the outcome of BulkIndex.
type BulkIndexResult struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// BulkIndex adds every valid product and counts the ones without a code.
func (s *SearchService) BulkIndex(ctx context.Context, products []domain.Product) BulkIndexResult {
	var res BulkIndexResult
	for _, p := range products {
		if s.idx.AddProduct(p) {
			res.Indexed++
		} else {
			res.Skipped++
		}
	}
	s.recordIndexSize()

	s.logger.InfoContext(ctx, "bulk index completed",
		slog.Int("indexed", res.Indexed),
		slog.Int("skipped", res.Skipped),
	)
	return res
}

func (s *SearchService) recordIndexSize() {
	stats := s.idx.Stats()
	indexProducts.Set(float64(stats.TotalProducts))
	indexTokens.Set(float64(stats.TotalTokens))
}

func validateQuery(q *domain.SearchQuery) error {
	if q.SortBy == "" {
		q.SortBy = domain.SortRelevance
	}
	if !domain.IsValidSort(q.SortBy) {
		return apperrors.InvalidInput(fmt.Sprintf("sort must be one of %s", strings.Join(domain.ValidSortOptions(), ", ")))
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return apperrors.InvalidInput("min_price must not exceed max_price")
	}
	return nil
}

// filterProducts keeps the candidates matching every filter of q, preserving
// order. Category and brand compare case-insensitively.
func filterProducts(candidates []domain.ScoredProduct, q *domain.SearchQuery) []domain.ScoredProduct {
	out := make([]domain.ScoredProduct, 0, len(candidates))
	for _, c := range candidates {
		if q.Category != nil && !strings.EqualFold(c.Category, *q.Category) {
			continue
		}
		if q.Brand != nil && !strings.EqualFold(c.Brand, *q.Brand) {
			continue
		}
		if q.MinPrice != nil && c.CurrentPrice < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && c.CurrentPrice > *q.MaxPrice {
			continue
		}
		if q.AvailableOnly && !c.IsAvailable {
			continue
		}
		out = append(out, c)
	}
	return out
}

// sortProducts reorders products for the requested sort. Relevance keeps the
// incoming order. Price and name sorts break ties by code.
func sortProducts(products []domain.ScoredProduct, sortBy string) {
	var less func(a, b *domain.ScoredProduct) bool
	switch sortBy {
	case domain.SortPriceAsc:
		less = func(a, b *domain.ScoredProduct) bool {
			if a.CurrentPrice != b.CurrentPrice {
				return a.CurrentPrice < b.CurrentPrice
			}
			return a.Code < b.Code
		}
	case domain.SortPriceDesc:
		less = func(a, b *domain.ScoredProduct) bool {
			if a.CurrentPrice != b.CurrentPrice {
				return a.CurrentPrice > b.CurrentPrice
			}
			return a.Code < b.Code
		}
	case domain.SortNameAsc:
		less = func(a, b *domain.ScoredProduct) bool {
			if c := compareFold(a.Description, b.Description); c != 0 {
				return c < 0
			}
			return a.Code < b.Code
		}
	case domain.SortNameDesc:
		less = func(a, b *domain.ScoredProduct) bool {
			if c := compareFold(a.Description, b.Description); c != 0 {
				return c > 0
			}
			return a.Code < b.Code
		}
	case domain.SortCodeAsc:
		less = func(a, b *domain.ScoredProduct) bool { return a.Code < b.Code }
	case domain.SortCodeDesc:
		less = func(a, b *domain.ScoredProduct) bool { return a.Code > b.Code }
	default:
		return
	}
	sort.SliceStable(products, func(i, j int) bool { return less(&products[i], &products[j]) })
}

// sortListing orders an unranked listing by brand, then description, then
// code.
func sortListing(products []domain.ScoredProduct) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := &products[i], &products[j]
		if c := compareFold(a.Brand, b.Brand); c != 0 {
			return c < 0
		}
		if c := compareFold(a.Description, b.Description); c != 0 {
			return c < 0
		}
		return a.Code < b.Code
	})
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// lastWord returns the final whitespace-separated word of query, the part a
// user is still typing.
func lastWord(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

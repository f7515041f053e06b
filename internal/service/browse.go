package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/utafrali/catalogsearch/internal/domain"
	apperrors "github.com/utafrali/catalogsearch/pkg/errors"
)

// DefaultRelatedLimit is how many related products are returned when the
// caller does not ask for a specific number.
const DefaultRelatedLimit = 5

// GetProduct returns the indexed record for code.
func (s *SearchService) GetProduct(ctx context.Context, code string) (*domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.InvalidInput("product_code is required")
	}

	products := s.idx.Products([]string{code})
	if len(products) == 0 {
		return nil, apperrors.NotFound("product", code)
	}

	s.logger.DebugContext(ctx, "product fetched", slog.String("product_code", code))
	return &products[0], nil
}

// RelatedProducts returns up to limit available products sharing the
// category of the product stored under code, in listing order. The base
// product is never part of the result. A limit of zero or less selects
// DefaultRelatedLimit.
func (s *SearchService) RelatedProducts(ctx context.Context, code string, limit int) ([]domain.Product, error) {
	base, err := s.GetProduct(ctx, code)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	related := []domain.ScoredProduct{}
	if strings.TrimSpace(base.Category) != "" {
		for _, p := range s.idx.All() {
			if p.Code == base.Code || !p.IsAvailable || !strings.EqualFold(p.Category, base.Category) {
				continue
			}
			related = append(related, domain.ScoredProduct{Product: p})
		}
	}
	sortListing(related)

	out := make([]domain.Product, 0, min(limit, len(related)))
	for _, p := range related[:min(limit, len(related))] {
		out = append(out, p.Product)
	}
	return out, nil
}

// FilterOptions collects the distinct non-empty categories and brands of the
// available products, both sorted, and the price range over available
// products with a positive price. The range is zero when there are none.
func (s *SearchService) FilterOptions(_ context.Context) domain.FilterOptions {
	categories := make(map[string]struct{})
	brands := make(map[string]struct{})
	var prices domain.PriceRange
	seenPrice := false

	for _, p := range s.idx.All() {
		if !p.IsAvailable {
			continue
		}
		if p.Category != "" {
			categories[p.Category] = struct{}{}
		}
		if p.Brand != "" {
			brands[p.Brand] = struct{}{}
		}
		if p.CurrentPrice <= 0 {
			continue
		}
		if !seenPrice {
			prices = domain.PriceRange{Min: p.CurrentPrice, Max: p.CurrentPrice}
			seenPrice = true
			continue
		}
		prices.Min = min(prices.Min, p.CurrentPrice)
		prices.Max = max(prices.Max, p.CurrentPrice)
	}

	return domain.FilterOptions{
		Categories:  sortedKeys(categories),
		Brands:      sortedKeys(brands),
		PriceRange:  prices,
		SortOptions: domain.SortOptions(),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

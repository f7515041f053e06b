package http

import (
	"context"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/utafrali/catalogsearch/internal/domain"
	"github.com/utafrali/catalogsearch/pkg/httpclient"
)

const (
	serviceName     = "product-service"
	defaultPageSize = 100
	// maxPages stops a misbehaving upstream from paging forever.
	maxPages = 10000
)

// Getter is the subset of httpclient.CircuitBreakerClient the source uses.
type Getter interface {
	Get(ctx context.Context, url string) (*nethttp.Response, error)
}

// productsPage is the paginated envelope of GET /api/v1/products.
type productsPage struct {
	Data       []map[string]any `json:"data"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
}

// Source pulls the catalog from the product service one page at a time.
type Source struct {
	client   Getter
	baseURL  string
	pageSize int
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewSource creates a source reading from baseURL. A non-positive pageSize
// uses the default of 100.
func NewSource(client Getter, baseURL string, pageSize int, logger *slog.Logger) *Source {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Source{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		logger:   logger,
	}
}

// WithRateLimit caps page requests at pagesPerSecond. Zero or less removes
// the cap.
func (s *Source) WithRateLimit(pagesPerSecond float64) *Source {
	if pagesPerSecond <= 0 {
		s.limiter = nil
		return s
	}
	s.limiter = rate.NewLimiter(rate.Limit(pagesPerSecond), 1)
	return s
}

// Name implements catalog.Source.
func (s *Source) Name() string {
	return serviceName
}

// FetchAll implements catalog.Source. Pages are requested until total_pages
// is reached or a page comes back empty.
func (s *Source) FetchAll(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product

	for page := 1; page <= maxPages; page++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("fetch catalog page %d: %w", page, err)
			}
		}
		batch, err := s.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, rec := range batch.Data {
			products = append(products, domain.ProductFromMap(rec))
		}

		s.logger.DebugContext(ctx, "fetched catalog page",
			slog.Int("page", page),
			slog.Int("total_pages", batch.TotalPages),
			slog.Int("records", len(batch.Data)),
		)

		if len(batch.Data) == 0 || page >= batch.TotalPages {
			break
		}
	}

	return products, nil
}

func (s *Source) fetchPage(ctx context.Context, page int) (*productsPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(s.pageSize))
	endpoint := s.baseURL + "/api/v1/products?" + q.Encode()

	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		if httpclient.IsCircuitOpen(err) {
			s.logger.WarnContext(ctx, "product service circuit open, aborting catalog fetch",
				slog.Int("page", page))
		}
		return nil, fmt.Errorf("fetch catalog page %d: %w", page, err)
	}

	var out productsPage
	if err := httpclient.DecodeJSON(resp, &out, serviceName); err != nil {
		return nil, fmt.Errorf("fetch catalog page %d: %w", page, err)
	}
	return &out, nil
}

package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalogsearch/internal/domain"
	"github.com/utafrali/catalogsearch/internal/service"
	"github.com/utafrali/catalogsearch/pkg/httputil"
	"github.com/utafrali/catalogsearch/pkg/pagination"
	"github.com/utafrali/catalogsearch/pkg/validator"
)

const (
	maxBodyBytes     = 1 << 20
	maxBulkBodyBytes = 10 << 20
	maxSuggestLimit  = 20
	maxRelatedLimit  = 20
	reindexTimeout   = 10 * time.Minute
)

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{service: svc, logger: logger}
}

// ProductRequest is the JSON body describing one catalog product.
type ProductRequest struct {
	Code              string   `json:"product_code" validate:"notblank,max=128"`
	Description       string   `json:"description" validate:"max=4096"`
	Category          string   `json:"category" validate:"max=256"`
	Brand             string   `json:"brand" validate:"max=256"`
	PartNumbers       []string `json:"part_numbers" validate:"max=64,dive,max=128"`
	CurrentPrice      float64  `json:"current_price" validate:"gte=0"`
	QuantityAvailable int      `json:"quantity_available" validate:"gte=0"`
	UnitOfMeasure     string   `json:"unit_of_measure" validate:"max=32"`
	IsAvailable       *bool    `json:"is_available"`
}

func (p *ProductRequest) toDomain() domain.Product {
	available := true
	if p.IsAvailable != nil {
		available = *p.IsAvailable
	}
	return domain.Product{
		Code:              strings.TrimSpace(p.Code),
		Description:       p.Description,
		Category:          p.Category,
		Brand:             p.Brand,
		PartNumbers:       p.PartNumbers,
		CurrentPrice:      p.CurrentPrice,
		QuantityAvailable: p.QuantityAvailable,
		UnitOfMeasure:     p.UnitOfMeasure,
		IsAvailable:       available,
	}
}

// BulkIndexRequest is the JSON body for bulk indexing.
type BulkIndexRequest struct {
	Products []ProductRequest `json:"products" validate:"required,min=1,max=1000,dive"`
}

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := pagination.FromRequest(r)

	query := &domain.SearchQuery{
		Query:   q.Get("q"),
		SortBy:  q.Get("sort"),
		Page:    params.Page,
		PerPage: params.PerPage,
	}
	if v := q.Get("category"); v != "" {
		query.Category = &v
	}
	if v := q.Get("brand"); v != "" {
		query.Brand = &v
	}

	var ok bool
	if query.MinPrice, ok = parsePrice(w, q.Get("min_price"), "min_price"); !ok {
		return
	}
	if query.MaxPrice, ok = parsePrice(w, q.Get("max_price"), "max_price"); !ok {
		return
	}

	if v := q.Get("available_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteBadParameter(w, "available_only must be a boolean")
			return
		}
		query.AvailableOnly = b
	}

	result, err := h.service.SearchProducts(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// parsePrice parses an optional non-negative price. On failure it writes the
// 400 response and reports false.
func parsePrice(w http.ResponseWriter, raw, name string) (*float64, bool) {
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		httputil.WriteBadParameter(w, name+" must be a valid number")
		return nil, false
	}
	if v < 0 {
		httputil.WriteBadParameter(w, name+" must not be negative")
		return nil, false
	}
	return &v, true
}

// Suggest handles GET /api/v1/search/suggest
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > maxSuggestLimit {
			httputil.WriteBadParameter(w, "limit must be between 1 and 20")
			return
		}
		limit = l
	}

	suggestions := h.service.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	httputil.WriteData(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// Stats handles GET /api/v1/search/stats
func (h *SearchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.Stats(r.Context()))
}

// FilterOptions handles GET /api/v1/search/filters
func (h *SearchHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.FilterOptions(r.Context()))
}

// GetProduct handles GET /api/v1/search/products/{code}
func (h *SearchHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// RelatedProducts handles GET /api/v1/search/products/{code}/related
func (h *SearchHandler) RelatedProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > maxRelatedLimit {
			httputil.WriteBadParameter(w, "limit must be between 1 and 20")
			return
		}
		limit = l
	}

	related, err := h.service.RelatedProducts(r.Context(), chi.URLParam(r, "code"), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"products": related})
}

// IndexProduct handles POST /api/v1/search/index
func (h *SearchHandler) IndexProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p := req.toDomain()
	if err := h.service.IndexProduct(r.Context(), p); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"product_code": p.Code, "status": "indexed"})
}

// UpdateProduct handles PUT /api/v1/search/index/{code}
func (h *SearchHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	code := chi.URLParam(r, "code")

	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		req.Code = code
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.UpdateProduct(r.Context(), code, req.toDomain()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"product_code": code, "status": "updated"})
}

// DeleteProduct handles DELETE /api/v1/search/{code}
func (h *SearchHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.service.DeleteProduct(r.Context(), code); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"product_code": code, "status": "deleted"})
}

// BulkIndex handles POST /api/v1/search/bulk
func (h *SearchHandler) BulkIndex(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBulkBodyBytes)

	var req BulkIndexRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	products := make([]domain.Product, 0, len(req.Products))
	for i := range req.Products {
		products = append(products, req.Products[i].toDomain())
	}

	res := h.service.BulkIndex(r.Context(), products)
	httputil.WriteData(w, http.StatusOK, res)
}

// Reindex handles POST /api/v1/search/reindex. The rebuild runs in the
// background; the request returns 202 as soon as it is started.
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ReindexAsync(r.Context(), reindexTimeout); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusAccepted, map[string]string{"status": "reindex started"})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

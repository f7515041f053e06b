package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/catalogsearch/internal/service"
	"github.com/utafrali/catalogsearch/pkg/health"
	"github.com/utafrali/catalogsearch/pkg/middleware"
)

const serviceName = "catalog-search"

// NewRouter creates a chi router with all search routes registered.
func NewRouter(
	searchService *service.SearchService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	searchHandler := NewSearchHandler(searchService, logger)

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Get("/", searchHandler.Search)
		r.Get("/suggest", searchHandler.Suggest)
		r.Get("/stats", searchHandler.Stats)
		r.Get("/filters", searchHandler.FilterOptions)
		r.Get("/products/{code}", searchHandler.GetProduct)
		r.Get("/products/{code}/related", searchHandler.RelatedProducts)

		r.Group(func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			r.Post("/index", searchHandler.IndexProduct)
			r.Put("/index/{code}", searchHandler.UpdateProduct)
			r.Post("/bulk", searchHandler.BulkIndex)
		})

		r.Post("/reindex", searchHandler.Reindex)
		r.Delete("/{code}", searchHandler.DeleteProduct)
	})

	return r
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/catalogsearch/internal/catalog"
	cataloghttp "github.com/utafrali/catalogsearch/internal/catalog/http"
	catalogpg "github.com/utafrali/catalogsearch/internal/catalog/postgres"
	"github.com/utafrali/catalogsearch/internal/config"
	"github.com/utafrali/catalogsearch/internal/event"
	handler "github.com/utafrali/catalogsearch/internal/handler/http"
	"github.com/utafrali/catalogsearch/internal/index"
	"github.com/utafrali/catalogsearch/internal/service"
	"github.com/utafrali/catalogsearch/pkg/database"
	"github.com/utafrali/catalogsearch/pkg/health"
	"github.com/utafrali/catalogsearch/pkg/httpclient"
	pkgkafka "github.com/utafrali/catalogsearch/pkg/kafka"
	"github.com/utafrali/catalogsearch/pkg/tracing"
)

// ServiceName identifies the service in logs, metrics and traces.
const ServiceName = "catalog-search"

const slowQueryThreshold = 2 * time.Second

// App wires together all dependencies and runs the search service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	search         *service.SearchService
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	pool           *pgxpool.Pool
	redis          *redis.Client
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	shutdown, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown

	healthHandler := health.NewHandler()

	source, err := a.newSource(ctx, healthHandler)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	idx := index.New(logger)
	searchService, err := service.NewSearchService(idx, service.Options{
		Source:    source,
		CacheSize: cfg.CacheSize,
	}, logger)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("create search service: %w", err)
	}
	a.search = searchService
	healthHandler.Register("index", searchService.Ready)

	if cfg.KafkaEnabled {
		if err := a.initConsumers(ctx, healthHandler); err != nil {
			a.closeResources()
			return nil, err
		}
	}

	router := handler.NewRouter(searchService, healthHandler, logger)
	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// newSource builds the catalog source named by CATALOG_SOURCE. A nil source
// with a nil error means full reindexing is disabled.
func (a *App) newSource(ctx context.Context, hh *health.Handler) (catalog.Source, error) {
	switch a.cfg.CatalogSource {
	case config.SourceHTTP:
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("product-service"),
			a.logger,
		)
		a.logger.Info("catalog source initialized",
			slog.String("source", config.SourceHTTP),
			slog.String("url", a.cfg.ProductServiceURL),
		)
		src := cataloghttp.NewSource(client, a.cfg.ProductServiceURL, a.cfg.CatalogPageSize, a.logger)
		return src.WithRateLimit(a.cfg.CatalogFetchRPS), nil

	case config.SourcePostgres:
		pgCfg := a.cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
		hh.Register("postgres", pool.Ping)
		a.logger.Info("catalog source initialized",
			slog.String("source", config.SourcePostgres),
			slog.String("host", pgCfg.Host),
		)
		return catalogpg.NewSource(pool, database.QueryTracer{
			SlowThreshold: slowQueryThreshold,
			Logger:        a.logger,
		}), nil

	default:
		a.logger.Warn("no catalog source configured, reindex disabled")
		return nil, nil
	}
}

func (a *App) initConsumers(ctx context.Context, hh *health.Handler) error {
	var store pkgkafka.IdempotencyStore
	switch a.cfg.IdempotencyBackend {
	case config.IdempotencyRedis:
		client, err := database.NewRedisClient(ctx, a.cfg.Redis())
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		hh.Register("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		store = pkgkafka.NewRedisIdempotencyStore(client, "", a.cfg.IdempotencyTTL)
	default:
		store = pkgkafka.NewMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	}

	eventConsumer := event.NewConsumer(a.search, a.logger)
	handle := pkgkafka.IdempotentHandler(store, eventConsumer.Handle, a.logger)

	topics := event.Topics()
	for _, topic := range topics {
		c := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  a.cfg.KafkaBrokers,
			GroupID:  a.cfg.KafkaGroup,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}, handle, a.logger)
		a.consumers = append(a.consumers, c)
	}
	hh.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, a.cfg.KafkaBrokers)
	})

	a.logger.Info("kafka consumers initialized",
		slog.Any("brokers", a.cfg.KafkaBrokers),
		slog.Int("topic_count", len(topics)),
		slog.String("idempotency", a.cfg.IdempotencyBackend),
	)
	return nil
}

// Run starts the HTTP server, the Kafka consumers and the reindex loop,
// blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer %s: %w", c.Topic(), err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go a.runReindexLoop(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// runReindexLoop performs the startup build and the periodic resync. Without
// a source the index is marked initialized empty so readiness can pass.
func (a *App) runReindexLoop(ctx context.Context) {
	if !a.search.HasSource() {
		a.search.Build(ctx, nil)
		return
	}

	if a.cfg.ReindexOnStart {
		a.reindexOnce(ctx)
	}
	if a.cfg.ReindexInterval <= 0 {
		return
	}

	ticker := time.NewTicker(a.cfg.ReindexInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.reindexOnce(ctx)
		}
	}
}

func (a *App) reindexOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ReindexTimeout)
	defer cancel()

	res, err := a.search.Reindex(ctx)
	if err != nil {
		// The previous index stays in place; readiness keeps failing until a
		// build succeeds.
		a.logger.ErrorContext(ctx, "scheduled reindex failed", slog.String("error", err.Error()))
		return
	}
	a.logger.InfoContext(ctx, "scheduled reindex completed",
		slog.String("source", res.Source),
		slog.Int("indexed", res.Indexed),
		slog.Int("skipped", res.Skipped),
	)
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// The server no longer accepts requests, so no new background rebuild
	// can start while this waits.
	if err := a.search.Wait(shutdownCtx); err != nil {
		a.logger.Error("background reindex still running", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.closeResources()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases connections opened during NewApp.
func (a *App) closeResources() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
		a.redis = nil
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/utafrali/catalogsearch/pkg/database"
	pkgconfig "github.com/utafrali/catalogsearch/pkg/config"
	"github.com/utafrali/catalogsearch/pkg/tracing"
)

// Catalog sources a full reindex can pull from.
const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
	SourceNone     = "none"
)

// Idempotency store backends.
const (
	IdempotencyMemory = "memory"
	IdempotencyRedis  = "redis"
)

// Config holds all configuration for the catalog search service.
type Config struct {
	Environment    string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP server
	HTTPPort int `env:"SEARCH_HTTP_PORT" envDefault:"8010"`

	// Index
	CacheSize       int           `env:"SEARCH_CACHE_SIZE" envDefault:"1024"`
	ReindexOnStart  bool          `env:"REINDEX_ON_START" envDefault:"true"`
	ReindexInterval time.Duration `env:"REINDEX_INTERVAL" envDefault:"0s"`
	ReindexTimeout  time.Duration `env:"REINDEX_TIMEOUT" envDefault:"5m"`

	// Catalog source selection (http, postgres or none)
	CatalogSource     string  `env:"CATALOG_SOURCE" envDefault:"http"`
	ProductServiceURL string  `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:8080"`
	CatalogPageSize   int     `env:"CATALOG_PAGE_SIZE" envDefault:"100"`
	CatalogFetchRPS   float64 `env:"CATALOG_FETCH_RPS" envDefault:"0"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"catalog"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:""`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"catalog"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroup   string   `env:"KAFKA_GROUP" envDefault:"catalog-search"`

	// Idempotency (memory or redis)
	IdempotencyBackend string        `env:"IDEMPOTENCY_BACKEND" envDefault:"memory"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.CatalogSource {
	case SourceHTTP:
		if c.ProductServiceURL == "" {
			return fmt.Errorf("PRODUCT_SERVICE_URL is required when CATALOG_SOURCE=%s", SourceHTTP)
		}
		if c.CatalogPageSize < 1 || c.CatalogPageSize > 1000 {
			return fmt.Errorf("invalid catalog page size: %d", c.CatalogPageSize)
		}
		if c.CatalogFetchRPS < 0 {
			return fmt.Errorf("invalid CATALOG_FETCH_RPS: %g", c.CatalogFetchRPS)
		}
	case SourcePostgres:
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("invalid postgres port: %d", c.PostgresPort)
		}
	case SourceNone:
	default:
		return fmt.Errorf("invalid CATALOG_SOURCE %q: must be one of http, postgres, none", c.CatalogSource)
	}
	switch c.IdempotencyBackend {
	case IdempotencyMemory, IdempotencyRedis:
	default:
		return fmt.Errorf("invalid IDEMPOTENCY_BACKEND %q: must be memory or redis", c.IdempotencyBackend)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("invalid SEARCH_CACHE_SIZE: %d", c.CacheSize)
	}
	if c.ReindexInterval < 0 {
		return fmt.Errorf("invalid REINDEX_INTERVAL: %s", c.ReindexInterval)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("invalid OTEL_SAMPLE_RATE: %g", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the pool configuration for the postgres catalog source.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	return pg
}

// Redis returns the client configuration for the redis idempotency store.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	if c.RedisHost != "" {
		rc.Host = c.RedisHost
	}
	if c.RedisPort != 0 {
		rc.Port = c.RedisPort
	}
	rc.Password = c.RedisPassword
	rc.DB = c.RedisDB
	return rc
}

// Tracing returns the OpenTelemetry configuration.
func (c *Config) Tracing(serviceName string) tracing.Config {
	return tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: c.ServiceVersion,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}

package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/catalogsearch/internal/domain"
	"github.com/utafrali/catalogsearch/internal/service"
	apperrors "github.com/utafrali/catalogsearch/pkg/errors"
	pkgkafka "github.com/utafrali/catalogsearch/pkg/kafka"
)

// Event types consumed by the search service. Each is published on the topic
// of the same name under the ecommerce prefix.
const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
	CatalogSynced  = "catalog.synced"
)

// Topics returns the fully-qualified topics the consumer subscribes to.
func Topics() []string {
	return []string{
		pkgkafka.Topic("product", "created"),
		pkgkafka.Topic("product", "updated"),
		pkgkafka.Topic("product", "deleted"),
		pkgkafka.Topic("catalog", "synced"),
	}
}

// Indexer is the part of the search service driven by catalog events.
type Indexer interface {
	IndexProduct(ctx context.Context, p domain.Product) error
	UpdateProduct(ctx context.Context, code string, p domain.Product) error
	DeleteProduct(ctx context.Context, code string) error
	Reindex(ctx context.Context) (service.ReindexResult, error)
}

// Consumer applies catalog events to the search index.
type Consumer struct {
	indexer Indexer
	logger  *slog.Logger
}

// NewConsumer creates a consumer applying events to indexer.
func NewConsumer(indexer Indexer, logger *slog.Logger) *Consumer {
	return &Consumer{indexer: indexer, logger: logger}
}

// Handle dispatches one event by type. Event types may carry the topic
// prefix. Events that can never succeed, such as a product without a code,
// are logged and acknowledged so they are not retried.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	eventType := strings.TrimPrefix(event.EventType, pkgkafka.TopicPrefix+".")

	switch eventType {
	case ProductCreated:
		return c.handleUpsert(ctx, event, false)
	case ProductUpdated:
		return c.handleUpsert(ctx, event, true)
	case ProductDeleted:
		return c.handleDeleted(ctx, event)
	case CatalogSynced:
		return c.handleSynced(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) decodeProduct(event *pkgkafka.Event) (domain.Product, error) {
	var data map[string]any
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return domain.Product{}, fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}
	p := domain.ProductFromMap(data)
	if p.Code == "" {
		p.Code = event.AggregateID
	}
	return p, nil
}

func (c *Consumer) handleUpsert(ctx context.Context, event *pkgkafka.Event, update bool) error {
	p, err := c.decodeProduct(event)
	if err != nil {
		c.dropEvent(ctx, event, err)
		return nil
	}

	if update {
		err = c.indexer.UpdateProduct(ctx, p.Code, p)
	} else {
		err = c.indexer.IndexProduct(ctx, p)
	}
	if errors.Is(err, apperrors.ErrInvalidInput) {
		c.dropEvent(ctx, event, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply %s: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "applied product event",
		slog.String("event_type", event.EventType),
		slog.String("product_code", p.Code),
	)
	return nil
}

func (c *Consumer) handleDeleted(ctx context.Context, event *pkgkafka.Event) error {
	p, err := c.decodeProduct(event)
	if err != nil {
		c.dropEvent(ctx, event, err)
		return nil
	}

	err = c.indexer.DeleteProduct(ctx, p.Code)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.logger.DebugContext(ctx, "deleted product was not indexed",
			slog.String("product_code", p.Code))
		return nil
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.dropEvent(ctx, event, err)
		return nil
	case err != nil:
		return fmt.Errorf("apply %s: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "applied product event",
		slog.String("event_type", event.EventType),
		slog.String("product_code", p.Code),
	)
	return nil
}

func (c *Consumer) handleSynced(ctx context.Context, event *pkgkafka.Event) error {
	res, err := c.indexer.Reindex(ctx)
	if errors.Is(err, service.ErrNoSource) {
		c.logger.WarnContext(ctx, "catalog synced but no catalog source is configured",
			slog.String("event_id", event.EventID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reindex after %s: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "reindexed after catalog sync",
		slog.String("source", res.Source),
		slog.Int("indexed", res.Indexed),
		slog.Int("skipped", res.Skipped),
	)
	return nil
}

func (c *Consumer) dropEvent(ctx context.Context, event *pkgkafka.Event, err error) {
	c.logger.WarnContext(ctx, "dropping unprocessable event",
		slog.String("event_type", event.EventType),
		slog.String("event_id", event.EventID),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("error", err.Error()),
	)
}

// Package catalog defines where full catalog snapshots come from. A Source
// is consulted on every reindex; incremental changes arrive separately as
// events.
package catalog

import (
	"context"

	"github.com/utafrali/catalogsearch/internal/domain"
)

// Source returns the complete catalog. Records may be incomplete; the index
// skips and counts those without a product code.
type Source interface {
	FetchAll(ctx context.Context) ([]domain.Product, error)
	Name() string
}

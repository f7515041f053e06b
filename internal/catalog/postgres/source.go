package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/catalogsearch/internal/domain"
	"github.com/utafrali/catalogsearch/pkg/database"
)

// selectProducts reads every catalog row. Nullable columns are coalesced so
// rows scan into plain values.
const selectProducts = `
	SELECT product_code,
	       COALESCE(description, ''),
	       COALESCE(category, ''),
	       COALESCE(brand, ''),
	       COALESCE(current_price, 0)::float8,
	       COALESCE(quantity_available, 0),
	       COALESCE(unit_of_measure, ''),
	       COALESCE(part_numbers, '{}'),
	       COALESCE(is_available, true)
	FROM products
	ORDER BY product_code`

// Source reads the catalog straight from the products table.
type Source struct {
	db     database.DBTX
	tracer database.QueryTracer
}

// NewSource creates a source over db. Queries slower than the tracer's
// threshold are logged as warnings.
func NewSource(db database.DBTX, tracer database.QueryTracer) *Source {
	return &Source{db: db, tracer: tracer}
}

// Name implements catalog.Source.
func (s *Source) Name() string {
	return "postgres"
}

// FetchAll implements catalog.Source.
func (s *Source) FetchAll(ctx context.Context) (products []domain.Product, err error) {
	ctx, end := s.tracer.Trace(ctx, "FetchProducts", selectProducts)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, selectProducts)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.Code,
			&p.Description,
			&p.Category,
			&p.Brand,
			&p.CurrentPrice,
			&p.QuantityAvailable,
			&p.UnitOfMeasure,
			&p.PartNumbers,
			&p.IsAvailable,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if s.tracer.Logger != nil {
		s.tracer.Logger.DebugContext(ctx, "catalog loaded from postgres", slog.Int("records", len(products)))
	}
	return products, nil
}

// Command seed populates the products table read by the postgres catalog
// source with a deterministic synthetic parts catalog.
//
// Run: go run ./cmd/seed --count 10000
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/utafrali/catalogsearch/internal/config"
	"github.com/utafrali/catalogsearch/internal/domain"
	"github.com/utafrali/catalogsearch/pkg/database"
	"github.com/utafrali/catalogsearch/pkg/logger"
)

const (
	batchSize     = 500
	columnsPerRow = 9
)

const createProducts = `
	CREATE TABLE IF NOT EXISTS products (
		product_code       TEXT PRIMARY KEY,
		description        TEXT,
		category           TEXT,
		brand              TEXT,
		current_price      NUMERIC(12,2),
		quantity_available INTEGER,
		unit_of_measure    TEXT,
		part_numbers       TEXT[],
		is_available       BOOLEAN
	)`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var count int
	var seed int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the products table with a synthetic parts catalog",
		Long: `Create the products table if it is missing and upsert a deterministic
synthetic parts catalog. Connection settings come from the POSTGRES_*
environment variables.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			return run(cmd.Context(), count, seed)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10000, "number of products to generate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")

	return cmd
}

func run(ctx context.Context, count int, seed int64) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("catalog-seed", cfg.LogLevel)

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, createProducts); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}

	products := generateProducts(rand.New(rand.NewSource(seed)), count)
	log.Info("generated catalog", slog.Int("products", len(products)))

	written := 0
	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))
		query, args := upsertBatch(products[start:end])
		if _, err := pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert products %d-%d: %w", start, end, err)
		}
		written = end

		if written%2000 == 0 {
			log.Info("seed progress", slog.Int("written", written), slog.Int("total", len(products)))
		}
	}

	log.Info("seed complete", slog.Int("products", written))
	return nil
}

// upsertBatch builds one multi-row INSERT that overwrites existing codes.
func upsertBatch(batch []domain.Product) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(batch)*columnsPerRow)

	sb.WriteString(`INSERT INTO products (product_code, description, category, brand, current_price,
		quantity_available, unit_of_measure, part_numbers, is_available) VALUES `)
	for i, p := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * columnsPerRow
		sb.WriteString("(")
		for c := 1; c <= columnsPerRow; c++ {
			if c > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+c)
		}
		sb.WriteString(")")

		args = append(args,
			p.Code, p.Description, p.Category, p.Brand, p.CurrentPrice,
			p.QuantityAvailable, p.UnitOfMeasure, p.PartNumbers, p.IsAvailable,
		)
	}
	sb.WriteString(` ON CONFLICT (product_code) DO UPDATE SET
		description = EXCLUDED.description,
		category = EXCLUDED.category,
		brand = EXCLUDED.brand,
		current_price = EXCLUDED.current_price,
		quantity_available = EXCLUDED.quantity_available,
		unit_of_measure = EXCLUDED.unit_of_measure,
		part_numbers = EXCLUDED.part_numbers,
		is_available = EXCLUDED.is_available`)

	return sb.String(), args
}

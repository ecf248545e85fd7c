package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot/stockpilot/internal/shared"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS products (
  sku        TEXT PRIMARY KEY,
  name       TEXT NOT NULL CHECK (name <> ''),
  category   TEXT NOT NULL CHECK (category <> ''),
  unit_price NUMERIC(12,2) NOT NULL CHECK (unit_price >= 0),
  tax_rate   NUMERIC(5,4)  NOT NULL CHECK (tax_rate >= 0 AND tax_rate < 1),
  stock_qty  BIGINT NOT NULL CHECK (stock_qty >= 0),
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
  id                 BIGSERIAL PRIMARY KEY,
  sku                TEXT NOT NULL REFERENCES products(sku),
  quantity           BIGINT NOT NULL CHECK (quantity > 0),
  unit_price_at_sale NUMERIC(12,2) NOT NULL CHECK (unit_price_at_sale >= 0),
  tax_rate_at_sale   NUMERIC(5,4)  NOT NULL CHECK (tax_rate_at_sale >= 0 AND tax_rate_at_sale < 1),
  net_amount         NUMERIC(14,2) NOT NULL CHECK (net_amount >= 0),
  tax_amount         NUMERIC(14,2) NOT NULL CHECK (tax_amount >= 0),
  gross_amount       NUMERIC(14,2) NOT NULL CHECK (gross_amount >= 0),
  sold_at            TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_sku ON sales (sku);
CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales (sold_at);
CREATE INDEX IF NOT EXISTS idx_products_category ON products (category);
`

// Initialize creates the products and sales tables. With overwrite set, both
// tables are dropped first and all data is lost; without it the call is
// non-destructive and leaves existing rows alone.
func Initialize(ctx context.Context, pool *pgxpool.Pool, overwrite bool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("platform/db: begin init: %v: %w", err, shared.ErrStorageInit)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if overwrite {
		if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS sales`); err != nil {
			return fmt.Errorf("platform/db: drop sales: %v: %w", err, shared.ErrStorageInit)
		}
		if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS products`); err != nil {
			return fmt.Errorf("platform/db: drop products: %v: %w", err, shared.ErrStorageInit)
		}
	}

	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("platform/db: create schema: %v: %w", err, shared.ErrStorageInit)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit init: %v: %w", err, shared.ErrStorageInit)
	}
	return nil
}

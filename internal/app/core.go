package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot/stockpilot/internal/analytics"
	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/ingest"
	"github.com/stockpilot/stockpilot/internal/platform/db"
	"github.com/stockpilot/stockpilot/internal/sales"
)

// Core bundles the public operations of the engine behind one surface; the
// presentation layer maps menu choices onto these calls and nothing else.
type Core struct {
	Catalog   *catalog.Service
	Sales     *sales.Service
	Analytics *analytics.Service

	pool   *pgxpool.Pool
	cfg    *Config
	logger *slog.Logger
}

// NewCore wires repositories and services onto one pool.
func NewCore(pool *pgxpool.Pool, cfg *Config, logger *slog.Logger) *Core {
	catalogRepo := catalog.NewRepository(pool)
	salesRepo := sales.NewRepository(pool)
	return &Core{
		Catalog:   catalog.NewService(catalogRepo, cfg.DefaultTaxRate, logger),
		Sales:     sales.NewService(salesRepo, logger),
		Analytics: analytics.NewService(salesRepo, catalogRepo, logger),
		pool:      pool,
		cfg:       cfg,
		logger:    logger,
	}
}

// Initialize creates the schema; overwrite drops existing data first.
func (c *Core) Initialize(ctx context.Context, overwrite bool) error {
	if err := db.Initialize(ctx, c.pool, overwrite); err != nil {
		return err
	}
	c.logger.Info("schema initialized", "overwrite", overwrite)
	return nil
}

// ImportFeed parses a product feed and bulk-inserts the valid records.
// Rejections from parsing and from insertion are reported together.
func (c *Core) ImportFeed(ctx context.Context, r io.Reader) (int, []catalog.Rejection, error) {
	feed, err := ingest.ParseFeed(r, c.cfg.DefaultTaxRate)
	if err != nil {
		return 0, nil, err
	}
	c.logger.Info("feed parsed", "batch_id", feed.BatchID, "records", len(feed.Products), "rejected", len(feed.Rejected))

	inserted, rejected, err := c.Catalog.BulkInsert(ctx, feed.Products)
	rejected = append(feed.Rejected, rejected...)
	return inserted, rejected, err
}

// ListProducts returns the catalog ordered by sku.
func (c *Core) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return c.Catalog.ListAll(ctx)
}

// CreateProduct validates and inserts one product. taxRateSet tells whether
// the caller supplied a rate or wants the configured default.
func (c *Core) CreateProduct(ctx context.Context, product catalog.Product, taxRateSet bool) (catalog.Product, error) {
	return c.Catalog.Create(ctx, c.Catalog.Normalize(product, taxRateSet))
}

// UpdateProduct applies a partial edit; the sku is immutable.
func (c *Core) UpdateProduct(ctx context.Context, sku string, update catalog.Update) (catalog.Product, error) {
	return c.Catalog.Update(ctx, sku, update)
}

// DeleteProduct removes a product; force cascades its sale history.
func (c *Core) DeleteProduct(ctx context.Context, sku string, force bool) error {
	return c.Catalog.Delete(ctx, sku, force)
}

// Sell commits one sale atomically and returns the ledger row.
func (c *Core) Sell(ctx context.Context, sku string, quantity int64) (sales.Sale, error) {
	return c.Sales.Sell(ctx, sku, quantity)
}

// Totals aggregates the ledger, optionally bounded by a date range.
func (c *Core) Totals(ctx context.Context, dateRange *sales.DateRange) (sales.Totals, error) {
	return c.Analytics.Totals(ctx, dateRange)
}

// BestSellers ranks skus by quantity sold.
func (c *Core) BestSellers(ctx context.Context, limit int) ([]sales.SellerRank, error) {
	return c.Analytics.BestSellers(ctx, limit)
}

// LowStock lists products at or below the threshold.
func (c *Core) LowStock(ctx context.Context, threshold int64) ([]catalog.Product, error) {
	return c.Analytics.LowStock(ctx, threshold)
}

// ExportSalesCSV writes the ledger to path and returns the row count.
func (c *Core) ExportSalesCSV(ctx context.Context, path string, dateRange *sales.DateRange) (int, error) {
	return c.Analytics.ExportCSV(ctx, path, dateRange)
}

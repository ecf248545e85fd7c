// Package analytics aggregates the sales ledger and the catalog into the
// operator dashboard: revenue totals, best sellers, low-stock alerts and the
// CSV export. Totals always come from the persisted sale amounts, never from
// current catalog prices.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/stockpilot/stockpilot/internal/analytics/export"
	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/sales"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// LedgerPort is the read side of the sales ledger.
type LedgerPort interface {
	ListSales(ctx context.Context, dateRange *sales.DateRange) ([]sales.Sale, error)
	Totals(ctx context.Context, dateRange *sales.DateRange) (sales.Totals, error)
	BestSellers(ctx context.Context, limit int) ([]sales.SellerRank, error)
}

// CatalogPort is the slice of the catalog the dashboard needs.
type CatalogPort interface {
	ListLowStock(ctx context.Context, threshold int64) ([]catalog.Product, error)
}

// Service computes dashboard figures.
type Service struct {
	ledger  LedgerPort
	catalog CatalogPort
	logger  *slog.Logger
}

// NewService builds Service.
func NewService(ledger LedgerPort, catalogPort CatalogPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: ledger, catalog: catalogPort, logger: logger}
}

// Totals sums net, tax and gross revenue plus the sale count, optionally
// bounded by a sold_at range.
func (s *Service) Totals(ctx context.Context, dateRange *sales.DateRange) (sales.Totals, error) {
	return s.ledger.Totals(ctx, dateRange)
}

// BestSellers ranks skus by total quantity sold, descending, ties broken by
// sku ascending.
func (s *Service) BestSellers(ctx context.Context, limit int) ([]sales.SellerRank, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("analytics: limit must be > 0, got %d: %w", limit, shared.ErrValidation)
	}
	return s.ledger.BestSellers(ctx, limit)
}

// LowStock lists products at or below the threshold, least stocked first.
func (s *Service) LowStock(ctx context.Context, threshold int64) ([]catalog.Product, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("analytics: threshold must be >= 0, got %d: %w", threshold, shared.ErrValidation)
	}
	return s.catalog.ListLowStock(ctx, threshold)
}

// ExportCSV writes the ledger (optionally range-bounded) to path and returns
// the number of sale rows written. The ledger itself is never mutated.
func (s *Service) ExportCSV(ctx context.Context, path string, dateRange *sales.DateRange) (int, error) {
	rows, err := s.ledger.ListSales(ctx, dateRange)
	if err != nil {
		return 0, err
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("analytics: create %s: %v: %w", path, err, shared.ErrExportIO)
	}

	if err := export.WriteSalesCSV(file, rows); err != nil {
		_ = file.Close()
		return 0, fmt.Errorf("analytics: write %s: %v: %w", path, err, shared.ErrExportIO)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("analytics: close %s: %v: %w", path, err, shared.ErrExportIO)
	}

	s.logger.Info("sales exported", "path", path, "rows", len(rows))
	return len(rows), nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/shared"
)

// Service provides business logic for catalog operations.
type Service struct {
	repo           Repository
	defaultTaxRate decimal.Decimal
	logger         *slog.Logger
}

// NewService constructs a catalog service.
func NewService(repo Repository, defaultTaxRate decimal.Decimal, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, defaultTaxRate: defaultTaxRate, logger: logger}
}

// Get returns one product by sku.
func (s *Service) Get(ctx context.Context, sku string) (Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Product{}, fmt.Errorf("catalog: sku is required: %w", shared.ErrValidation)
	}
	return s.repo.Get(ctx, sku)
}

// ListAll returns the whole catalog ordered by sku.
func (s *Service) ListAll(ctx context.Context) ([]Product, error) {
	return s.repo.ListAll(ctx)
}

// Create inserts a new product after validation. A zero TaxRate on a product
// that did not set one explicitly is filled from the configured default by
// Normalize before this call.
func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	product.UnitPrice = product.UnitPrice.Round(2)
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("product created", "sku", created.SKU, "stock_qty", created.StockQty)
	return created, nil
}

// Update applies a partial edit. The sku itself is immutable.
func (s *Service) Update(ctx context.Context, sku string, update Update) (Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Product{}, fmt.Errorf("catalog: sku is required: %w", shared.ErrValidation)
	}
	if update.SKU != nil && *update.SKU != sku {
		return Product{}, fmt.Errorf("catalog: sku cannot change: %w", shared.ErrImmutableField)
	}
	update.SKU = nil
	if update.Empty() {
		return s.repo.Get(ctx, sku)
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return Product{}, fmt.Errorf("catalog: name cannot be empty: %w", shared.ErrValidation)
	}
	if update.Category != nil && strings.TrimSpace(*update.Category) == "" {
		return Product{}, fmt.Errorf("catalog: category cannot be empty: %w", shared.ErrValidation)
	}
	if update.UnitPrice != nil {
		if update.UnitPrice.IsNegative() {
			return Product{}, fmt.Errorf("catalog: unit price must be >= 0: %w", shared.ErrValidation)
		}
		rounded := update.UnitPrice.Round(2)
		update.UnitPrice = &rounded
	}
	if update.TaxRate != nil && !validTaxRate(*update.TaxRate) {
		return Product{}, fmt.Errorf("catalog: tax rate must be in [0, 1): %w", shared.ErrValidation)
	}
	if update.StockQty != nil && *update.StockQty < 0 {
		return Product{}, fmt.Errorf("catalog: stock qty must be >= 0: %w", shared.ErrValidation)
	}

	updated, err := s.repo.Update(ctx, sku, update)
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("product updated", "sku", sku)
	return updated, nil
}

// Delete removes a product. Sale history blocks the delete unless force is
// set, in which case the history rows go with it.
func (s *Service) Delete(ctx context.Context, sku string, force bool) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return fmt.Errorf("catalog: sku is required: %w", shared.ErrValidation)
	}
	if err := s.repo.Delete(ctx, sku, force); err != nil {
		return err
	}
	s.logger.Info("product deleted", "sku", sku, "force", force)
	return nil
}

// BulkInsert loads a batch of products one row at a time. Invalid or
// duplicate rows are skipped and reported; they never abort the batch.
func (s *Service) BulkInsert(ctx context.Context, products []Product) (int, []Rejection, error) {
	inserted := 0
	var rejected []Rejection
	for _, product := range products {
		if err := s.validate(product); err != nil {
			rejected = append(rejected, Rejection{SKU: product.SKU, Reason: err.Error()})
			continue
		}
		product.UnitPrice = product.UnitPrice.Round(2)
		if _, err := s.repo.Create(ctx, product); err != nil {
			if errors.Is(err, shared.ErrDuplicateSKU) || errors.Is(err, shared.ErrValidation) {
				s.logger.Warn("bulk insert rejected row", "sku", product.SKU, "reason", err.Error())
				rejected = append(rejected, Rejection{SKU: product.SKU, Reason: err.Error()})
				continue
			}
			return inserted, rejected, err
		}
		inserted++
	}
	s.logger.Info("bulk insert finished", "inserted", inserted, "rejected", len(rejected))
	return inserted, rejected, nil
}

// Normalize fills the configured default tax rate into a record that did not
// carry one.
func (s *Service) Normalize(product Product, taxRateSet bool) Product {
	if !taxRateSet {
		product.TaxRate = s.defaultTaxRate
	}
	return product
}

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("catalog: sku is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("catalog: name is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Category) == "" {
		return fmt.Errorf("catalog: category is required: %w", shared.ErrValidation)
	}
	if p.UnitPrice.IsNegative() {
		return fmt.Errorf("catalog: unit price must be >= 0: %w", shared.ErrValidation)
	}
	if !validTaxRate(p.TaxRate) {
		return fmt.Errorf("catalog: tax rate must be in [0, 1): %w", shared.ErrValidation)
	}
	if p.StockQty < 0 {
		return fmt.Errorf("catalog: stock qty must be >= 0: %w", shared.ErrValidation)
	}
	return nil
}

func validTaxRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThan(decimal.NewFromInt(1))
}

package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stockpilot/stockpilot/internal/pricing"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// Service coordinates the sale path: validate stock, price the line,
// decrement stock and append the ledger row, all inside one transaction.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Sell commits one sale of quantity units of sku and returns the recorded
// row. On any failure stock and ledger are left exactly as they were.
func (s *Service) Sell(ctx context.Context, sku string, quantity int64) (Sale, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Sale{}, fmt.Errorf("sales: sku is required: %w", shared.ErrValidation)
	}
	if quantity <= 0 {
		return Sale{}, fmt.Errorf("sales: quantity must be > 0, got %d: %w", quantity, shared.ErrInsufficientStock)
	}

	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		snapshot, err := tx.GetProductForUpdate(ctx, sku)
		if err != nil {
			return err
		}
		if quantity > snapshot.StockQty {
			return fmt.Errorf("sales: %s has %d on hand, requested %d: %w",
				sku, snapshot.StockQty, quantity, shared.ErrInsufficientStock)
		}

		amounts := pricing.Quote(snapshot.UnitPrice, quantity, snapshot.TaxRate)

		if err := tx.DecrementStock(ctx, sku, quantity); err != nil {
			return err
		}

		sale = Sale{
			SKU:             sku,
			Quantity:        quantity,
			UnitPriceAtSale: snapshot.UnitPrice,
			TaxRateAtSale:   snapshot.TaxRate,
			NetAmount:       amounts.Net,
			TaxAmount:       amounts.Tax,
			GrossAmount:     amounts.Gross,
			SoldAt:          s.now(),
		}
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		return nil
	})
	if err != nil {
		if isDomainErr(err) {
			return Sale{}, err
		}
		return Sale{}, fmt.Errorf("sales: sale of %s rolled back: %v: %w", sku, err, shared.ErrTxAborted)
	}

	s.logger.Info("sale committed",
		"sale_id", sale.ID, "sku", sale.SKU, "quantity", sale.Quantity,
		"gross", sale.GrossAmount.StringFixed(2))
	return sale, nil
}

func isDomainErr(err error) bool {
	return errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrInsufficientStock) ||
		errors.Is(err, shared.ErrValidation) ||
		errors.Is(err, shared.ErrTxAborted)
}

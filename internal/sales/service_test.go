package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/stockpilot/stockpilot/internal/shared"
)

type memoryRepo struct {
	mu         sync.Mutex
	products   map[string]ProductSnapshot
	sales      []Sale
	nextID     int64
	failInsert bool
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[string]ProductSnapshot)}
}

func (r *memoryRepo) addProduct(sku, price, taxRate string, stock int64) {
	r.products[sku] = ProductSnapshot{
		SKU:       sku,
		UnitPrice: decimal.RequireFromString(price),
		TaxRate:   decimal.RequireFromString(taxRate),
		StockQty:  stock,
	}
}

// WithTx serialises callers on one mutex and restores the pre-transaction
// state on error, mirroring rollback semantics.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	backupProducts := make(map[string]ProductSnapshot, len(r.products))
	for k, v := range r.products {
		backupProducts[k] = v
	}
	backupSales := make([]Sale, len(r.sales))
	copy(backupSales, r.sales)
	backupID := r.nextID

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.products = backupProducts
		r.sales = backupSales
		r.nextID = backupID
		return err
	}
	return nil
}

func (r *memoryRepo) ListSales(ctx context.Context, dateRange *DateRange) ([]Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sale
	for _, s := range r.sales {
		if dateRange.Contains(s.SoldAt) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryRepo) Totals(ctx context.Context, dateRange *DateRange) (Totals, error) {
	rows, err := r.ListSales(ctx, dateRange)
	if err != nil {
		return Totals{}, err
	}
	totals := Totals{Net: decimal.Zero, Tax: decimal.Zero, Gross: decimal.Zero}
	for _, s := range rows {
		totals.SaleCount++
		totals.Net = totals.Net.Add(s.NetAmount)
		totals.Tax = totals.Tax.Add(s.TaxAmount)
		totals.Gross = totals.Gross.Add(s.GrossAmount)
	}
	return totals, nil
}

func (r *memoryRepo) BestSellers(ctx context.Context, limit int) ([]SellerRank, error) {
	return nil, nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, sku string) (ProductSnapshot, error) {
	snap, ok := tx.repo.products[sku]
	if !ok {
		return ProductSnapshot{}, fmt.Errorf("sales: product %s: %w", sku, shared.ErrNotFound)
	}
	return snap, nil
}

func (tx *memoryTx) DecrementStock(ctx context.Context, sku string, quantity int64) error {
	snap, ok := tx.repo.products[sku]
	if !ok || snap.StockQty < quantity {
		return fmt.Errorf("sales: stock of %s changed under us: %w", sku, shared.ErrInsufficientStock)
	}
	snap.StockQty -= quantity
	tx.repo.products[sku] = snap
	return nil
}

func (tx *memoryTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	if tx.repo.failInsert {
		return 0, errors.New("disk full")
	}
	tx.repo.nextID++
	sale.ID = tx.repo.nextID
	tx.repo.sales = append(tx.repo.sales, sale)
	return sale.ID, nil
}

func TestSellCommitsDecrementAndLedgerRow(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct("A1", "10.00", "0.20", 10)
	svc := NewService(repo, nil)

	sale, err := svc.Sell(context.Background(), "A1", 3)
	require.NoError(t, err)
	require.Equal(t, int64(1), sale.ID)
	require.Equal(t, "30.00", sale.NetAmount.StringFixed(2))
	require.Equal(t, "6.00", sale.TaxAmount.StringFixed(2))
	require.Equal(t, "36.00", sale.GrossAmount.StringFixed(2))
	require.Equal(t, "10.00", sale.UnitPriceAtSale.StringFixed(2))
	require.False(t, sale.SoldAt.IsZero())

	require.Equal(t, int64(7), repo.products["A1"].StockQty)
	require.Len(t, repo.sales, 1)
}

func TestSellSnapshotSurvivesPriceEdit(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct("A1", "10.00", "0.20", 10)
	svc := NewService(repo, nil)

	sale, err := svc.Sell(context.Background(), "A1", 1)
	require.NoError(t, err)

	repo.addProduct("A1", "99.99", "0.10", repo.products["A1"].StockQty)

	require.Equal(t, "10.00", repo.sales[0].UnitPriceAtSale.StringFixed(2))
	require.Equal(t, "0.20", sale.TaxRateAtSale.StringFixed(2))
}

func TestSellInsufficientStockLeavesStateUnchanged(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct("A1", "10.00", "0.20", 2)
	svc := NewService(repo, nil)

	_, err := svc.Sell(context.Background(), "A1", 5)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, int64(2), repo.products["A1"].StockQty)
	require.Empty(t, repo.sales)
}

func TestSellRejectsNonPositiveQuantity(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct("A1", "10.00", "0.20", 2)
	svc := NewService(repo, nil)

	_, err := svc.Sell(context.Background(), "A1", 0)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	_, err = svc.Sell(context.Background(), "A1", -3)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Empty(t, repo.sales)
}

func TestSellUnknownSKU(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.Sell(context.Background(), "NOPE", 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSellRollsBackOnLedgerFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct("A1", "10.00", "0.20", 10)
	repo.failInsert = true
	svc := NewService(repo, nil)

	_, err := svc.Sell(context.Background(), "A1", 3)
	require.ErrorIs(t, err, shared.ErrTxAborted)

	// No partial decrement, no orphan ledger row.
	require.Equal(t, int64(10), repo.products["A1"].StockQty)
	require.Empty(t, repo.sales)
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct("A1", "10.00", "0.20", 10)
	svc := NewService(repo, nil)

	var g errgroup.Group
	results := make([]error, 8)
	for i := range results {
		i := i
		g.Go(func() error {
			_, err := svc.Sell(context.Background(), "A1", 3)
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, shared.ErrInsufficientStock)
		}
	}
	// 10 units at 3 per sale: exactly three sales can be honoured.
	require.Equal(t, 3, succeeded)
	require.Equal(t, int64(1), repo.products["A1"].StockQty)
	require.Len(t, repo.sales, 3)
}

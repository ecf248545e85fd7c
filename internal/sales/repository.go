package sales

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot/stockpilot/internal/shared"
)

// RepositoryPort abstracts ledger persistence for the service and the
// dashboard aggregator.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListSales(ctx context.Context, dateRange *DateRange) ([]Sale, error)
	Totals(ctx context.Context, dateRange *DateRange) (Totals, error)
	BestSellers(ctx context.Context, limit int) ([]SellerRank, error)
}

// TxRepository exposes the writes of a sale commit, bound to one transaction.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, sku string) (ProductSnapshot, error)
	DecrementStock(ctx context.Context, sku string, quantity int64) error
	InsertSale(ctx context.Context, sale Sale) (int64, error)
}

// Repository persists the sales ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a serializable transaction. The commit error
// path surfaces as an aborted transaction; domain failures pass through.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("sales: begin tx: %v: %w", err, shared.ErrTxAborted)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("sales: commit: %v: %w", err, shared.ErrTxAborted)
	}
	return nil
}

// GetProductForUpdate locks the product row for the rest of the transaction,
// so a concurrent sale of the same sku waits and then re-reads the
// post-decrement stock.
func (t *txRepo) GetProductForUpdate(ctx context.Context, sku string) (ProductSnapshot, error) {
	query := `SELECT sku, unit_price, tax_rate, stock_qty FROM products WHERE sku = $1 FOR UPDATE`
	var snap ProductSnapshot
	err := t.tx.QueryRow(ctx, query, sku).Scan(&snap.SKU, &snap.UnitPrice, &snap.TaxRate, &snap.StockQty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductSnapshot{}, fmt.Errorf("sales: product %s: %w", sku, shared.ErrNotFound)
		}
		return ProductSnapshot{}, fmt.Errorf("sales: lock %s: %w", sku, err)
	}
	return snap, nil
}

// DecrementStock subtracts quantity, guarded so stock can never go negative
// even if the caller's read was stale.
func (t *txRepo) DecrementStock(ctx context.Context, sku string, quantity int64) error {
	query := `UPDATE products SET stock_qty = stock_qty - $2, updated_at = now() WHERE sku = $1 AND stock_qty >= $2`
	tag, err := t.tx.Exec(ctx, query, sku, quantity)
	if err != nil {
		return fmt.Errorf("sales: decrement %s: %w", sku, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: stock of %s changed under us: %w", sku, shared.ErrInsufficientStock)
	}
	return nil
}

func (t *txRepo) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	query := `INSERT INTO sales (sku, quantity, unit_price_at_sale, tax_rate_at_sale, net_amount, tax_amount, gross_amount, sold_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		sale.SKU, sale.Quantity, sale.UnitPriceAtSale, sale.TaxRateAtSale,
		sale.NetAmount, sale.TaxAmount, sale.GrossAmount, sale.SoldAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("sales: insert sale for %s: %w", sale.SKU, err)
	}
	return id, nil
}

const saleColumns = `id, sku, quantity, unit_price_at_sale, tax_rate_at_sale, net_amount, tax_amount, gross_amount, sold_at`

// ListSales streams ledger rows in insertion order, optionally bounded by the
// sold_at range.
func (r *Repository) ListSales(ctx context.Context, dateRange *DateRange) ([]Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales`
	where, args := rangeClause(dateRange)
	query += where + ` ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sales: list: %w", err)
	}
	defer rows.Close()

	var result []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.SKU, &s.Quantity, &s.UnitPriceAtSale, &s.TaxRateAtSale,
			&s.NetAmount, &s.TaxAmount, &s.GrossAmount, &s.SoldAt); err != nil {
			return nil, fmt.Errorf("sales: scan: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Totals sums the persisted amounts; amounts are never recomputed from
// current catalog prices.
func (r *Repository) Totals(ctx context.Context, dateRange *DateRange) (Totals, error) {
	query := `SELECT COUNT(*),
  COALESCE(SUM(net_amount), 0),
  COALESCE(SUM(tax_amount), 0),
  COALESCE(SUM(gross_amount), 0)
FROM sales`
	where, args := rangeClause(dateRange)
	query += where

	var totals Totals
	err := r.pool.QueryRow(ctx, query, args...).Scan(&totals.SaleCount, &totals.Net, &totals.Tax, &totals.Gross)
	if err != nil {
		return Totals{}, fmt.Errorf("sales: totals: %w", err)
	}
	return totals, nil
}

// BestSellers ranks skus by quantity sold, ties broken by sku ascending.
func (r *Repository) BestSellers(ctx context.Context, limit int) ([]SellerRank, error) {
	query := `SELECT sku, SUM(quantity) AS total_qty FROM sales
GROUP BY sku ORDER BY total_qty DESC, sku ASC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sales: best sellers: %w", err)
	}
	defer rows.Close()

	var ranks []SellerRank
	for rows.Next() {
		var rank SellerRank
		if err := rows.Scan(&rank.SKU, &rank.TotalQty); err != nil {
			return nil, fmt.Errorf("sales: scan rank: %w", err)
		}
		ranks = append(ranks, rank)
	}
	return ranks, rows.Err()
}

func rangeClause(dateRange *DateRange) (string, []any) {
	if dateRange == nil {
		return "", nil
	}
	clause := ""
	var args []any
	if !dateRange.From.IsZero() {
		args = append(args, dateRange.From)
		clause += ` WHERE sold_at >= $` + strconv.Itoa(len(args))
	}
	if !dateRange.To.IsZero() {
		args = append(args, dateRange.To)
		if clause == "" {
			clause = ` WHERE sold_at <= $` + strconv.Itoa(len(args))
		} else {
			clause += ` AND sold_at <= $` + strconv.Itoa(len(args))
		}
	}
	return clause, args
}

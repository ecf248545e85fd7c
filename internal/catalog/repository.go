package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot/stockpilot/internal/platform/db"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// Repository persists products in PostgreSQL.
type Repository interface {
	Get(ctx context.Context, sku string) (Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	ListLowStock(ctx context.Context, threshold int64) ([]Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, sku string, update Update) (Product, error)
	Delete(ctx context.Context, sku string, force bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `sku, name, category, unit_price, tax_rate, stock_qty, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.SKU, &p.Name, &p.Category, &p.UnitPrice, &p.TaxRate, &p.StockQty, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) Get(ctx context.Context, sku string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, query, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("catalog: product %s: %w", sku, shared.ErrNotFound)
		}
		return Product{}, fmt.Errorf("catalog: get %s: %w", sku, err)
	}
	return p, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY sku ASC`
	return r.list(ctx, query)
}

func (r *repository) ListLowStock(ctx context.Context, threshold int64) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE stock_qty <= $1 ORDER BY stock_qty ASC, sku ASC`
	return r.list(ctx, query, threshold)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	query := `INSERT INTO products (sku, name, category, unit_price, tax_rate, stock_qty, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, query,
		product.SKU, product.Name, product.Category, product.UnitPrice, product.TaxRate, product.StockQty, now)
	if err != nil {
		switch pgErrCode(err) {
		case pgUniqueViolation:
			return Product{}, fmt.Errorf("catalog: sku %s already exists: %w", product.SKU, shared.ErrDuplicateSKU)
		case pgCheckViolation:
			return Product{}, fmt.Errorf("catalog: constraint rejected %s: %w", product.SKU, shared.ErrValidation)
		}
		return Product{}, fmt.Errorf("catalog: create %s: %w", product.SKU, err)
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) Update(ctx context.Context, sku string, update Update) (Product, error) {
	set := []string{}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, column+" = $"+strconv.Itoa(len(args)))
	}
	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Category != nil {
		add("category", *update.Category)
	}
	if update.UnitPrice != nil {
		add("unit_price", *update.UnitPrice)
	}
	if update.TaxRate != nil {
		add("tax_rate", *update.TaxRate)
	}
	if update.StockQty != nil {
		add("stock_qty", *update.StockQty)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, sku)
	query := `UPDATE products SET ` + strings.Join(set, ", ") + ` WHERE sku = $` + strconv.Itoa(len(args)) +
		` RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("catalog: product %s: %w", sku, shared.ErrNotFound)
		}
		if pgErrCode(err) == pgCheckViolation {
			return Product{}, fmt.Errorf("catalog: constraint rejected %s: %w", sku, shared.ErrValidation)
		}
		return Product{}, fmt.Errorf("catalog: update %s: %w", sku, err)
	}
	return p, nil
}

// Delete removes a product. Without force the delete fails when sale history
// references the sku; with force the history is removed first, atomically.
func (r *repository) Delete(ctx context.Context, sku string, force bool) error {
	if !force {
		tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE sku = $1`, sku)
		if err != nil {
			if pgErrCode(err) == pgForeignKeyViolation {
				return fmt.Errorf("catalog: %s has sale history: %w", sku, shared.ErrReferentialIntegrity)
			}
			return fmt.Errorf("catalog: delete %s: %w", sku, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("catalog: product %s: %w", sku, shared.ErrNotFound)
		}
		return nil
	}

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM sales WHERE sku = $1`, sku); err != nil {
			return fmt.Errorf("catalog: delete history of %s: %w", sku, err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM products WHERE sku = $1`, sku)
		if err != nil {
			return fmt.Errorf("catalog: delete %s: %w", sku, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("catalog: product %s: %w", sku, shared.ErrNotFound)
		}
		return nil
	})
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

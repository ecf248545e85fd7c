// Package cli is the interactive presentation layer: a numbered menu that
// maps operator choices onto the engine's operations. It owns prompts and
// table rendering only; validation and consistency live below it.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/sales"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// Core is the capability surface the menu drives.
type Core interface {
	Initialize(ctx context.Context, overwrite bool) error
	ImportFeed(ctx context.Context, r io.Reader) (int, []catalog.Rejection, error)
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, product catalog.Product, taxRateSet bool) (catalog.Product, error)
	UpdateProduct(ctx context.Context, sku string, update catalog.Update) (catalog.Product, error)
	DeleteProduct(ctx context.Context, sku string, force bool) error
	Sell(ctx context.Context, sku string, quantity int64) (sales.Sale, error)
	Totals(ctx context.Context, dateRange *sales.DateRange) (sales.Totals, error)
	BestSellers(ctx context.Context, limit int) ([]sales.SellerRank, error)
	LowStock(ctx context.Context, threshold int64) ([]catalog.Product, error)
	ExportSalesCSV(ctx context.Context, path string, dateRange *sales.DateRange) (int, error)
}

// Options configures the menu; IO is injected so tests can script a session.
type Options struct {
	Input  io.Reader
	Output io.Writer

	FeedPath          string
	ExportPath        string
	LowStockThreshold int64
}

// Menu is the interactive loop.
type Menu struct {
	core Core
	in   *bufio.Reader
	out  io.Writer
	opts Options
}

// New constructs the menu.
func New(core Core, opts Options) *Menu {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = 5
	}
	return &Menu{core: core, in: bufio.NewReader(opts.Input), out: opts.Output, opts: opts}
}

const menuText = `
=== stockpilot — store inventory & sales ===
 1) Initialize catalog from JSON feed
 2) Show inventory
 3) Add product
 4) Update product
 5) Delete product
 6) Sell
 7) Dashboard
 8) Best sellers
 9) Low stock
10) Export sales CSV
 0) Quit
`

// Run loops until the operator quits or input ends.
func (m *Menu) Run(ctx context.Context) error {
	for {
		fmt.Fprint(m.out, menuText)
		choice, err := m.prompt("Choice: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(m.out, "bye.")
				return nil
			}
			return err
		}

		if choice == "0" {
			fmt.Fprintln(m.out, "bye.")
			return nil
		}
		if err := m.dispatch(ctx, choice); err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(m.out, "bye.")
				return nil
			}
			m.printErr(err)
		}
	}
}

func (m *Menu) dispatch(ctx context.Context, choice string) error {
	switch choice {
	case "1":
		return m.actionInitialize(ctx)
	case "2":
		return m.actionInventory(ctx)
	case "3":
		return m.actionAddProduct(ctx)
	case "4":
		return m.actionUpdateProduct(ctx)
	case "5":
		return m.actionDeleteProduct(ctx)
	case "6":
		return m.actionSell(ctx)
	case "7":
		return m.actionDashboard(ctx)
	case "8":
		return m.actionBestSellers(ctx)
	case "9":
		return m.actionLowStock(ctx)
	case "10":
		return m.actionExport(ctx)
	default:
		fmt.Fprintln(m.out, "pick an option between 0 and 10.")
		return nil
	}
}

func (m *Menu) actionInitialize(ctx context.Context) error {
	path, err := m.promptDefault("Feed path", m.opts.FeedPath)
	if err != nil {
		return err
	}
	overwrite, err := m.confirm("Overwrite existing data? (y/N): ")
	if err != nil {
		return err
	}

	if err := m.core.Initialize(ctx, overwrite); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open feed %s: %v: %w", path, err, shared.ErrValidation)
	}
	defer file.Close()

	inserted, rejected, err := m.core.ImportFeed(ctx, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "imported %d product(s), %d rejected.\n", inserted, len(rejected))
	for _, r := range rejected {
		fmt.Fprintf(m.out, "  rejected %s: %s\n", r.SKU, r.Reason)
	}
	return nil
}

func (m *Menu) actionInventory(ctx context.Context) error {
	products, err := m.core.ListProducts(ctx)
	if err != nil {
		return err
	}
	renderProducts(m.out, products)
	return nil
}

func (m *Menu) actionAddProduct(ctx context.Context) error {
	sku, err := m.prompt("SKU: ")
	if err != nil {
		return err
	}
	name, err := m.prompt("Name: ")
	if err != nil {
		return err
	}
	category, err := m.prompt("Category: ")
	if err != nil {
		return err
	}
	price, err := m.promptDecimal("Unit price (net): ")
	if err != nil {
		return err
	}
	stock, err := m.promptInt("Stock qty: ")
	if err != nil {
		return err
	}
	taxRate, taxRateSet, err := m.promptOptionalDecimal("Tax rate [enter for default]: ")
	if err != nil {
		return err
	}

	product := catalog.Product{
		SKU:       sku,
		Name:      name,
		Category:  category,
		UnitPrice: price,
		TaxRate:   taxRate,
		StockQty:  stock,
	}
	created, err := m.core.CreateProduct(ctx, product, taxRateSet)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "product %s added.\n", created.SKU)
	return nil
}

func (m *Menu) actionUpdateProduct(ctx context.Context) error {
	sku, err := m.prompt("SKU to update: ")
	if err != nil {
		return err
	}

	var update catalog.Update
	if name, err := m.promptOptional("New name [enter to keep]: "); err != nil {
		return err
	} else if name != nil {
		update.Name = name
	}
	if category, err := m.promptOptional("New category [enter to keep]: "); err != nil {
		return err
	} else if category != nil {
		update.Category = category
	}
	if price, set, err := m.promptOptionalDecimal("New unit price [enter to keep]: "); err != nil {
		return err
	} else if set {
		update.UnitPrice = &price
	}
	if rate, set, err := m.promptOptionalDecimal("New tax rate [enter to keep]: "); err != nil {
		return err
	} else if set {
		update.TaxRate = &rate
	}
	if raw, err := m.promptOptional("New stock qty [enter to keep]: "); err != nil {
		return err
	} else if raw != nil {
		qty, err := strconv.ParseInt(*raw, 10, 64)
		if err != nil {
			return fmt.Errorf("stock qty must be an integer: %w", shared.ErrValidation)
		}
		update.StockQty = &qty
	}

	if update.Empty() {
		fmt.Fprintln(m.out, "nothing to change.")
		return nil
	}
	updated, err := m.core.UpdateProduct(ctx, sku, update)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "product %s updated.\n", updated.SKU)
	return nil
}

func (m *Menu) actionDeleteProduct(ctx context.Context) error {
	sku, err := m.prompt("SKU to delete: ")
	if err != nil {
		return err
	}
	confirmed, err := m.confirm(fmt.Sprintf("Delete %s? (y/N): ", sku))
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(m.out, "cancelled.")
		return nil
	}

	err = m.core.DeleteProduct(ctx, sku, false)
	if errors.Is(err, shared.ErrReferentialIntegrity) {
		force, cerr := m.confirm("Product has sale history. Delete history too? (y/N): ")
		if cerr != nil {
			return cerr
		}
		if !force {
			fmt.Fprintln(m.out, "cancelled.")
			return nil
		}
		err = m.core.DeleteProduct(ctx, sku, true)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "product %s deleted.\n", sku)
	return nil
}

func (m *Menu) actionSell(ctx context.Context) error {
	sku, err := m.prompt("SKU to sell: ")
	if err != nil {
		return err
	}
	quantity, err := m.promptInt("Quantity: ")
	if err != nil {
		return err
	}

	sale, err := m.core.Sell(ctx, sku, quantity)
	if err != nil {
		return err
	}
	renderSale(m.out, sale)
	return nil
}

func (m *Menu) actionDashboard(ctx context.Context) error {
	dateRange, err := m.promptDateRange()
	if err != nil {
		return err
	}
	totals, err := m.core.Totals(ctx, dateRange)
	if err != nil {
		return err
	}
	renderTotals(m.out, totals)
	return nil
}

func (m *Menu) actionBestSellers(ctx context.Context) error {
	limit, err := m.promptIntDefault("Limit", 5)
	if err != nil {
		return err
	}
	ranks, err := m.core.BestSellers(ctx, int(limit))
	if err != nil {
		return err
	}
	renderRanks(m.out, ranks)
	return nil
}

func (m *Menu) actionLowStock(ctx context.Context) error {
	threshold, err := m.promptIntDefault("Threshold", m.opts.LowStockThreshold)
	if err != nil {
		return err
	}
	products, err := m.core.LowStock(ctx, threshold)
	if err != nil {
		return err
	}
	renderProducts(m.out, products)
	return nil
}

func (m *Menu) actionExport(ctx context.Context) error {
	path, err := m.promptDefault("Export path", m.opts.ExportPath)
	if err != nil {
		return err
	}
	dateRange, err := m.promptDateRange()
	if err != nil {
		return err
	}
	count, err := m.core.ExportSalesCSV(ctx, path, dateRange)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "wrote %d sale(s) to %s.\n", count, path)
	return nil
}

func (m *Menu) printErr(err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		fmt.Fprintf(m.out, "not found: %v\n", err)
	case errors.Is(err, shared.ErrInsufficientStock):
		fmt.Fprintf(m.out, "stock: %v\n", err)
	case errors.Is(err, shared.ErrDuplicateSKU),
		errors.Is(err, shared.ErrImmutableField),
		errors.Is(err, shared.ErrValidation):
		fmt.Fprintf(m.out, "invalid input: %v\n", err)
	case errors.Is(err, shared.ErrReferentialIntegrity):
		fmt.Fprintf(m.out, "blocked: %v\n", err)
	default:
		fmt.Fprintf(m.out, "error: %v\n", err)
	}
}

func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	line, err := m.in.ReadString('\n')
	if err != nil && (line == "" || err != io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (m *Menu) confirm(label string) (bool, error) {
	value, err := m.prompt(label)
	if err != nil {
		return false, err
	}
	value = strings.ToLower(value)
	return value == "y" || value == "yes", nil
}

func (m *Menu) promptDefault(label, fallback string) (string, error) {
	value, err := m.prompt(fmt.Sprintf("%s [%s]: ", label, fallback))
	if err != nil {
		return "", err
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

// promptOptional returns nil when the operator just presses enter.
func (m *Menu) promptOptional(label string) (*string, error) {
	value, err := m.prompt(label)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	return &value, nil
}

func (m *Menu) promptDecimal(label string) (decimal.Decimal, error) {
	value, err := m.prompt(label)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("expected a number, got %q: %w", value, shared.ErrValidation)
	}
	return d, nil
}

func (m *Menu) promptOptionalDecimal(label string) (decimal.Decimal, bool, error) {
	raw, err := m.promptOptional(label)
	if err != nil || raw == nil {
		return decimal.Zero, false, err
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("expected a number, got %q: %w", *raw, shared.ErrValidation)
	}
	return d, true, nil
}

func (m *Menu) promptInt(label string) (int64, error) {
	value, err := m.prompt(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected an integer, got %q: %w", value, shared.ErrValidation)
	}
	return n, nil
}

func (m *Menu) promptIntDefault(label string, fallback int64) (int64, error) {
	raw, err := m.promptOptional(fmt.Sprintf("%s [%d]: ", label, fallback))
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return fallback, nil
	}
	n, err := strconv.ParseInt(*raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected an integer, got %q: %w", *raw, shared.ErrValidation)
	}
	return n, nil
}

// promptDateRange asks for an optional inclusive from/to day pair.
func (m *Menu) promptDateRange() (*sales.DateRange, error) {
	from, err := m.promptOptional("From date YYYY-MM-DD [enter for all]: ")
	if err != nil {
		return nil, err
	}
	to, err := m.promptOptional("To date YYYY-MM-DD [enter for all]: ")
	if err != nil {
		return nil, err
	}
	if from == nil && to == nil {
		return nil, nil
	}

	var dateRange sales.DateRange
	if from != nil {
		day, err := time.ParseInLocation("2006-01-02", *from, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad from date %q: %w", *from, shared.ErrValidation)
		}
		dateRange.From = day
	}
	if to != nil {
		day, err := time.ParseInLocation("2006-01-02", *to, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad to date %q: %w", *to, shared.ErrValidation)
		}
		// inclusive end of day
		dateRange.To = day.Add(24*time.Hour - time.Nanosecond)
	}
	return &dateRange, nil
}

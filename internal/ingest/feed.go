// Package ingest parses the external product feed: a JSON document with an
// optional default tax rate and a list of product records. Malformed records
// are reported one by one and never abort the batch.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/shared"
)

var validate = validator.New()

type feedDocument struct {
	TaxRateDefault *decimal.Decimal  `json:"tax_rate_default"`
	Products       []json.RawMessage `json:"products"`
}

type feedRecord struct {
	SKU       string           `json:"sku" validate:"required"`
	Name      string           `json:"name" validate:"required"`
	Category  string           `json:"category" validate:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"required"`
	StockQty  *int64           `json:"stock_qty" validate:"required,min=0"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
}

// Feed is the validated result of one parsed product feed.
type Feed struct {
	BatchID        uuid.UUID
	DefaultTaxRate decimal.Decimal
	Products       []catalog.Product
	Rejected       []catalog.Rejection
}

// ParseFeed reads and validates a feed document. The per-document
// tax_rate_default, when present, overrides the configured default; a
// per-record tax_rate overrides both. Only an unreadable or structurally
// malformed document is fatal.
func ParseFeed(r io.Reader, defaultTaxRate decimal.Decimal) (Feed, error) {
	feed := Feed{BatchID: uuid.New(), DefaultTaxRate: defaultTaxRate}

	var doc feedDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Feed{}, fmt.Errorf("ingest: malformed feed document: %v: %w", err, shared.ErrValidation)
	}
	if doc.TaxRateDefault != nil {
		if !validTaxRate(*doc.TaxRateDefault) {
			return Feed{}, fmt.Errorf("ingest: tax_rate_default must be in [0, 1): %w", shared.ErrValidation)
		}
		feed.DefaultTaxRate = *doc.TaxRateDefault
	}

	seen := make(map[string]bool, len(doc.Products))
	for i, raw := range doc.Products {
		product, err := parseRecord(raw, feed.DefaultTaxRate)
		if err != nil {
			feed.Rejected = append(feed.Rejected, catalog.Rejection{
				SKU:    recordSKU(raw, i),
				Reason: err.Error(),
			})
			continue
		}
		if seen[product.SKU] {
			feed.Rejected = append(feed.Rejected, catalog.Rejection{
				SKU:    product.SKU,
				Reason: "duplicate sku within feed",
			})
			continue
		}
		seen[product.SKU] = true
		feed.Products = append(feed.Products, product)
	}
	return feed, nil
}

func parseRecord(raw json.RawMessage, defaultTaxRate decimal.Decimal) (catalog.Product, error) {
	var rec feedRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return catalog.Product{}, fmt.Errorf("malformed record: %v", err)
	}
	if err := validate.Struct(rec); err != nil {
		return catalog.Product{}, fmt.Errorf("missing or invalid field: %v", err)
	}
	if rec.UnitPrice.IsNegative() {
		return catalog.Product{}, fmt.Errorf("unit_price must be >= 0, got %s", rec.UnitPrice)
	}

	taxRate := defaultTaxRate
	if rec.TaxRate != nil {
		taxRate = *rec.TaxRate
	}
	if !validTaxRate(taxRate) {
		return catalog.Product{}, fmt.Errorf("tax_rate must be in [0, 1), got %s", taxRate)
	}

	return catalog.Product{
		SKU:       rec.SKU,
		Name:      rec.Name,
		Category:  rec.Category,
		UnitPrice: rec.UnitPrice.Round(2),
		TaxRate:   taxRate,
		StockQty:  *rec.StockQty,
	}, nil
}

// recordSKU best-effort extracts the sku of a rejected raw record so the
// report can name it.
func recordSKU(raw json.RawMessage, index int) string {
	var probe struct {
		SKU string `json:"sku"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.SKU != "" {
		return probe.SKU
	}
	return fmt.Sprintf("record #%d", index+1)
}

func validTaxRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThan(decimal.NewFromInt(1))
}

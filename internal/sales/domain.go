package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one row of the append-only ledger. Price and tax rate are snapshots
// taken at sale time; later catalog edits never touch them.
type Sale struct {
	ID              int64           `json:"id"`
	SKU             string          `json:"sku"`
	Quantity        int64           `json:"quantity"`
	UnitPriceAtSale decimal.Decimal `json:"unit_price_at_sale"`
	TaxRateAtSale   decimal.Decimal `json:"tax_rate_at_sale"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	SoldAt          time.Time       `json:"sold_at"`
}

// ProductSnapshot is what the sale path needs to know about a product while
// holding its row lock.
type ProductSnapshot struct {
	SKU       string
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
	StockQty  int64
}

// DateRange bounds ledger reads. A zero From or To leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Totals aggregates persisted sale amounts.
type Totals struct {
	Net       decimal.Decimal `json:"net_total"`
	Tax       decimal.Decimal `json:"tax_total"`
	Gross     decimal.Decimal `json:"gross_total"`
	SaleCount int64           `json:"sale_count"`
}

// SellerRank is one best-sellers entry.
type SellerRank struct {
	SKU      string `json:"sku"`
	TotalQty int64  `json:"total_qty"`
}

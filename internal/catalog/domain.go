package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents one catalog entry. UnitPrice is tax-exclusive.
type Product struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	StockQty  int64           `json:"stock_qty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Update describes a partial product edit. Nil fields stay untouched.
// SKU is carried only so the service can reject attempts to change it.
type Update struct {
	SKU       *string
	Name      *string
	Category  *string
	UnitPrice *decimal.Decimal
	TaxRate   *decimal.Decimal
	StockQty  *int64
}

// Empty reports whether the update would change nothing.
func (u Update) Empty() bool {
	return u.SKU == nil && u.Name == nil && u.Category == nil &&
		u.UnitPrice == nil && u.TaxRate == nil && u.StockQty == nil
}

// Rejection records one record a bulk insert refused, with the reason.
type Rejection struct {
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

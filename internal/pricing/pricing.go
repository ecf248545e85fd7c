// Package pricing holds the single arithmetic definition shared by the sale
// path and the dashboard. Amounts are rounded to 2 decimal places with
// round-half-to-even, so repeated aggregation reproduces the same totals.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Amounts is the priced result of one line: tax-exclusive net, the tax on it
// and the tax-inclusive gross.
type Amounts struct {
	Net   decimal.Decimal
	Tax   decimal.Decimal
	Gross decimal.Decimal
}

// Quote prices quantity units at unitPrice with taxRate applied.
// net = round2(unitPrice * quantity), tax = round2(net * taxRate),
// gross = net + tax. Pure computation, no IO.
func Quote(unitPrice decimal.Decimal, quantity int64, taxRate decimal.Decimal) Amounts {
	net := unitPrice.Mul(decimal.NewFromInt(quantity)).RoundBank(2)
	tax := net.Mul(taxRate).RoundBank(2)
	return Amounts{
		Net:   net,
		Tax:   tax,
		Gross: net.Add(tax),
	}
}

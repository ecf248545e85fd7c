package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/stockpilot/stockpilot/internal/sales"
)

// Header is the stable column order of the sales export.
var Header = []string{
	"id", "sku", "quantity",
	"unit_price_at_sale", "tax_rate_at_sale",
	"net_amount", "tax_amount", "gross_amount",
	"timestamp",
}

// WriteSalesCSV serialises ledger rows as UTF-8 CSV: one header row, one line
// per sale, money and rates with exactly two decimal places, timestamps in
// RFC 3339 UTC.
func WriteSalesCSV(w io.Writer, rows []sales.Sale) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, sale := range rows {
		record := []string{
			strconv.FormatInt(sale.ID, 10),
			sale.SKU,
			strconv.FormatInt(sale.Quantity, 10),
			sale.UnitPriceAtSale.StringFixed(2),
			sale.TaxRateAtSale.StringFixed(2),
			sale.NetAmount.StringFixed(2),
			sale.TaxAmount.StringFixed(2),
			sale.GrossAmount.StringFixed(2),
			sale.SoldAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

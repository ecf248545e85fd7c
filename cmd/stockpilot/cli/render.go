package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/sales"
)

func renderProducts(w io.Writer, products []catalog.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "no products.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tNAME\tCATEGORY\tUNIT PRICE\tTAX RATE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			p.SKU, p.Name, p.Category,
			p.UnitPrice.StringFixed(2), p.TaxRate.String(), p.StockQty)
	}
	tw.Flush()
}

func renderRanks(w io.Writer, ranks []sales.SellerRank) {
	if len(ranks) == 0 {
		fmt.Fprintln(w, "no sales yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSKU\tUNITS SOLD")
	for i, r := range ranks {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, r.SKU, r.TotalQty)
	}
	tw.Flush()
}

func renderSale(w io.Writer, sale sales.Sale) {
	fmt.Fprintf(w, "sold %d x %s:\n", sale.Quantity, sale.SKU)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "net\t%s\n", sale.NetAmount.StringFixed(2))
	fmt.Fprintf(tw, "tax\t%s\n", sale.TaxAmount.StringFixed(2))
	fmt.Fprintf(tw, "gross\t%s\n", sale.GrossAmount.StringFixed(2))
	tw.Flush()
}

func renderTotals(w io.Writer, totals sales.Totals) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "sales\t%d\n", totals.SaleCount)
	fmt.Fprintf(tw, "net total\t%s\n", totals.Net.StringFixed(2))
	fmt.Fprintf(tw, "tax total\t%s\n", totals.Tax.StringFixed(2))
	fmt.Fprintf(tw, "gross total\t%s\n", totals.Gross.StringFixed(2))
	tw.Flush()
}

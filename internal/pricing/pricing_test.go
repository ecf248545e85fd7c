package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestQuote(t *testing.T) {
	cases := []struct {
		name      string
		unitPrice string
		quantity  int64
		taxRate   string
		net       string
		tax       string
		gross     string
	}{
		{"worked example", "10.00", 3, "0.20", "30", "6", "36"},
		{"zero tax", "19.99", 2, "0", "39.98", "0", "39.98"},
		{"zero quantity", "10.00", 0, "0.20", "0", "0", "0"},
		{"single unit", "0.01", 1, "0.05", "0.01", "0", "0.01"},
		{"large order", "1234.56", 1000, "0.196", "1234560", "241973.76", "1476533.76"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amounts := Quote(dec(tc.unitPrice), tc.quantity, dec(tc.taxRate))
			require.True(t, dec(tc.net).Equal(amounts.Net), "net: want %s got %s", tc.net, amounts.Net)
			require.True(t, dec(tc.tax).Equal(amounts.Tax), "tax: want %s got %s", tc.tax, amounts.Tax)
			require.True(t, dec(tc.gross).Equal(amounts.Gross), "gross: want %s got %s", tc.gross, amounts.Gross)
		})
	}
}

func TestQuoteRoundsHalfToEven(t *testing.T) {
	// 0.125 sits exactly between 0.12 and 0.13; banker's rounding picks the
	// even neighbour.
	amounts := Quote(dec("0.125"), 1, dec("0"))
	require.Equal(t, "0.12", amounts.Net.StringFixed(2))

	amounts = Quote(dec("0.135"), 1, dec("0"))
	require.Equal(t, "0.14", amounts.Net.StringFixed(2))

	// Tax rounding follows the same rule: 2.50 * 0.05 = 0.125.
	amounts = Quote(dec("2.50"), 1, dec("0.05"))
	require.Equal(t, "0.12", amounts.Tax.StringFixed(2))
	require.Equal(t, "2.62", amounts.Gross.StringFixed(2))
}

func TestQuoteIsDeterministic(t *testing.T) {
	a := Quote(dec("7.77"), 7, dec("0.19"))
	b := Quote(dec("7.77"), 7, dec("0.19"))
	require.True(t, a.Net.Equal(b.Net))
	require.True(t, a.Tax.Equal(b.Tax))
	require.True(t, a.Gross.Equal(b.Gross))
	require.True(t, a.Gross.Equal(a.Net.Add(a.Tax)))
}

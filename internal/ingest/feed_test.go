package ingest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/shared"
)

func TestParseFeed(t *testing.T) {
	doc := `{
  "tax_rate_default": 0.10,
  "products": [
    {"sku": "A1", "name": "Espresso beans", "category": "coffee", "unit_price": 10.00, "stock_qty": 10},
    {"sku": "B2", "name": "Filter papers", "category": "supplies", "unit_price": 2.50, "stock_qty": 40, "tax_rate": 0.05}
  ]
}`
	feed, err := ParseFeed(strings.NewReader(doc), decimal.RequireFromString("0.20"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, feed.BatchID)
	require.Empty(t, feed.Rejected)
	require.Len(t, feed.Products, 2)

	// Document default wins over the configured default; record rate wins
	// over both.
	require.Equal(t, "0.10", feed.Products[0].TaxRate.StringFixed(2))
	require.Equal(t, "0.05", feed.Products[1].TaxRate.StringFixed(2))
	require.Equal(t, int64(40), feed.Products[1].StockQty)
}

func TestParseFeedUsesConfiguredDefaultRate(t *testing.T) {
	doc := `{"products": [{"sku": "A1", "name": "x", "category": "y", "unit_price": 1, "stock_qty": 1}]}`
	feed, err := ParseFeed(strings.NewReader(doc), decimal.RequireFromString("0.20"))
	require.NoError(t, err)
	require.Equal(t, "0.20", feed.Products[0].TaxRate.StringFixed(2))
}

func TestParseFeedRejectsBadRecordsIndividually(t *testing.T) {
	doc := `{
  "products": [
    {"sku": "A1", "name": "Good", "category": "ok", "unit_price": 5, "stock_qty": 3},
    {"sku": "B2", "category": "missing name", "unit_price": 5, "stock_qty": 3},
    {"sku": "C3", "name": "Bad price", "category": "ok", "unit_price": -1, "stock_qty": 3},
    {"sku": "D4", "name": "Bad qty", "category": "ok", "unit_price": 5, "stock_qty": -2},
    {"sku": "E5", "name": "Bad type", "category": "ok", "unit_price": "abc", "stock_qty": 3},
    {"sku": "A1", "name": "Dup", "category": "ok", "unit_price": 5, "stock_qty": 3}
  ]
}`
	feed, err := ParseFeed(strings.NewReader(doc), decimal.RequireFromString("0.20"))
	require.NoError(t, err)
	require.Len(t, feed.Products, 1)
	require.Equal(t, "A1", feed.Products[0].SKU)

	require.Len(t, feed.Rejected, 5)
	rejectedSKUs := make([]string, len(feed.Rejected))
	for i, r := range feed.Rejected {
		rejectedSKUs[i] = r.SKU
		require.NotEmpty(t, r.Reason)
	}
	require.Equal(t, []string{"B2", "C3", "D4", "E5", "A1"}, rejectedSKUs)
}

func TestParseFeedMalformedDocumentIsFatal(t *testing.T) {
	_, err := ParseFeed(strings.NewReader(`{"products": [`), decimal.RequireFromString("0.20"))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = ParseFeed(strings.NewReader(`{"tax_rate_default": 1.5, "products": []}`), decimal.RequireFromString("0.20"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestParseFeedRecordTaxRateOutOfRange(t *testing.T) {
	doc := `{"products": [{"sku": "A1", "name": "x", "category": "y", "unit_price": 1, "stock_qty": 1, "tax_rate": 1.0}]}`
	feed, err := ParseFeed(strings.NewReader(doc), decimal.RequireFromString("0.20"))
	require.NoError(t, err)
	require.Empty(t, feed.Products)
	require.Len(t, feed.Rejected, 1)
	require.Equal(t, "A1", feed.Rejected[0].SKU)
}

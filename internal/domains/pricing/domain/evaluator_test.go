package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

func usd(minor int64) money.Money { return money.MustOf(minor, "USD") }

func newUSDContext(t *testing.T, opts ...ContextOption) *Context {
	t.Helper()
	pctx, err := NewContext("USD", opts...)
	require.NoError(t, err)
	return pctx
}

func TestEvaluate_ExemptCategoryOrder(t *testing.T) {
	pctx := newUSDContext(t, WithExemptCategories("books"))
	lines := []OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: usd(10000), Category: "books"}}

	result, err := Evaluate(lines, pctx)
	require.NoError(t, err)
	assert.True(t, result.TaxableSubtotal.IsZero())
	assert.True(t, result.TaxAmount.IsZero())
	assert.Equal(t, ExemptionCategories, result.Exemption)
}

func TestEvaluate_LuxurySurcharge(t *testing.T) {
	pctx := newUSDContext(t)
	lines := []OrderLine{{ProductID: 7, Quantity: 1, UnitPrice: usd(150000), Category: "jewelry"}}

	result, err := Evaluate(lines, pctx)
	require.NoError(t, err)
	assert.Equal(t, "1500.00", result.TaxableSubtotal.String())
	assert.Equal(t, "150.00", result.TaxAmount.String())
	assert.Equal(t, "1650.00", result.TotalWithTax.String())
	assert.True(t, decimal.NewFromInt(10).Equal(result.EffectiveRatePercent))
}

func TestEvaluate_PriceAboveThresholdIsLuxury(t *testing.T) {
	pctx := newUSDContext(t)
	lines := []OrderLine{
		{ProductID: 1, Quantity: 1, UnitPrice: usd(120000), Category: "electronics"},
		{ProductID: 2, Quantity: 2, UnitPrice: usd(1000), Category: "toys"},
	}

	result, err := Evaluate(lines, pctx)
	require.NoError(t, err)
	// 1220 * 0.08 + 1200 * 0.02 = 97.60 + 24.00
	assert.Equal(t, "121.60", result.TaxAmount.String())
}

func TestEvaluate_ExplicitLuxuryFlag(t *testing.T) {
	pctx := newUSDContext(t)
	lines := []OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: usd(10000), Category: "art", Luxury: true}}

	result, err := Evaluate(lines, pctx)
	require.NoError(t, err)
	assert.Equal(t, "10.00", result.TaxAmount.String())
}

func TestEvaluate_SaleAndBulkDiscounts(t *testing.T) {
	pctx := newUSDContext(t)
	lines := []OrderLine{{
		ProductID:    3,
		Quantity:     10,
		UnitPrice:    usd(1000),
		Category:     "toys",
		OnSale:       true,
		SalePercent:  decimal.NewFromInt(20),
		BulkEligible: true,
	}}

	result, err := Evaluate(lines, pctx)
	require.NoError(t, err)
	// 100 - 20 (sale) - 5 (bulk) = 75
	assert.Equal(t, "75.00", result.TaxableSubtotal.String())
	assert.Equal(t, "6.00", result.TaxAmount.String())
}

func TestEvaluate_BulkRequiresThreshold(t *testing.T) {
	pctx := newUSDContext(t)
	lines := []OrderLine{{ProductID: 3, Quantity: 9, UnitPrice: usd(1000), Category: "toys", BulkEligible: true}}

	result, err := Evaluate(lines, pctx)
	require.NoError(t, err)
	assert.Equal(t, "90.00", result.TaxableSubtotal.String())
}

func TestEvaluate_OrderDiscountClampsAtZero(t *testing.T) {
	pctx := newUSDContext(t, WithOrderDiscount(usd(5000)))
	lines := []OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: usd(2000), Category: "toys"}}

	result, err := Evaluate(lines, pctx)
	require.NoError(t, err)
	assert.True(t, result.TaxableSubtotal.IsZero())
	assert.True(t, result.TaxAmount.IsZero())
	assert.True(t, result.EffectiveRatePercent.IsZero())
}

func TestEvaluate_MixedExemptLinesAreSkipped(t *testing.T) {
	pctx := newUSDContext(t)
	lines := []OrderLine{
		{ProductID: 1, Quantity: 1, UnitPrice: usd(5000), Category: "Books"},
		{ProductID: 2, Quantity: 1, UnitPrice: usd(2500), Category: "toys"},
	}

	result, err := Evaluate(lines, pctx)
	require.NoError(t, err)
	assert.Equal(t, "25.00", result.TaxableSubtotal.String())
	assert.Equal(t, "2.00", result.TaxAmount.String())
	assert.Equal(t, ExemptionNone, result.Exemption)
}

func TestEvaluate_OrderLevelExemptions(t *testing.T) {
	lines := []OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: usd(5000), Category: "toys"}}

	result, err := Evaluate(lines, newUSDContext(t, WithCustomerTaxExempt(true)))
	require.NoError(t, err)
	assert.Equal(t, ExemptionCustomer, result.Exemption)
	assert.True(t, result.TotalWithTax.IsZero())

	result, err = Evaluate(lines, newUSDContext(t, WithJurisdiction("Oregon")))
	require.NoError(t, err)
	assert.Equal(t, ExemptionJurisdiction, result.Exemption)
}

func TestEvaluate_EmptyOrder(t *testing.T) {
	result, err := Evaluate(nil, newUSDContext(t))
	require.NoError(t, err)
	assert.True(t, result.TaxableSubtotal.IsZero())
	assert.True(t, result.TaxAmount.IsZero())
	assert.Equal(t, "USD", result.TaxAmount.Currency())
}

func TestEvaluate_RejectsMalformedLines(t *testing.T) {
	pctx := newUSDContext(t)

	_, err := Evaluate([]OrderLine{{ProductID: 1, Quantity: 0, UnitPrice: usd(100)}}, pctx)
	require.ErrorIs(t, err, ErrInvalidOrderLine)

	_, err = Evaluate([]OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: usd(-100)}}, pctx)
	require.ErrorIs(t, err, ErrInvalidOrderLine)

	_, err = Evaluate([]OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: usd(100), OnSale: true, SalePercent: decimal.NewFromInt(120)}}, pctx)
	require.ErrorIs(t, err, ErrInvalidOrderLine)

	_, err = Evaluate([]OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: money.MustOf(100, "EUR")}}, pctx)
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestEvaluate_RejectsAmountsBeyondMinorUnits(t *testing.T) {
	pctx := newUSDContext(t)
	huge := usd(math.MaxInt64 / 2)

	result, err := Evaluate([]OrderLine{{ProductID: 1, Quantity: 3, UnitPrice: huge, Category: "toys"}}, pctx)
	require.ErrorIs(t, err, ErrInvalidOrderLine)
	require.ErrorIs(t, err, money.ErrInvalidAmount)
	assert.Equal(t, Result{}, result)

	lines := []OrderLine{
		{ProductID: 1, Quantity: 1, UnitPrice: huge, Category: "toys"},
		{ProductID: 2, Quantity: 1, UnitPrice: huge, Category: "toys"},
		{ProductID: 3, Quantity: 1, UnitPrice: huge, Category: "toys"},
	}
	_, err = Evaluate(lines, pctx)
	require.ErrorIs(t, err, ErrInvalidOrderLine)
	require.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestNewContext_RejectsInvalidOptions(t *testing.T) {
	_, err := NewContext("USD", WithBaseRate(decimal.RequireFromString("1.5")))
	require.ErrorIs(t, err, ErrInvalidContext)

	_, err = NewContext("USD", WithOrderDiscount(money.MustOf(100, "EUR")))
	require.ErrorIs(t, err, ErrInvalidContext)
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)

	_, err = NewContext("dollars")
	require.ErrorIs(t, err, ErrInvalidContext)
}

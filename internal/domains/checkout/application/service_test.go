package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutmemory "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/adapters/memory"
	checkouttypes "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	pricingapp "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/application"
	pricingtypes "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/application/types"
	pricingdomain "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

func order(lines ...pricingdomain.OrderLine) pricingtypes.EvaluateInput {
	return pricingtypes.EvaluateInput{Currency: "USD", Lines: lines}
}

func item(qty int64, priceMinor int64) pricingdomain.OrderLine {
	return pricingdomain.OrderLine{ProductID: 1, Quantity: money.Quantity(qty), UnitPrice: money.MustOf(priceMinor, "USD"), Category: "home"}
}

func newCheckout(t *testing.T, opts ...ServiceOption) (*Service, *checkoutmemory.Repository) {
	t.Helper()
	coupons := checkoutmemory.NewRepository()
	return NewService(pricingapp.NewService(), coupons, opts...), coupons
}

func TestQuote_AppliesCouponShippingAndTax(t *testing.T) {
	svc, _ := newCheckout(t)
	ctx := context.Background()
	_, err := svc.SaveCoupon(ctx, checkouttypes.CouponInput{Code: "save10", Rate: decimal.RequireFromString("0.10"), Active: true})
	require.NoError(t, err)

	quote, err := svc.Quote(ctx, checkouttypes.QuoteInput{
		Pricing:        order(item(1, 5000)),
		CouponCode:     " Save10 ",
		ShippingMethod: "express",
	})
	require.NoError(t, err)

	assert.Equal(t, "SAVE10", quote.CouponCode)
	assert.Equal(t, domain.ShippingExpress, quote.ShippingMethod)
	assert.Equal(t, "50.00", quote.Totals.Subtotal.String())
	assert.Equal(t, "5.00", quote.Totals.DiscountAmount.String())
	assert.Equal(t, "4.00", quote.Totals.TaxAmount.String())
	assert.Equal(t, "24.98", quote.Totals.ShippingCost.String())
	assert.Equal(t, "73.98", quote.Totals.Total.String())
	assert.Equal(t, "8.00", quote.Pricing.EffectiveRatePercent.StringFixed(2))
}

func TestQuote_UnknownOrExpiredCouponGivesNoDiscount(t *testing.T) {
	svc, coupons := newCheckout(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	_, err := coupons.SaveCoupon(ctx, &domain.Coupon{Code: "OLD", Rate: decimal.RequireFromString("0.5"), Active: true, ExpiresAt: &past})
	require.NoError(t, err)

	for _, code := range []string{"missing", "old", ""} {
		quote, err := svc.Quote(ctx, checkouttypes.QuoteInput{Pricing: order(item(2, 5000)), CouponCode: code})
		require.NoError(t, err, code)
		assert.True(t, quote.Totals.DiscountAmount.IsZero(), code)
		assert.Empty(t, quote.CouponCode, code)
		assert.Equal(t, "108.00", quote.Totals.Total.String(), code)
	}
}

func TestQuote_EmptyOrder(t *testing.T) {
	svc, _ := newCheckout(t)

	quote, err := svc.Quote(context.Background(), checkouttypes.QuoteInput{Pricing: order(), ShippingMethod: "overnight"})
	require.NoError(t, err)
	assert.Equal(t, domain.ZeroTotals("USD"), quote.Totals)
}

func TestQuote_RejectsBadInput(t *testing.T) {
	svc, _ := newCheckout(t)
	ctx := context.Background()

	_, err := svc.Quote(ctx, checkouttypes.QuoteInput{Pricing: order(item(1, 100)), ShippingMethod: "pigeon"})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrUnknownShippingMethod)

	_, err = svc.Quote(ctx, checkouttypes.QuoteInput{Pricing: order(item(0, 100))})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, pricingdomain.ErrInvalidOrderLine)

	_, err = svc.SaveCoupon(ctx, checkouttypes.CouponInput{Code: "x", Rate: decimal.NewFromInt(2)})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestQuote_ConfiguredPolicies(t *testing.T) {
	svc, _ := newCheckout(t, WithFreeShippingThreshold(20000), WithBaseShippingRate(500), WithMaxDiscount(1000))
	ctx := context.Background()
	_, err := svc.SaveCoupon(ctx, checkouttypes.CouponInput{Code: "HALF", Rate: decimal.RequireFromString("0.5"), Active: true})
	require.NoError(t, err)

	quote, err := svc.Quote(ctx, checkouttypes.QuoteInput{Pricing: order(item(3, 5000)), CouponCode: "half"})
	require.NoError(t, err)
	assert.Equal(t, "5.00", quote.Totals.ShippingCost.String())
	assert.Equal(t, "10.00", quote.Totals.DiscountAmount.String())
	assert.Equal(t, "12.00", quote.Totals.TaxAmount.String())
	assert.Equal(t, "157.00", quote.Totals.Total.String())
}

type failingRates struct{}

func (failingRates) CouponRate(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("cache down")
}

func TestQuote_PropagatesRateLookupFailure(t *testing.T) {
	svc, _ := newCheckout(t, WithRateLookup(failingRates{}))

	_, err := svc.Quote(context.Background(), checkouttypes.QuoteInput{Pricing: order(item(1, 100)), CouponCode: "ANY"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

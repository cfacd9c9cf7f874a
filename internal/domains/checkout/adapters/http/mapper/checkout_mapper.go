package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	checkouttypes "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	pricingmapper "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/adapters/http/mapper"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// QuoteRequest is the transport shape of a checkout quote.
type QuoteRequest struct {
	Order          pricingmapper.EvaluateRequest
	CouponCode     string
	ShippingMethod string
}

// Totals is the transport shape of an order breakdown.
type Totals struct {
	Currency       string
	Subtotal       string
	DiscountAmount string
	TaxAmount      string
	ShippingCost   string
	Total          string
	ItemCount      int
	UnitCount      int64
}

// Quote is the transport shape of a quote result.
type Quote struct {
	Totals         Totals
	Pricing        pricingmapper.Result
	ShippingMethod string
	CouponCode     string
}

// Coupon is the transport shape of a coupon.
type Coupon struct {
	Code      string
	Rate      string
	Active    bool
	ExpiresAt *time.Time
}

func ToQuoteInput(req QuoteRequest) (checkouttypes.QuoteInput, error) {
	pricing, err := pricingmapper.ToEvaluateInput(req.Order)
	if err != nil {
		return checkouttypes.QuoteInput{}, err
	}
	return checkouttypes.QuoteInput{
		Pricing:        pricing,
		CouponCode:     req.CouponCode,
		ShippingMethod: req.ShippingMethod,
	}, nil
}

func ToCouponInput(code string, body Coupon) (checkouttypes.CouponInput, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(body.Rate))
	if err != nil {
		return checkouttypes.CouponInput{}, fmt.Errorf("rate: %w: %q", money.ErrInvalidAmount, body.Rate)
	}
	return checkouttypes.CouponInput{
		Code:      code,
		Rate:      rate,
		Active:    body.Active,
		ExpiresAt: body.ExpiresAt,
	}, nil
}

func FromTotals(t domain.Totals) Totals {
	return Totals{
		Currency:       t.Currency,
		Subtotal:       t.Subtotal.String(),
		DiscountAmount: t.DiscountAmount.String(),
		TaxAmount:      t.TaxAmount.String(),
		ShippingCost:   t.ShippingCost.String(),
		Total:          t.Total.String(),
		ItemCount:      t.ItemCount,
		UnitCount:      t.UnitCount,
	}
}

func FromQuote(q *checkouttypes.Quote) Quote {
	if q == nil {
		return Quote{}
	}
	return Quote{
		Totals:         FromTotals(q.Totals),
		Pricing:        pricingmapper.FromDomainResult(&q.Pricing),
		ShippingMethod: string(q.ShippingMethod),
		CouponCode:     q.CouponCode,
	}
}

func FromDomainCoupon(c *domain.Coupon) Coupon {
	if c == nil {
		return Coupon{}
	}
	return Coupon{
		Code:      c.Code,
		Rate:      c.Rate.String(),
		Active:    c.Active,
		ExpiresAt: c.ExpiresAt,
	}
}

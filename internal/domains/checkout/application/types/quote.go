package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	pricingtypes "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/application/types"
	pricingdomain "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"
)

// QuoteInput is everything needed to total one order.
type QuoteInput struct {
	Pricing        pricingtypes.EvaluateInput
	CouponCode     string
	ShippingMethod string
}

// Quote is the priced order: the totals breakdown plus the pricing detail behind the tax.
type Quote struct {
	Totals         domain.Totals
	Pricing        pricingdomain.Result
	ShippingMethod domain.ShippingMethod
	// CouponCode is set only when a coupon contributed a non-zero rate.
	CouponCode string
	CouponRate decimal.Decimal
}

// CouponInput creates or replaces a coupon.
type CouponInput struct {
	Code      string
	Rate      decimal.Decimal
	Active    bool
	ExpiresAt *time.Time
}

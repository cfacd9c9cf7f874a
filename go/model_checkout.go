package checkoutserver

import "time"

type QuoteRequest struct {
	Order PricingRequest `json:"order"`

	CouponCode string `json:"couponCode,omitempty"`

	// standard, express, overnight or international
	ShippingMethod string `json:"shippingMethod,omitempty"`
}

type Totals struct {
	Currency string `json:"currency"`

	Subtotal string `json:"subtotal"`

	DiscountAmount string `json:"discountAmount"`

	TaxAmount string `json:"taxAmount"`

	ShippingCost string `json:"shippingCost"`

	Total string `json:"total"`

	ItemCount int `json:"itemCount"`

	UnitCount int64 `json:"unitCount"`
}

type Quote struct {
	Totals Totals `json:"totals"`

	Pricing PricingResult `json:"pricing"`

	ShippingMethod string `json:"shippingMethod"`

	CouponCode string `json:"couponCode,omitempty"`
}

type Coupon struct {
	Code string `json:"code,omitempty"`

	// Fractional discount rate in [0, 1]
	Rate string `json:"rate"`

	Active bool `json:"active"`

	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

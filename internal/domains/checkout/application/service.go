package application

import (
	"context"
	"errors"

	checkouttypes "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"
	pricingports "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/ports"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// Service prices an order, resolves its coupon and composes the final totals.
type Service struct {
	pricing pricingports.Service
	rates   ports.RateLookup
	coupons ports.CouponRepository

	freeShippingMinor int64
	baseShippingMinor int64
	maxDiscountMinor  int64
}

// ServiceOption configures the checkout service. Amounts are minor units of the order currency.
type ServiceOption func(*Service)

// WithFreeShippingThreshold sets the subtotal at or above which shipping is free.
func WithFreeShippingThreshold(minor int64) ServiceOption {
	return func(s *Service) {
		if minor >= 0 {
			s.freeShippingMinor = minor
		}
	}
}

// WithBaseShippingRate sets the standard shipping charge before the method multiplier.
func WithBaseShippingRate(minor int64) ServiceOption {
	return func(s *Service) {
		if minor >= 0 {
			s.baseShippingMinor = minor
		}
	}
}

// WithMaxDiscount caps the coupon discount of a single order.
func WithMaxDiscount(minor int64) ServiceOption {
	return func(s *Service) {
		if minor >= 0 {
			s.maxDiscountMinor = minor
		}
	}
}

// WithRateLookup replaces the repository-backed rate lookup.
func WithRateLookup(rates ports.RateLookup) ServiceOption {
	return func(s *Service) {
		if rates != nil {
			s.rates = rates
		}
	}
}

func NewService(pricing pricingports.Service, coupons ports.CouponRepository, opts ...ServiceOption) *Service {
	s := &Service{
		pricing:           pricing,
		coupons:           coupons,
		freeShippingMinor: domain.DefaultFreeShippingThresholdMinor,
		baseShippingMinor: domain.DefaultBaseShippingRateMinor,
		maxDiscountMinor:  domain.DefaultMaxDiscountMinor,
	}
	if coupons != nil {
		s.rates = NewCouponRates(coupons, nil)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Quote evaluates tax through the pricing service and aggregates the order totals.
func (s *Service) Quote(ctx context.Context, input checkouttypes.QuoteInput) (*checkouttypes.Quote, error) {
	method, err := domain.ParseShippingMethod(input.ShippingMethod)
	if err != nil {
		return nil, mapError(err)
	}
	priced, err := s.pricing.Evaluate(ctx, input.Pricing)
	if err != nil {
		return nil, mapError(err)
	}
	currency := priced.TaxAmount.Currency()

	discount := domain.NoDiscount(currency)
	discount.MaxDiscount, err = money.Of(s.maxDiscountMinor, currency)
	if err != nil {
		return nil, mapError(err)
	}
	if code := domain.NormalizeCouponCode(input.CouponCode); code != "" && s.rates != nil {
		rate, err := s.rates.CouponRate(ctx, code)
		if err != nil {
			return nil, err
		}
		if rate.IsPositive() {
			discount.CouponCode = code
			discount.Rate = rate
		}
	}

	shipping := domain.DefaultShippingPolicy(currency, method)
	shipping.FreeShippingThreshold = money.MustOf(s.freeShippingMinor, currency)
	shipping.BaseRate = money.MustOf(s.baseShippingMinor, currency)

	totals, err := domain.Aggregate(input.Pricing.Lines, discount, shipping, *priced)
	if err != nil {
		return nil, mapError(err)
	}
	return &checkouttypes.Quote{
		Totals:         totals,
		Pricing:        *priced,
		ShippingMethod: method,
		CouponCode:     discount.CouponCode,
		CouponRate:     discount.Rate,
	}, nil
}

// SaveCoupon creates or replaces a coupon.
func (s *Service) SaveCoupon(ctx context.Context, input checkouttypes.CouponInput) (*domain.Coupon, error) {
	if s.coupons == nil {
		return nil, errors.New("coupon repository not configured")
	}
	coupon, err := domain.NewCoupon(input.Code, input.Rate, input.Active, input.ExpiresAt)
	if err != nil {
		return nil, mapError(err)
	}
	return s.coupons.SaveCoupon(ctx, coupon)
}

var _ ports.Service = (*Service)(nil)

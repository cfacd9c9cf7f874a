package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

var (
	ErrUnknownShippingMethod = errors.New("unknown shipping method")
	ErrInvalidPolicy         = errors.New("invalid checkout policy")
)

// ShippingMethod selects the multiplier applied to the base shipping rate.
type ShippingMethod string

const (
	ShippingStandard      ShippingMethod = "standard"
	ShippingExpress       ShippingMethod = "express"
	ShippingOvernight     ShippingMethod = "overnight"
	ShippingInternational ShippingMethod = "international"
)

const (
	DefaultFreeShippingThresholdMinor int64 = 10000
	DefaultBaseShippingRateMinor      int64 = 999
	DefaultMaxDiscountMinor           int64 = 5000
)

// DefaultShippingMultipliers returns a fresh copy of the standard method table.
func DefaultShippingMultipliers() map[ShippingMethod]decimal.Decimal {
	return map[ShippingMethod]decimal.Decimal{
		ShippingStandard:      decimal.NewFromInt(1),
		ShippingExpress:       decimal.RequireFromString("2.5"),
		ShippingOvernight:     decimal.NewFromInt(4),
		ShippingInternational: decimal.RequireFromString("3.2"),
	}
}

// ParseShippingMethod normalizes a method name. Empty means standard.
func ParseShippingMethod(raw string) (ShippingMethod, error) {
	method := ShippingMethod(strings.ToLower(strings.TrimSpace(raw)))
	if method == "" {
		return ShippingStandard, nil
	}
	if _, ok := DefaultShippingMultipliers()[method]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownShippingMethod, raw)
	}
	return method, nil
}

// ShippingPolicy prices delivery for an order subtotal.
type ShippingPolicy struct {
	Method                ShippingMethod
	FreeShippingThreshold money.Money
	BaseRate              money.Money
	Multipliers           map[ShippingMethod]decimal.Decimal
}

// DefaultShippingPolicy uses the standard threshold, base rate and multiplier table.
func DefaultShippingPolicy(currency string, method ShippingMethod) ShippingPolicy {
	return ShippingPolicy{
		Method:                method,
		FreeShippingThreshold: money.MustOf(DefaultFreeShippingThresholdMinor, currency),
		BaseRate:              money.MustOf(DefaultBaseShippingRateMinor, currency),
		Multipliers:           DefaultShippingMultipliers(),
	}
}

// Cost waives shipping at or above the free threshold, otherwise charges base rate times the
// method multiplier rounded half up.
func (p ShippingPolicy) Cost(subtotal money.Money) (money.Money, error) {
	method := p.Method
	if method == "" {
		method = ShippingStandard
	}
	multipliers := p.Multipliers
	if multipliers == nil {
		multipliers = DefaultShippingMultipliers()
	}
	multiplier, ok := multipliers[method]
	if !ok {
		return money.Money{}, fmt.Errorf("%w: %q", ErrUnknownShippingMethod, method)
	}
	if multiplier.IsNegative() || p.BaseRate.IsNegative() {
		return money.Money{}, fmt.Errorf("%w: negative shipping rate", ErrInvalidPolicy)
	}
	free, err := subtotal.Compare(p.FreeShippingThreshold)
	if err != nil {
		return money.Money{}, err
	}
	if free >= 0 {
		return money.Zero(subtotal.Currency()), nil
	}
	if p.BaseRate.Currency() != subtotal.Currency() {
		return money.Money{}, fmt.Errorf("%w: shipping rate in %s, order in %s", money.ErrCurrencyMismatch, p.BaseRate.Currency(), subtotal.Currency())
	}
	return p.BaseRate.MultiplyByRate(multiplier)
}

// DiscountPolicy applies a coupon rate to the subtotal, capped at MaxDiscount.
type DiscountPolicy struct {
	CouponCode  string
	Rate        decimal.Decimal
	MaxDiscount money.Money
}

// NoDiscount is the policy for orders without a coupon.
func NoDiscount(currency string) DiscountPolicy {
	return DiscountPolicy{Rate: decimal.Zero, MaxDiscount: money.MustOf(DefaultMaxDiscountMinor, currency)}
}

// Amount returns min(subtotal × rate, cap).
func (p DiscountPolicy) Amount(subtotal money.Money) (money.Money, error) {
	if p.Rate.IsNegative() || p.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return money.Money{}, fmt.Errorf("%w: coupon rate %s outside [0, 1]", ErrInvalidPolicy, p.Rate)
	}
	if p.MaxDiscount.IsNegative() {
		return money.Money{}, fmt.Errorf("%w: negative discount cap", ErrInvalidPolicy)
	}
	if p.Rate.IsZero() {
		return money.Zero(subtotal.Currency()), nil
	}
	discount, err := subtotal.MultiplyByRate(p.Rate)
	if err != nil {
		return money.Money{}, err
	}
	return money.Min(discount, p.MaxDiscount)
}

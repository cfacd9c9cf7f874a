package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidCoupon = errors.New("invalid coupon")

// Coupon grants a percentage off the order subtotal, expressed as a rate in [0, 1].
type Coupon struct {
	Code      string
	Rate      decimal.Decimal
	Active    bool
	ExpiresAt *time.Time
}

// NormalizeCouponCode trims and upper-cases a code so lookups are case-insensitive.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NewCoupon(code string, rate decimal.Decimal, active bool, expiresAt *time.Time) (*Coupon, error) {
	c := &Coupon{
		Code:      NormalizeCouponCode(code),
		Rate:      rate,
		Active:    active,
		ExpiresAt: expiresAt,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Coupon) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidCoupon)
	}
	if c.Rate.IsNegative() || c.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: rate %s outside [0, 1]", ErrInvalidCoupon, c.Rate)
	}
	return nil
}

// Usable reports whether the coupon can be applied at now.
func (c *Coupon) Usable(now time.Time) bool {
	if c == nil || !c.Active {
		return false
	}
	return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
}

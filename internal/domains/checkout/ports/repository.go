package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
)

var ErrCouponNotFound = errors.New("coupon not found")

// CouponRepository stores coupons by normalized code.
type CouponRepository interface {
	GetCoupon(ctx context.Context, code string) (*domain.Coupon, error)
	SaveCoupon(ctx context.Context, coupon *domain.Coupon) (*domain.Coupon, error)
}

// RateLookup resolves the discount rate of a coupon code. Unknown or unusable codes resolve
// to a zero rate rather than an error.
type RateLookup interface {
	CouponRate(ctx context.Context, code string) (decimal.Decimal, error)
}

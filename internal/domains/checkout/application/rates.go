package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"
)

// CouponRates resolves coupon rates from a CouponRepository.
type CouponRates struct {
	repo  ports.CouponRepository
	clock func() time.Time
}

func NewCouponRates(repo ports.CouponRepository, clock func() time.Time) *CouponRates {
	if clock == nil {
		clock = time.Now
	}
	return &CouponRates{repo: repo, clock: clock}
}

// CouponRate returns zero for blank, unknown, inactive or expired codes.
func (r *CouponRates) CouponRate(ctx context.Context, code string) (decimal.Decimal, error) {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return decimal.Zero, nil
	}
	coupon, err := r.repo.GetCoupon(ctx, code)
	if errors.Is(err, ports.ErrCouponNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	if !coupon.Usable(r.clock()) {
		return decimal.Zero, nil
	}
	return coupon.Rate, nil
}

var _ ports.RateLookup = (*CouponRates)(nil)

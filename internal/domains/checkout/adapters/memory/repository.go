package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"
)

var _ ports.CouponRepository = (*Repository)(nil)

// Repository is an in-memory coupon store.
type Repository struct {
	mu      sync.RWMutex
	coupons map[string]domain.Coupon
}

func NewRepository() *Repository {
	return &Repository{coupons: map[string]domain.Coupon{}}
}

func (r *Repository) GetCoupon(_ context.Context, code string) (*domain.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	coupon, ok := r.coupons[domain.NormalizeCouponCode(code)]
	if !ok {
		return nil, ports.ErrCouponNotFound
	}
	return &coupon, nil
}

func (r *Repository) SaveCoupon(_ context.Context, coupon *domain.Coupon) (*domain.Coupon, error) {
	if coupon == nil {
		return nil, errors.New("coupon is nil")
	}
	clone := *coupon
	clone.Code = domain.NormalizeCouponCode(clone.Code)
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coupons[clone.Code] = clone
	out := clone
	return &out, nil
}

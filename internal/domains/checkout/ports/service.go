package ports

import (
	"context"

	checkouttypes "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
)

// Service exposes checkout use cases to adapters.
type Service interface {
	Quote(ctx context.Context, input checkouttypes.QuoteInput) (*checkouttypes.Quote, error)
	SaveCoupon(ctx context.Context, input checkouttypes.CouponInput) (*domain.Coupon, error)
}

package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	pricingapp "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/application"
	pricingdomain "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// ErrInvalidInput signals the quote or coupon request was malformed.
var ErrInvalidInput = errors.New("invalid checkout input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUnknownShippingMethod) ||
		errors.Is(err, domain.ErrInvalidPolicy) ||
		errors.Is(err, domain.ErrInvalidCoupon) ||
		errors.Is(err, pricingapp.ErrInvalidInput) ||
		errors.Is(err, pricingdomain.ErrInvalidOrderLine) ||
		errors.Is(err, money.ErrCurrencyMismatch) ||
		errors.Is(err, money.ErrInvalidAmount) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

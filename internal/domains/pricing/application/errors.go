package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// ErrInvalidInput signals the request violated a pricing invariant.
var ErrInvalidInput = errors.New("invalid pricing input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidOrderLine) ||
		errors.Is(err, domain.ErrInvalidContext) ||
		errors.Is(err, money.ErrCurrencyMismatch) ||
		errors.Is(err, money.ErrInvalidAmount) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// ErrInvalidInput signals the request violated a ledger invariant.
var ErrInvalidInput = errors.New("invalid inventory input")

// mapError wraps input violations. Stock shortages and state conflicts keep their own
// identity so transports can report them distinctly.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidStockLevels) ||
		errors.Is(err, domain.ErrInvalidRequester) ||
		errors.Is(err, money.ErrInvalidAmount) ||
		errors.Is(err, money.ErrInvalidQuantity) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

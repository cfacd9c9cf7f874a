package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

var (
	ErrInvalidOrderLine = errors.New("order line is invalid")
	ErrInvalidContext   = errors.New("pricing context is invalid")
)

var hundred = decimal.NewFromInt(100)

// OrderLine is a priced line of an order. UnitPrice is the snapshot taken when the order was
// placed and is never re-read from the catalog.
type OrderLine struct {
	ProductID    int64
	Quantity     money.Quantity
	UnitPrice    money.Money
	Category     string
	OnSale       bool
	SalePercent  decimal.Decimal
	BulkEligible bool
	Luxury       bool
}

// Subtotal is unit price times quantity, before any discount.
func (l OrderLine) Subtotal() (money.Money, error) {
	return l.UnitPrice.MultiplyByQuantity(l.Quantity)
}

// Validate checks the line in isolation and against the order currency.
func (l OrderLine) Validate(currency string) error {
	if !l.Quantity.IsPositive() {
		return fmt.Errorf("%w: product %d quantity %d must be greater than zero", ErrInvalidOrderLine, l.ProductID, l.Quantity)
	}
	if l.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: product %d unit price %s is negative", ErrInvalidOrderLine, l.ProductID, l.UnitPrice)
	}
	if l.UnitPrice.Currency() != currency {
		return fmt.Errorf("product %d: %w: %s vs %s", l.ProductID, money.ErrCurrencyMismatch, l.UnitPrice.Currency(), currency)
	}
	if _, err := l.Subtotal(); err != nil {
		return fmt.Errorf("%w: product %d: %w", ErrInvalidOrderLine, l.ProductID, err)
	}
	if l.OnSale && (l.SalePercent.IsNegative() || l.SalePercent.GreaterThan(hundred)) {
		return fmt.Errorf("%w: product %d sale percentage %s outside [0,100]", ErrInvalidOrderLine, l.ProductID, l.SalePercent)
	}
	return nil
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

package domain

import (
	"errors"
	"fmt"

	pricingdomain "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// Totals is the full breakdown of an order.
type Totals struct {
	Currency       string
	Subtotal       money.Money
	DiscountAmount money.Money
	TaxAmount      money.Money
	ShippingCost   money.Money
	Total          money.Money
	// ItemCount counts order lines; UnitCount sums their quantities.
	ItemCount int
	UnitCount int64
}

// ZeroTotals is the breakdown of an empty order.
func ZeroTotals(currency string) Totals {
	zero := money.Zero(currency)
	return Totals{
		Currency:       currency,
		Subtotal:       zero,
		DiscountAmount: zero,
		TaxAmount:      zero,
		ShippingCost:   zero,
		Total:          zero,
	}
}

// Aggregate composes subtotal, discount, tax and shipping:
// total = subtotal + tax + shipping - discount, never below zero.
func Aggregate(lines []pricingdomain.OrderLine, discount DiscountPolicy, shipping ShippingPolicy, pricing pricingdomain.Result) (Totals, error) {
	currency := pricing.TaxAmount.Currency()
	if currency == "" {
		return Totals{}, errors.New("pricing result carries no currency")
	}
	if len(lines) == 0 {
		return ZeroTotals(currency), nil
	}

	subtotal := money.Zero(currency)
	var units int64
	for i, line := range lines {
		if err := line.Validate(currency); err != nil {
			return Totals{}, fmt.Errorf("line %d: %w", i, err)
		}
		lineTotal, err := line.Subtotal()
		if err != nil {
			return Totals{}, fmt.Errorf("line %d: %w", i, err)
		}
		next, err := subtotal.Add(lineTotal)
		if err != nil {
			return Totals{}, fmt.Errorf("%w: order subtotal: %w", pricingdomain.ErrInvalidOrderLine, err)
		}
		subtotal = next
		units += line.Quantity.Int64()
	}

	discountAmount, err := discount.Amount(subtotal)
	if err != nil {
		return Totals{}, err
	}
	shippingCost, err := shipping.Cost(subtotal)
	if err != nil {
		return Totals{}, err
	}

	total, err := sum(subtotal, pricing.TaxAmount, shippingCost)
	if err != nil {
		return Totals{}, err
	}
	total, err = total.Subtract(discountAmount)
	if err != nil {
		return Totals{}, err
	}
	if total.IsNegative() {
		total = money.Zero(currency)
	}

	return Totals{
		Currency:       currency,
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      pricing.TaxAmount,
		ShippingCost:   shippingCost,
		Total:          total,
		ItemCount:      len(lines),
		UnitCount:      units,
	}, nil
}

func sum(first money.Money, rest ...money.Money) (money.Money, error) {
	acc := first
	for _, m := range rest {
		next, err := acc.Add(m)
		if err != nil {
			return money.Money{}, err
		}
		acc = next
	}
	return acc, nil
}

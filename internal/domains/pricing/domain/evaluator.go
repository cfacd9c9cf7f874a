package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// Exemption names the order-level predicate that zeroed the tax, if any.
type Exemption string

const (
	ExemptionNone         Exemption = ""
	ExemptionCustomer     Exemption = "customer"
	ExemptionJurisdiction Exemption = "jurisdiction"
	ExemptionCategories   Exemption = "categories"
)

// Result is the outcome of a pricing evaluation. All amounts share the context currency.
type Result struct {
	TaxableSubtotal      money.Money
	TaxAmount            money.Money
	TotalWithTax         money.Money
	EffectiveRatePercent decimal.Decimal
	Exemption            Exemption
}

// ZeroResult is returned for empty or fully exempt orders.
func ZeroResult(currency string, exemption Exemption) Result {
	zero := money.Zero(currency)
	return Result{
		TaxableSubtotal:      zero,
		TaxAmount:            zero,
		TotalWithTax:         zero,
		EffectiveRatePercent: decimal.Zero,
		Exemption:            exemption,
	}
}

// Evaluate applies exemptions, item discounts, the order discount and tax in a fixed order.
// Intermediate values stay exact; only reported amounts are rounded.
func Evaluate(lines []OrderLine, pctx *Context) (Result, error) {
	if pctx == nil {
		return Result{}, errors.New("pricing context is nil")
	}
	for _, line := range lines {
		if err := line.Validate(pctx.Currency); err != nil {
			return Result{}, err
		}
	}
	if len(lines) == 0 {
		return ZeroResult(pctx.Currency, ExemptionNone), nil
	}
	if exemption := orderExemption(lines, pctx); exemption != ExemptionNone {
		return ZeroResult(pctx.Currency, exemption), nil
	}

	subtotal := decimal.Zero
	luxuryBase := decimal.Zero
	for _, line := range lines {
		lineTotal, err := line.Subtotal()
		if err != nil {
			return Result{}, err
		}
		raw := lineTotal.Decimal()
		if pctx.isLuxury(line) {
			luxuryBase = luxuryBase.Add(raw)
		}
		if pctx.isExemptCategory(line.Category) {
			continue
		}
		subtotal = subtotal.Add(raw.Sub(lineDiscount(line, raw, pctx)))
	}
	if pctx.OrderDiscount.IsPositive() {
		subtotal = subtotal.Sub(pctx.OrderDiscount.Decimal())
	}
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}

	taxable, err := money.RoundHalfUp(subtotal, pctx.Currency)
	if err != nil {
		return Result{}, fmt.Errorf("%w: taxable subtotal: %w", ErrInvalidOrderLine, err)
	}
	tax := money.Zero(pctx.Currency)
	if subtotal.IsPositive() {
		exact := subtotal.Mul(pctx.BaseRate)
		if luxuryBase.IsPositive() {
			exact = exact.Add(luxuryBase.Mul(pctx.LuxuryRate))
		}
		if tax, err = money.RoundHalfUp(exact, pctx.Currency); err != nil {
			return Result{}, fmt.Errorf("%w: tax: %w", ErrInvalidOrderLine, err)
		}
	}

	total, err := taxable.Add(tax)
	if err != nil {
		return Result{}, fmt.Errorf("%w: total: %w", ErrInvalidOrderLine, err)
	}
	return Result{
		TaxableSubtotal:      taxable,
		TaxAmount:            tax,
		TotalWithTax:         total,
		EffectiveRatePercent: effectiveRate(tax, taxable),
	}, nil
}

func orderExemption(lines []OrderLine, pctx *Context) Exemption {
	if pctx.CustomerTaxExempt {
		return ExemptionCustomer
	}
	if pctx.isTaxFreeJurisdiction() {
		return ExemptionJurisdiction
	}
	for _, line := range lines {
		if !pctx.isExemptCategory(line.Category) {
			return ExemptionNone
		}
	}
	return ExemptionCategories
}

// lineDiscount sums the sale and bulk discounts, both taken from the undiscounted line total.
func lineDiscount(line OrderLine, raw decimal.Decimal, pctx *Context) decimal.Decimal {
	discount := decimal.Zero
	if line.OnSale && line.SalePercent.IsPositive() {
		discount = discount.Add(raw.Mul(line.SalePercent).Div(hundred))
	}
	if line.BulkEligible && line.Quantity >= pctx.BulkThreshold {
		discount = discount.Add(raw.Mul(pctx.BulkRate))
	}
	return discount
}

func effectiveRate(tax, taxable money.Money) decimal.Decimal {
	if !tax.IsPositive() || !taxable.IsPositive() {
		return decimal.Zero
	}
	return tax.Decimal().Div(taxable.Decimal()).Mul(hundred).Round(2)
}

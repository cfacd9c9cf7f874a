package mapper

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pricingtypes "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/application/types"
	pricingdomain "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// OrderLine is the transport shape of a priced line. Amounts travel as decimal strings.
type OrderLine struct {
	ProductID    int64
	Quantity     int64
	UnitPrice    string
	Category     string
	OnSale       bool
	SalePercent  string
	BulkEligible bool
	Luxury       bool
}

// EvaluateRequest is the transport shape of a pricing request.
type EvaluateRequest struct {
	Currency          string
	Lines             []OrderLine
	CustomerTaxExempt bool
	Jurisdiction      string
	OrderDiscount     string
	ExemptCategories  []string
}

// Result is the transport shape of a pricing result.
type Result struct {
	Currency             string
	TaxableSubtotal      string
	TaxAmount            string
	TotalWithTax         string
	EffectiveRatePercent string
	Exemption            string
}

// ToDomainOrderLines parses transport lines in the order currency.
func ToDomainOrderLines(currency string, lines []OrderLine) ([]pricingdomain.OrderLine, error) {
	result := make([]pricingdomain.OrderLine, 0, len(lines))
	for i, line := range lines {
		price, err := money.Parse(line.UnitPrice, currency)
		if err != nil {
			return nil, fmt.Errorf("lines[%d].unitPrice: %w", i, err)
		}
		salePercent := decimal.Zero
		if raw := strings.TrimSpace(line.SalePercent); raw != "" {
			salePercent, err = decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("lines[%d].salePercent: %w: %q", i, money.ErrInvalidAmount, raw)
			}
		}
		result = append(result, pricingdomain.OrderLine{
			ProductID:    line.ProductID,
			Quantity:     money.Quantity(line.Quantity),
			UnitPrice:    price,
			Category:     line.Category,
			OnSale:       line.OnSale,
			SalePercent:  salePercent,
			BulkEligible: line.BulkEligible,
			Luxury:       line.Luxury,
		})
	}
	return result, nil
}

// ToEvaluateInput converts a transport request into the application input.
func ToEvaluateInput(req EvaluateRequest) (pricingtypes.EvaluateInput, error) {
	lines, err := ToDomainOrderLines(req.Currency, req.Lines)
	if err != nil {
		return pricingtypes.EvaluateInput{}, err
	}
	input := pricingtypes.EvaluateInput{
		Currency:          req.Currency,
		Lines:             lines,
		CustomerTaxExempt: req.CustomerTaxExempt,
		Jurisdiction:      req.Jurisdiction,
		ExemptCategories:  req.ExemptCategories,
	}
	if raw := strings.TrimSpace(req.OrderDiscount); raw != "" {
		discount, err := money.Parse(raw, req.Currency)
		if err != nil {
			return pricingtypes.EvaluateInput{}, fmt.Errorf("orderDiscount: %w", err)
		}
		input.OrderDiscount = &discount
	}
	return input, nil
}

// FromDomainResult converts a pricing result to the transport representation.
func FromDomainResult(result *pricingdomain.Result) Result {
	if result == nil {
		return Result{}
	}
	return Result{
		Currency:             result.TaxAmount.Currency(),
		TaxableSubtotal:      result.TaxableSubtotal.String(),
		TaxAmount:            result.TaxAmount.String(),
		TotalWithTax:         result.TotalWithTax.String(),
		EffectiveRatePercent: result.EffectiveRatePercent.StringFixed(2),
		Exemption:            string(result.Exemption),
	}
}

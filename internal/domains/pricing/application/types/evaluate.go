package types

import (
	"github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// EvaluateInput is the request-scoped data needed to price one order.
type EvaluateInput struct {
	Currency          string
	Lines             []domain.OrderLine
	CustomerTaxExempt bool
	Jurisdiction      string
	// OrderDiscount is an optional flat amount taken off before tax.
	OrderDiscount *money.Money
	// ExemptCategories overrides the service-wide exempt set when non-nil.
	ExemptCategories []string
}

// ContextOptions translates the request fields into pricing context options. They are applied
// after the service defaults so a request can narrow them.
func (in EvaluateInput) ContextOptions() []domain.ContextOption {
	opts := []domain.ContextOption{
		domain.WithCustomerTaxExempt(in.CustomerTaxExempt),
		domain.WithJurisdiction(in.Jurisdiction),
	}
	if in.OrderDiscount != nil {
		opts = append(opts, domain.WithOrderDiscount(*in.OrderDiscount))
	}
	if in.ExemptCategories != nil {
		opts = append(opts, domain.WithExemptCategories(in.ExemptCategories...))
	}
	return opts
}

package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// Defaults applied by NewContext before options run.
var (
	DefaultBaseRate             = decimal.RequireFromString("0.08")
	DefaultLuxuryRate           = decimal.RequireFromString("0.02")
	DefaultBulkRate             = decimal.RequireFromString("0.05")
	DefaultBulkThreshold        = money.Quantity(10)
	DefaultLuxuryThresholdMinor = int64(100000)
	DefaultExemptCategories     = []string{"books", "medical_supplies", "groceries"}
	DefaultLuxuryCategories     = []string{"jewelry", "watches", "luxury_electronics"}
	DefaultTaxFreeJurisdictions = []string{"oregon"}
)

// Context carries every rule input of a single evaluation. It is built per call and never shared.
type Context struct {
	Currency             string
	CustomerTaxExempt    bool
	Jurisdiction         string
	TaxFreeJurisdictions map[string]struct{}
	ExemptCategories     map[string]struct{}
	OrderDiscount        money.Money
	BaseRate             decimal.Decimal
	LuxuryRate           decimal.Decimal
	LuxuryCategories     map[string]struct{}
	LuxuryThreshold      money.Money
	BulkThreshold        money.Quantity
	BulkRate             decimal.Decimal
}

// ContextOption adjusts a Context under construction and may reject the value it is given.
type ContextOption func(c *Context) (*Context, error)

// NewContext builds a Context for the currency with the default rule set, then applies opts in order.
func NewContext(currency string, opts ...ContextOption) (*Context, error) {
	code, err := money.NormalizeCurrency(currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidContext, err)
	}
	c := &Context{
		Currency:             code,
		TaxFreeJurisdictions: toSet(DefaultTaxFreeJurisdictions),
		ExemptCategories:     toSet(DefaultExemptCategories),
		OrderDiscount:        money.Zero(code),
		BaseRate:             DefaultBaseRate,
		LuxuryRate:           DefaultLuxuryRate,
		LuxuryCategories:     toSet(DefaultLuxuryCategories),
		LuxuryThreshold:      money.MustOf(DefaultLuxuryThresholdMinor, code),
		BulkThreshold:        DefaultBulkThreshold,
		BulkRate:             DefaultBulkRate,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		c, err = opt(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidContext, err)
		}
	}
	return c, nil
}

// WithCustomerTaxExempt zeroes tax for the whole order when exempt is true.
func WithCustomerTaxExempt(exempt bool) ContextOption {
	return func(c *Context) (*Context, error) {
		c.CustomerTaxExempt = exempt
		return c, nil
	}
}

// WithJurisdiction sets the shipping jurisdiction. Matching is case-insensitive.
func WithJurisdiction(code string) ContextOption {
	return func(c *Context) (*Context, error) {
		c.Jurisdiction = strings.ToLower(strings.TrimSpace(code))
		return c, nil
	}
}

// WithTaxFreeJurisdictions replaces the tax-free jurisdiction set.
func WithTaxFreeJurisdictions(codes ...string) ContextOption {
	return func(c *Context) (*Context, error) {
		c.TaxFreeJurisdictions = toSet(codes)
		return c, nil
	}
}

// WithExemptCategories replaces the tax-exempt category set.
func WithExemptCategories(categories ...string) ContextOption {
	return func(c *Context) (*Context, error) {
		c.ExemptCategories = toSet(categories)
		return c, nil
	}
}

// WithLuxuryCategories replaces the luxury category set.
func WithLuxuryCategories(categories ...string) ContextOption {
	return func(c *Context) (*Context, error) {
		c.LuxuryCategories = toSet(categories)
		return c, nil
	}
}

// WithOrderDiscount sets the flat order-level discount subtracted before tax.
func WithOrderDiscount(discount money.Money) ContextOption {
	return func(c *Context) (*Context, error) {
		if discount.IsNegative() {
			return nil, fmt.Errorf("order discount %s is negative", discount)
		}
		if discount.Currency() != c.Currency {
			return nil, fmt.Errorf("%w: order discount in %s, order in %s", money.ErrCurrencyMismatch, discount.Currency(), c.Currency)
		}
		c.OrderDiscount = discount
		return c, nil
	}
}

// WithBaseRate sets the base tax rate applied to the taxable subtotal. It must lie in [0, 1].
func WithBaseRate(rate decimal.Decimal) ContextOption {
	return func(c *Context) (*Context, error) {
		if err := checkRate("base rate", rate); err != nil {
			return nil, err
		}
		c.BaseRate = rate
		return c, nil
	}
}

// WithLuxuryRate sets the surcharge rate applied to luxury line totals. It must lie in [0, 1].
func WithLuxuryRate(rate decimal.Decimal) ContextOption {
	return func(c *Context) (*Context, error) {
		if err := checkRate("luxury rate", rate); err != nil {
			return nil, err
		}
		c.LuxuryRate = rate
		return c, nil
	}
}

// WithLuxuryThreshold sets the unit price above which a line counts as luxury.
func WithLuxuryThreshold(threshold money.Money) ContextOption {
	return func(c *Context) (*Context, error) {
		if threshold.IsNegative() {
			return nil, fmt.Errorf("luxury threshold %s is negative", threshold)
		}
		if threshold.Currency() != c.Currency {
			return nil, fmt.Errorf("%w: luxury threshold in %s, order in %s", money.ErrCurrencyMismatch, threshold.Currency(), c.Currency)
		}
		c.LuxuryThreshold = threshold
		return c, nil
	}
}

// WithBulkDiscount sets the quantity at which bulk-eligible lines receive rate off.
func WithBulkDiscount(threshold money.Quantity, rate decimal.Decimal) ContextOption {
	return func(c *Context) (*Context, error) {
		if !threshold.IsPositive() {
			return nil, fmt.Errorf("bulk threshold %d must be greater than zero", threshold)
		}
		if err := checkRate("bulk rate", rate); err != nil {
			return nil, err
		}
		c.BulkThreshold = threshold
		c.BulkRate = rate
		return c, nil
	}
}

func (c *Context) isExemptCategory(category string) bool {
	_, ok := c.ExemptCategories[normalizeCategory(category)]
	return ok
}

func (c *Context) isTaxFreeJurisdiction() bool {
	if c.Jurisdiction == "" {
		return false
	}
	_, ok := c.TaxFreeJurisdictions[c.Jurisdiction]
	return ok
}

// isLuxury reports whether a line attracts the luxury surcharge.
func (c *Context) isLuxury(line OrderLine) bool {
	if line.Luxury {
		return true
	}
	if _, ok := c.LuxuryCategories[normalizeCategory(line.Category)]; ok {
		return true
	}
	cmp, err := line.UnitPrice.Compare(c.LuxuryThreshold)
	return err == nil && cmp > 0
}

func checkRate(name string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s %s outside [0,1]", name, rate)
	}
	return nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if key := normalizeCategory(v); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

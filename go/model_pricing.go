package checkoutserver

// OrderLine - A single line of an order. Money travels as decimal strings.
type OrderLine struct {
	ProductId int64 `json:"productId"`

	Quantity int64 `json:"quantity"`

	UnitPrice string `json:"unitPrice"`

	Category string `json:"category,omitempty"`

	OnSale bool `json:"onSale,omitempty"`

	// Sale percentage in [0, 100]
	SalePercent string `json:"salePercent,omitempty"`

	BulkEligible bool `json:"bulkEligible,omitempty"`

	Luxury bool `json:"luxury,omitempty"`
}

type PricingRequest struct {
	// ISO 4217 currency code
	Currency string `json:"currency"`

	Lines []OrderLine `json:"lines"`

	CustomerTaxExempt bool `json:"customerTaxExempt,omitempty"`

	Jurisdiction string `json:"jurisdiction,omitempty"`

	OrderDiscount string `json:"orderDiscount,omitempty"`

	// Replaces the default exempt categories when present
	ExemptCategories []string `json:"exemptCategories,omitempty"`
}

type PricingResult struct {
	Currency string `json:"currency"`

	TaxableSubtotal string `json:"taxableSubtotal"`

	TaxAmount string `json:"taxAmount"`

	TotalWithTax string `json:"totalWithTax"`

	EffectiveRatePercent string `json:"effectiveRatePercent"`

	Exemption string `json:"exemption,omitempty"`
}

package domain

import (
	"fmt"
	"strings"

	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// Product is the stock-keeping view of a catalog item. ReservedStock never exceeds TotalStock.
type Product struct {
	ID            int64
	Name          string
	UnitPrice     money.Money
	Categories    []string
	TotalStock    money.Quantity
	ReservedStock money.Quantity
	ReorderPoint  money.Quantity
}

// Available is the one place stock availability is computed.
func Available(total, reserved money.Quantity) money.Quantity {
	if reserved >= total {
		return 0
	}
	return total - reserved
}

// NewProduct validates and constructs a catalog product with nothing reserved.
func NewProduct(id int64, name string, unitPrice money.Money, totalStock, reorderPoint money.Quantity, categories []string) (*Product, error) {
	p := &Product{
		ID:           id,
		Name:         strings.TrimSpace(name),
		UnitPrice:    unitPrice,
		Categories:   normalizeCategories(categories),
		TotalStock:   totalStock,
		ReorderPoint: reorderPoint,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate enforces the stock invariant.
func (p *Product) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidProductID
	}
	if p.TotalStock < 0 || p.ReservedStock < 0 || p.ReorderPoint < 0 {
		return fmt.Errorf("%w: negative quantity", ErrInvalidStockLevels)
	}
	if p.ReservedStock > p.TotalStock {
		return fmt.Errorf("%w: reserved %d exceeds total %d", ErrInvalidStockLevels, p.ReservedStock, p.TotalStock)
	}
	if p.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price %s is negative", ErrInvalidStockLevels, p.UnitPrice)
	}
	return nil
}

func (p *Product) Available() money.Quantity {
	return Available(p.TotalStock, p.ReservedStock)
}

// NeedsReorder compares available stock, not raw stock, against the reorder point.
func (p *Product) NeedsReorder() bool {
	return p.Available() <= p.ReorderPoint
}

// Reserve moves quantity from available into reserved.
func (p *Product) Reserve(quantity money.Quantity) error {
	if !quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	available := p.Available()
	if available < quantity {
		return &InsufficientStockError{ProductID: p.ID, Requested: int64(quantity), Available: int64(available)}
	}
	p.ReservedStock += quantity
	return nil
}

// Unreserve returns reserved quantity to available, flooring at zero.
func (p *Product) Unreserve(quantity money.Quantity) {
	p.ReservedStock -= quantity
	if p.ReservedStock < 0 {
		p.ReservedStock = 0
	}
}

// Consume permanently removes reserved quantity from both counters.
func (p *Product) Consume(quantity money.Quantity) {
	p.Unreserve(quantity)
	p.TotalStock -= quantity
	if p.TotalStock < 0 {
		p.TotalStock = 0
	}
	if p.ReservedStock > p.TotalStock {
		p.ReservedStock = p.TotalStock
	}
}

// UpdateCatalog replaces catalog attributes and total stock while keeping reservations intact.
func (p *Product) UpdateCatalog(name string, unitPrice money.Money, totalStock, reorderPoint money.Quantity, categories []string) error {
	next := *p
	next.Name = strings.TrimSpace(name)
	next.UnitPrice = unitPrice
	next.TotalStock = totalStock
	next.ReorderPoint = reorderPoint
	next.Categories = normalizeCategories(categories)
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

// Clone returns a deep copy.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Categories = append([]string(nil), p.Categories...)
	return &clone
}

func normalizeCategories(categories []string) []string {
	if len(categories) == 0 {
		return nil
	}
	out := make([]string, 0, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

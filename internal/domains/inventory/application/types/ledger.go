package types

import (
	"time"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// ReserveInput asks the ledger to hold stock for a requester.
type ReserveInput struct {
	ProductID   int64
	Quantity    money.Quantity
	RequesterID string
}

// UpsertProductInput seeds or updates catalog stock. Reserved stock is owned by the ledger and
// is never set through this input.
type UpsertProductInput struct {
	ProductID    int64
	Name         string
	UnitPrice    money.Money
	TotalStock   money.Quantity
	ReorderPoint money.Quantity
	Categories   []string
}

// Availability is the stock view of a product.
type Availability struct {
	ProductID    int64
	Total        money.Quantity
	Reserved     money.Quantity
	Available    money.Quantity
	ReorderPoint money.Quantity
	NeedsReorder bool
	UpdatedAt    time.Time
}

// NewAvailability builds the stock view of a product.
func NewAvailability(product *domain.Product, updatedAt time.Time) Availability {
	return Availability{
		ProductID:    product.ID,
		Total:        product.TotalStock,
		Reserved:     product.ReservedStock,
		Available:    product.Available(),
		ReorderPoint: product.ReorderPoint,
		NeedsReorder: product.NeedsReorder(),
		UpdatedAt:    updatedAt,
	}
}

// ExpiryReport summarizes one expiry sweep.
type ExpiryReport struct {
	Scanned  int
	Expired  int
	Skipped  int
	Failed   int
	Products int
}

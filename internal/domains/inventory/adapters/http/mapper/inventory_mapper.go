package mapper

import (
	"fmt"
	"time"

	inventorytypes "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/projection"
)

// ProductStock is the transport shape of a product upsert.
type ProductStock struct {
	Name         string
	UnitPrice    string
	Currency     string
	TotalStock   int64
	ReorderPoint int64
	Categories   []string
}

// Product is the transport shape of a stored product.
type Product struct {
	ID           int64
	Name         string
	UnitPrice    string
	Currency     string
	Categories   []string
	TotalStock   int64
	Reserved     int64
	Available    int64
	ReorderPoint int64
	NeedsReorder bool
	UpdatedAt    time.Time
}

// Reservation is the transport shape of a reservation.
type Reservation struct {
	ID          string
	ProductID   int64
	Quantity    int64
	RequesterID string
	Status      string
	CreatedAt   time.Time
	ExpiresAt   *time.Time
}

// Availability is the transport shape of a stock view.
type Availability struct {
	ProductID    int64
	Total        int64
	Reserved     int64
	Available    int64
	ReorderPoint int64
	NeedsReorder bool
}

// ExpiryReport is the transport shape of a sweep summary.
type ExpiryReport struct {
	Scanned  int
	Expired  int
	Skipped  int
	Failed   int
	Products int
}

// ToUpsertProductInput parses a product upsert for productID.
func ToUpsertProductInput(productID int64, body ProductStock) (inventorytypes.UpsertProductInput, error) {
	price, err := money.Parse(body.UnitPrice, body.Currency)
	if err != nil {
		return inventorytypes.UpsertProductInput{}, fmt.Errorf("unitPrice: %w", err)
	}
	total, err := money.NewQuantity(body.TotalStock)
	if err != nil {
		return inventorytypes.UpsertProductInput{}, fmt.Errorf("totalStock: %w", err)
	}
	reorder, err := money.NewQuantity(body.ReorderPoint)
	if err != nil {
		return inventorytypes.UpsertProductInput{}, fmt.Errorf("reorderPoint: %w", err)
	}
	return inventorytypes.UpsertProductInput{
		ProductID:    productID,
		Name:         body.Name,
		UnitPrice:    price,
		TotalStock:   total,
		ReorderPoint: reorder,
		Categories:   body.Categories,
	}, nil
}

func ToReserveInput(productID, quantity int64, requesterID string) inventorytypes.ReserveInput {
	return inventorytypes.ReserveInput{
		ProductID:   productID,
		Quantity:    money.Quantity(quantity),
		RequesterID: requesterID,
	}
}

// FromProjection converts a stored product to transport.
func FromProjection(stored *projection.Projection[*domain.Product]) Product {
	if stored == nil || stored.Entity == nil {
		return Product{}
	}
	p := stored.Entity
	return Product{
		ID:           p.ID,
		Name:         p.Name,
		UnitPrice:    p.UnitPrice.String(),
		Currency:     p.UnitPrice.Currency(),
		Categories:   append([]string(nil), p.Categories...),
		TotalStock:   p.TotalStock.Int64(),
		Reserved:     p.ReservedStock.Int64(),
		Available:    p.Available().Int64(),
		ReorderPoint: p.ReorderPoint.Int64(),
		NeedsReorder: p.NeedsReorder(),
		UpdatedAt:    stored.Metadata.UpdatedAt,
	}
}

func FromDomainReservation(r *domain.Reservation) Reservation {
	if r == nil {
		return Reservation{}
	}
	out := Reservation{
		ID:          r.ID,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity.Int64(),
		RequesterID: r.RequesterID,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
	}
	if r.ExpiresAt != nil {
		expiresAt := *r.ExpiresAt
		out.ExpiresAt = &expiresAt
	}
	return out
}

func FromAvailability(a inventorytypes.Availability) Availability {
	return Availability{
		ProductID:    a.ProductID,
		Total:        a.Total.Int64(),
		Reserved:     a.Reserved.Int64(),
		Available:    a.Available.Int64(),
		ReorderPoint: a.ReorderPoint.Int64(),
		NeedsReorder: a.NeedsReorder,
	}
}

func FromAvailabilityList(list []inventorytypes.Availability) []Availability {
	out := make([]Availability, 0, len(list))
	for _, a := range list {
		out = append(out, FromAvailability(a))
	}
	return out
}

func FromExpiryReport(r *inventorytypes.ExpiryReport) ExpiryReport {
	if r == nil {
		return ExpiryReport{}
	}
	return ExpiryReport{
		Scanned:  r.Scanned,
		Expired:  r.Expired,
		Skipped:  r.Skipped,
		Failed:   r.Failed,
		Products: r.Products,
	}
}

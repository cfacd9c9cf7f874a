package ports

import (
	"context"
	"time"

	inventorytypes "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/projection"
)

// Ledger exposes the stock reservation use cases to adapters.
type Ledger interface {
	Reserve(ctx context.Context, input inventorytypes.ReserveInput) (*domain.Reservation, error)
	// Release cancels an ACTIVE reservation and reports false without change otherwise.
	Release(ctx context.Context, reservationID string) (bool, error)
	Confirm(ctx context.Context, reservationID string) (*domain.Reservation, error)
	ExpireStaleReservations(ctx context.Context, now time.Time) (*inventorytypes.ExpiryReport, error)
	GetReservation(ctx context.Context, reservationID string) (*domain.Reservation, error)
	Availability(ctx context.Context, productID int64) (*inventorytypes.Availability, error)
	UpsertProduct(ctx context.Context, input inventorytypes.UpsertProductInput) (*projection.Projection[*domain.Product], error)
	LowStock(ctx context.Context, limit int) ([]inventorytypes.Availability, error)
}

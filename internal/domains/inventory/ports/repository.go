package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/projection"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductExists       = errors.New("product already exists")
	ErrReservationNotFound = errors.New("reservation not found")
)

// LockedProduct is the unit of work handed to WithProductLock. Reads reflect state under the
// lock; writes are committed together when the callback returns nil and discarded otherwise.
type LockedProduct interface {
	Product() *domain.Product
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	// GetReservations loads the given reservations of the locked product. Unknown ids are skipped.
	GetReservations(ctx context.Context, ids []string) ([]*domain.Reservation, error)
	SaveProduct(ctx context.Context, product *domain.Product) error
	SaveReservation(ctx context.Context, reservation *domain.Reservation) error
}

// ExpiredQuery pages ACTIVE reservations whose expiry is at or before Now, ordered by id.
type ExpiredQuery struct {
	Now     time.Time
	AfterID string
	Limit   int
}

// Repository persists products and reservations for the ledger.
type Repository interface {
	// WithProductLock runs fn while holding an exclusive lock on the product row.
	// It returns ErrProductNotFound when the product does not exist.
	WithProductLock(ctx context.Context, productID int64, fn func(ctx context.Context, locked LockedProduct) error) error
	// CreateProduct inserts a new product and fails with ErrProductExists when the id is taken.
	CreateProduct(ctx context.Context, product *domain.Product) (*projection.Projection[*domain.Product], error)
	GetProduct(ctx context.Context, id int64) (*projection.Projection[*domain.Product], error)
	// ListReorderCandidates returns products whose available stock is at or below their reorder point.
	ListReorderCandidates(ctx context.Context, limit int) ([]*projection.Projection[*domain.Product], error)
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	ListExpiredReservations(ctx context.Context, query ExpiredQuery) ([]*domain.Reservation, error)
}

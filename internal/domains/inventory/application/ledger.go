package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	inventorytypes "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/projection"
)

const (
	// DefaultReservationTTL is applied when no TTL option is given.
	DefaultReservationTTL = 15 * time.Minute
	// DefaultExpiryBatchSize bounds how many expired reservations are loaded per page.
	DefaultExpiryBatchSize = 100
	// DefaultLowStockLimit caps LowStock when the caller passes no positive limit.
	DefaultLowStockLimit = 50
)

// Ledger runs reserve, release, confirm and expiry against the product stock counters. Every
// mutation re-reads state under the product lock, so callers never act on stale availability.
type Ledger struct {
	repo           ports.Repository
	publisher      ports.EventPublisher
	clock          func() time.Time
	ttl            time.Duration
	newID          func() string
	batchSize      int
	onPublishError func(ctx context.Context, err error)
}

// LedgerOption configures the ledger.
type LedgerOption func(*Ledger)

// WithClock overrides the time source used for reservation timestamps and expiry.
func WithClock(clock func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithReservationTTL sets how long a reservation stays ACTIVE. Zero disables expiry.
func WithReservationTTL(ttl time.Duration) LedgerOption {
	return func(l *Ledger) {
		if ttl >= 0 {
			l.ttl = ttl
		}
	}
}

// WithEventPublisher publishes reservation lifecycle events after each committed change.
func WithEventPublisher(publisher ports.EventPublisher) LedgerOption {
	return func(l *Ledger) {
		if publisher != nil {
			l.publisher = publisher
		}
	}
}

// WithIDGenerator replaces the UUID reservation id generator.
func WithIDGenerator(newID func() string) LedgerOption {
	return func(l *Ledger) {
		if newID != nil {
			l.newID = newID
		}
	}
}

// WithExpiryBatchSize sets how many expired reservations one sweep page loads.
func WithExpiryBatchSize(size int) LedgerOption {
	return func(l *Ledger) {
		if size > 0 {
			l.batchSize = size
		}
	}
}

// WithPublishFailureHandler receives event publishing errors. State is already committed when
// publishing runs, so these errors never fail the operation.
func WithPublishFailureHandler(fn func(ctx context.Context, err error)) LedgerOption {
	return func(l *Ledger) {
		if fn != nil {
			l.onPublishError = fn
		}
	}
}

// NewLedger wires the ledger with its repository.
func NewLedger(repo ports.Repository, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		repo:           repo,
		publisher:      ports.NoopEventPublisher,
		clock:          time.Now,
		ttl:            DefaultReservationTTL,
		newID:          func() string { return uuid.NewString() },
		batchSize:      DefaultExpiryBatchSize,
		onPublishError: func(context.Context, error) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Reserve holds quantity of a product for a requester.
func (l *Ledger) Reserve(ctx context.Context, input inventorytypes.ReserveInput) (*domain.Reservation, error) {
	now := l.clock().UTC()
	reservation, err := domain.NewReservation(l.newID(), input.ProductID, input.Quantity, input.RequesterID, now, l.ttl)
	if err != nil {
		return nil, mapError(err)
	}
	var event domain.ReservationEvent
	err = l.repo.WithProductLock(ctx, input.ProductID, func(ctx context.Context, locked ports.LockedProduct) error {
		product := locked.Product()
		if err := product.Reserve(reservation.Quantity); err != nil {
			return err
		}
		if err := locked.SaveProduct(ctx, product); err != nil {
			return err
		}
		if err := locked.SaveReservation(ctx, reservation); err != nil {
			return err
		}
		event = domain.NewReservationEvent(domain.EventReservationCreated, reservation, product, now)
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	l.publish(ctx, event)
	return reservation.Clone(), nil
}

// Release cancels an ACTIVE reservation and returns its quantity to available stock.
// A reservation in any other state is left untouched and false is returned.
func (l *Ledger) Release(ctx context.Context, reservationID string) (bool, error) {
	current, err := l.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return false, mapError(err)
	}
	if !current.IsActive() {
		return false, nil
	}
	now := l.clock().UTC()
	released := false
	var event domain.ReservationEvent
	err = l.repo.WithProductLock(ctx, current.ProductID, func(ctx context.Context, locked ports.LockedProduct) error {
		reservation, err := locked.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if !reservation.IsActive() {
			return nil
		}
		product := locked.Product()
		if err := cancelReservation(ctx, locked, product, reservation, now); err != nil {
			return err
		}
		released = true
		event = domain.NewReservationEvent(domain.EventReservationReleased, reservation, product, now)
		return nil
	})
	if err != nil {
		return false, mapError(err)
	}
	if released {
		l.publish(ctx, event)
	}
	return released, nil
}

// Confirm consumes the reserved stock permanently.
func (l *Ledger) Confirm(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	current, err := l.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, mapError(err)
	}
	if !current.IsActive() {
		return nil, mapError(&domain.InvalidStateError{ReservationID: current.ID, Status: current.Status, Action: "confirm"})
	}
	now := l.clock().UTC()
	var confirmed *domain.Reservation
	var event domain.ReservationEvent
	err = l.repo.WithProductLock(ctx, current.ProductID, func(ctx context.Context, locked ports.LockedProduct) error {
		reservation, err := locked.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if err := reservation.Confirm(now); err != nil {
			return err
		}
		product := locked.Product()
		product.Consume(reservation.Quantity)
		if err := locked.SaveProduct(ctx, product); err != nil {
			return err
		}
		if err := locked.SaveReservation(ctx, reservation); err != nil {
			return err
		}
		confirmed = reservation
		event = domain.NewReservationEvent(domain.EventReservationConfirmed, reservation, product, now)
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	l.publish(ctx, event)
	return confirmed.Clone(), nil
}

// ExpireStaleReservations releases every ACTIVE reservation whose expiry is at or before now.
// Reservations are grouped per product so each product is locked once per page. Running it
// twice, or alongside Reserve, is safe because each candidate is re-checked under the lock.
func (l *Ledger) ExpireStaleReservations(ctx context.Context, now time.Time) (*inventorytypes.ExpiryReport, error) {
	now = now.UTC()
	report := &inventorytypes.ExpiryReport{}
	touched := map[int64]struct{}{}
	var failures []error
	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		page, err := l.repo.ListExpiredReservations(ctx, ports.ExpiredQuery{Now: now, AfterID: afterID, Limit: l.batchSize})
		if err != nil {
			return report, mapError(err)
		}
		if len(page) == 0 {
			break
		}
		report.Scanned += len(page)
		afterID = page[len(page)-1].ID

		for _, productID := range groupByProduct(page) {
			ids := idsForProduct(page, productID)
			events, skipped, err := l.expireProduct(ctx, productID, ids, now)
			if err != nil {
				report.Failed += len(ids)
				failures = append(failures, fmt.Errorf("product %d: %w", productID, err))
				continue
			}
			report.Expired += len(events)
			report.Skipped += skipped
			if len(events) > 0 {
				touched[productID] = struct{}{}
				l.publish(ctx, events...)
			}
		}
		if len(page) < l.batchSize {
			break
		}
	}
	report.Products = len(touched)
	if len(failures) > 0 {
		return report, errors.Join(failures...)
	}
	return report, nil
}

func (l *Ledger) expireProduct(ctx context.Context, productID int64, ids []string, now time.Time) ([]domain.ReservationEvent, int, error) {
	var events []domain.ReservationEvent
	skipped := 0
	err := l.repo.WithProductLock(ctx, productID, func(ctx context.Context, locked ports.LockedProduct) error {
		events = events[:0]
		skipped = 0
		reservations, err := locked.GetReservations(ctx, ids)
		if err != nil {
			return err
		}
		skipped = len(ids) - len(reservations)
		product := locked.Product()
		for _, reservation := range reservations {
			if !reservation.IsExpired(now) {
				skipped++
				continue
			}
			if err := cancelReservation(ctx, locked, product, reservation, now); err != nil {
				return err
			}
			events = append(events, domain.NewReservationEvent(domain.EventReservationExpired, reservation, product, now))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return events, skipped, nil
}

// GetReservation loads a reservation by id.
func (l *Ledger) GetReservation(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	reservation, err := l.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, mapError(err)
	}
	return reservation, nil
}

// Availability reports total, reserved and available stock.
func (l *Ledger) Availability(ctx context.Context, productID int64) (*inventorytypes.Availability, error) {
	if productID <= 0 {
		return nil, mapError(domain.ErrInvalidProductID)
	}
	stored, err := l.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, mapError(err)
	}
	availability := inventorytypes.NewAvailability(stored.Entity, stored.Metadata.UpdatedAt)
	return &availability, nil
}

// UpsertProduct creates a product or updates its catalog fields and total stock. Reserved stock
// is preserved, and lowering total stock below it is rejected.
func (l *Ledger) UpsertProduct(ctx context.Context, input inventorytypes.UpsertProductInput) (*projection.Projection[*domain.Product], error) {
	candidate, err := domain.NewProduct(input.ProductID, input.Name, input.UnitPrice, input.TotalStock, input.ReorderPoint, input.Categories)
	if err != nil {
		return nil, mapError(err)
	}
	for attempt := 0; attempt < 2; attempt++ {
		err = l.repo.WithProductLock(ctx, input.ProductID, func(ctx context.Context, locked ports.LockedProduct) error {
			product := locked.Product()
			if err := product.UpdateCatalog(candidate.Name, candidate.UnitPrice, candidate.TotalStock, candidate.ReorderPoint, candidate.Categories); err != nil {
				return err
			}
			return locked.SaveProduct(ctx, product)
		})
		if err == nil {
			return l.getProduct(ctx, input.ProductID)
		}
		if !errors.Is(err, ports.ErrProductNotFound) {
			return nil, mapError(err)
		}
		created, err := l.repo.CreateProduct(ctx, candidate)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ports.ErrProductExists) {
			return nil, mapError(err)
		}
		// a concurrent create won; retry as an update
	}
	return nil, mapError(ports.ErrProductExists)
}

// LowStock lists products whose available stock is at or below their reorder point.
func (l *Ledger) LowStock(ctx context.Context, limit int) ([]inventorytypes.Availability, error) {
	if limit <= 0 {
		limit = DefaultLowStockLimit
	}
	products, err := l.repo.ListReorderCandidates(ctx, limit)
	if err != nil {
		return nil, mapError(err)
	}
	result := make([]inventorytypes.Availability, 0, len(products))
	for _, stored := range products {
		result = append(result, inventorytypes.NewAvailability(stored.Entity, stored.Metadata.UpdatedAt))
	}
	return result, nil
}

func (l *Ledger) getProduct(ctx context.Context, productID int64) (*projection.Projection[*domain.Product], error) {
	stored, err := l.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, mapError(err)
	}
	return stored, nil
}

func (l *Ledger) publish(ctx context.Context, events ...domain.ReservationEvent) {
	if len(events) == 0 {
		return
	}
	if err := l.publisher.Publish(ctx, events...); err != nil {
		l.onPublishError(ctx, err)
	}
}

func cancelReservation(ctx context.Context, locked ports.LockedProduct, product *domain.Product, reservation *domain.Reservation, now time.Time) error {
	if err := reservation.Cancel(now); err != nil {
		return err
	}
	product.Unreserve(reservation.Quantity)
	if err := locked.SaveProduct(ctx, product); err != nil {
		return err
	}
	return locked.SaveReservation(ctx, reservation)
}

func groupByProduct(reservations []*domain.Reservation) []int64 {
	seen := map[int64]struct{}{}
	var ids []int64
	for _, r := range reservations {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		ids = append(ids, r.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func idsForProduct(reservations []*domain.Reservation, productID int64) []string {
	var ids []string
	for _, r := range reservations {
		if r.ProductID == productID {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

var _ ports.Ledger = (*Ledger)(nil)

package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventorymemory "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/adapters/memory"
	inventorytypes "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type ledgerFixture struct {
	ledger *Ledger
	repo   *inventorymemory.Repository
	events *inventorymemory.EventRecorder
	clock  *fixedClock
}

func newLedgerFixture(t *testing.T, opts ...LedgerOption) *ledgerFixture {
	t.Helper()
	clock := &fixedClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	repo := inventorymemory.NewRepository(inventorymemory.WithClock(clock.Now))
	events := inventorymemory.NewEventRecorder()
	base := []LedgerOption{WithClock(clock.Now), WithEventPublisher(events)}
	return &ledgerFixture{
		ledger: NewLedger(repo, append(base, opts...)...),
		repo:   repo,
		events: events,
		clock:  clock,
	}
}

func (f *ledgerFixture) seed(t *testing.T, productID int64, total int64) {
	t.Helper()
	_, err := f.ledger.UpsertProduct(context.Background(), inventorytypes.UpsertProductInput{
		ProductID:    productID,
		Name:         fmt.Sprintf("product-%d", productID),
		UnitPrice:    money.MustOf(1999, "USD"),
		TotalStock:   money.Quantity(total),
		ReorderPoint: 2,
	})
	require.NoError(t, err)
}

func (f *ledgerFixture) stock(t *testing.T, productID int64) *inventorytypes.Availability {
	t.Helper()
	availability, err := f.ledger.Availability(context.Background(), productID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, int64(availability.Reserved), int64(0))
	require.LessOrEqual(t, availability.Reserved, availability.Total)
	return availability
}

func reserve(f *ledgerFixture, productID int64, qty int64) (*domain.Reservation, error) {
	return f.ledger.Reserve(context.Background(), inventorytypes.ReserveInput{
		ProductID:   productID,
		Quantity:    money.Quantity(qty),
		RequesterID: "cart-1",
	})
}

func TestReserve_RejectsWhenAvailableIsShort(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t, 1, 10)

	first, err := reserve(f, 1, 7)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, first.Status)
	require.Equal(t, money.Quantity(7), f.stock(t, 1).Reserved)

	_, err = reserve(f, 1, 5)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var shortage *domain.InsufficientStockError
	require.True(t, errors.As(err, &shortage))
	assert.Equal(t, int64(5), shortage.Requested)
	assert.Equal(t, int64(3), shortage.Available)

	stock := f.stock(t, 1)
	assert.Equal(t, money.Quantity(10), stock.Total)
	assert.Equal(t, money.Quantity(7), stock.Reserved)
	assert.Equal(t, money.Quantity(3), stock.Available)
}

func TestReserve_StampsExpiryFromTTL(t *testing.T) {
	f := newLedgerFixture(t, WithReservationTTL(30*time.Minute))
	f.seed(t, 1, 5)

	reservation, err := reserve(f, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, reservation.ExpiresAt)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), *reservation.ExpiresAt)
	assert.NotEmpty(t, reservation.ID)
	assert.Equal(t, []domain.EventType{domain.EventReservationCreated}, f.events.Types())
}

func TestReserve_ZeroTTLNeverExpires(t *testing.T) {
	f := newLedgerFixture(t, WithReservationTTL(0))
	f.seed(t, 1, 5)

	reservation, err := reserve(f, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, reservation.ExpiresAt)

	f.clock.Advance(24 * time.Hour)
	report, err := f.ledger.ExpireStaleReservations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Expired)
}

func TestReserve_ValidatesInput(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t, 1, 5)

	_, err := reserve(f, 1, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.ledger.Reserve(context.Background(), inventorytypes.ReserveInput{ProductID: 1, Quantity: 1})
	require.ErrorIs(t, err, domain.ErrInvalidRequester)

	_, err = reserve(f, 99, 1)
	require.ErrorIs(t, err, ports.ErrProductNotFound)
	assert.Equal(t, money.Quantity(0), f.stock(t, 1).Reserved)
}

func TestRelease_RestoresReservedAndIsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t, 1, 10)
	_, err := reserve(f, 1, 4)
	require.NoError(t, err)
	before := f.stock(t, 1)

	reservation, err := reserve(f, 1, 3)
	require.NoError(t, err)

	released, err := f.ledger.Release(context.Background(), reservation.ID)
	require.NoError(t, err)
	assert.True(t, released)
	after := f.stock(t, 1)
	assert.Equal(t, before.Reserved, after.Reserved)
	assert.Equal(t, before.Total, after.Total)

	released, err = f.ledger.Release(context.Background(), reservation.ID)
	require.NoError(t, err)
	assert.False(t, released)
	assert.Equal(t, after, f.stock(t, 1))

	stored, err := f.ledger.GetReservation(context.Background(), reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
}

func TestRelease_UnknownReservation(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.ledger.Release(context.Background(), "missing")
	require.ErrorIs(t, err, ports.ErrReservationNotFound)
}

func TestConfirm_ConsumesTotalAndReserved(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t, 1, 10)
	reservation, err := reserve(f, 1, 4)
	require.NoError(t, err)

	confirmed, err := f.ledger.Confirm(context.Background(), reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)

	stock := f.stock(t, 1)
	assert.Equal(t, money.Quantity(6), stock.Total)
	assert.Equal(t, money.Quantity(0), stock.Reserved)
	assert.Equal(t, money.Quantity(6), stock.Available)

	_, err = f.ledger.Confirm(context.Background(), reservation.ID)
	require.ErrorIs(t, err, domain.ErrInvalidReservationState)

	released, err := f.ledger.Release(context.Background(), reservation.ID)
	require.NoError(t, err)
	assert.False(t, released)
	assert.Equal(t, money.Quantity(6), f.stock(t, 1).Total)
	assert.Equal(t, []domain.EventType{domain.EventReservationCreated, domain.EventReservationConfirmed}, f.events.Types())
}

func TestConfirm_AfterReleaseFails(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t, 1, 10)
	reservation, err := reserve(f, 1, 4)
	require.NoError(t, err)
	_, err = f.ledger.Release(context.Background(), reservation.ID)
	require.NoError(t, err)

	_, err = f.ledger.Confirm(context.Background(), reservation.ID)
	require.ErrorIs(t, err, domain.ErrInvalidReservationState)
	assert.Equal(t, money.Quantity(10), f.stock(t, 1).Total)
}

func TestExpireStaleReservations_ReleasesOnlyExpired(t *testing.T) {
	f := newLedgerFixture(t, WithReservationTTL(15*time.Minute), WithExpiryBatchSize(2))
	f.seed(t, 1, 20)
	f.seed(t, 2, 20)

	var stale []string
	for i := 0; i < 3; i++ {
		r, err := reserve(f, 1, 2)
		require.NoError(t, err)
		stale = append(stale, r.ID)
	}
	r, err := reserve(f, 2, 5)
	require.NoError(t, err)
	stale = append(stale, r.ID)

	f.clock.Advance(10 * time.Minute)
	fresh, err := reserve(f, 2, 1)
	require.NoError(t, err)
	confirmed, err := reserve(f, 1, 1)
	require.NoError(t, err)

	f.clock.Advance(6 * time.Minute)
	_, err = f.ledger.Confirm(context.Background(), confirmed.ID)
	require.NoError(t, err)

	report, err := f.ledger.ExpireStaleReservations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Expired)
	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 2, report.Products)

	assert.Equal(t, money.Quantity(0), f.stock(t, 1).Reserved)
	assert.Equal(t, money.Quantity(19), f.stock(t, 1).Total)
	assert.Equal(t, money.Quantity(1), f.stock(t, 2).Reserved)

	for _, id := range stale {
		stored, err := f.ledger.GetReservation(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, stored.Status)
	}
	stored, err := f.ledger.GetReservation(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, stored.Status)

	again, err := f.ledger.ExpireStaleReservations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Expired)

	expired := 0
	for _, evt := range f.events.Events() {
		if evt.Type == domain.EventReservationExpired {
			expired++
		}
	}
	assert.Equal(t, 4, expired)
}

func TestReserve_ConcurrentRequestsNeverOvercommit(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t, 1, 20)

	var wg sync.WaitGroup
	var succeeded, rejected atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reserve(f, 1, 1)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), succeeded.Load())
	assert.Equal(t, int64(30), rejected.Load())
	stock := f.stock(t, 1)
	assert.Equal(t, money.Quantity(20), stock.Reserved)
	assert.Equal(t, money.Quantity(0), stock.Available)
}

func TestExpire_ConcurrentWithReserve(t *testing.T) {
	f := newLedgerFixture(t, WithReservationTTL(time.Minute), WithExpiryBatchSize(3))
	f.seed(t, 1, 10)
	for i := 0; i < 10; i++ {
		_, err := reserve(f, 1, 1)
		require.NoError(t, err)
	}
	f.clock.Advance(2 * time.Minute)
	now := f.clock.Now()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.ExpireStaleReservations(context.Background(), now)
			assert.NoError(t, err)
		}()
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reserve(f, 1, 1)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	_, err := f.ledger.ExpireStaleReservations(context.Background(), now)
	require.NoError(t, err)

	stock := f.stock(t, 1)
	assert.Equal(t, money.Quantity(10), stock.Total)
	active := 0
	for _, evt := range f.events.Events() {
		switch evt.Type {
		case domain.EventReservationCreated:
			active++
		case domain.EventReservationExpired:
			active--
		}
	}
	assert.Equal(t, money.Quantity(active), stock.Reserved)
}

func TestUpsertProduct_PreservesReservedStock(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t, 1, 10)
	_, err := reserve(f, 1, 6)
	require.NoError(t, err)

	updated, err := f.ledger.UpsertProduct(context.Background(), inventorytypes.UpsertProductInput{
		ProductID:  1,
		Name:       "renamed",
		UnitPrice:  money.MustOf(2500, "USD"),
		TotalStock: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Entity.Name)
	assert.Equal(t, money.Quantity(6), updated.Entity.ReservedStock)
	assert.Equal(t, money.Quantity(15), updated.Entity.TotalStock)

	_, err = f.ledger.UpsertProduct(context.Background(), inventorytypes.UpsertProductInput{
		ProductID:  1,
		UnitPrice:  money.MustOf(2500, "USD"),
		TotalStock: 5,
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidStockLevels)
	assert.Equal(t, money.Quantity(15), f.stock(t, 1).Total)
}

func TestLowStock_UsesAvailableStock(t *testing.T) {
	f := newLedgerFixture(t)
	f.seed(t, 1, 10)
	f.seed(t, 2, 10)
	_, err := reserve(f, 1, 8)
	require.NoError(t, err)

	low, err := f.ledger.LowStock(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(1), low[0].ProductID)
	assert.Equal(t, money.Quantity(2), low[0].Available)
	assert.True(t, low[0].NeedsReorder)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, ...domain.ReservationEvent) error {
	return errors.New("broker unavailable")
}

func TestPublishFailureDoesNotFailCommittedOperation(t *testing.T) {
	var reported atomic.Int64
	f := newLedgerFixture(t,
		WithEventPublisher(failingPublisher{}),
		WithPublishFailureHandler(func(context.Context, error) { reported.Add(1) }),
	)
	f.seed(t, 1, 3)

	_, err := reserve(f, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reported.Load())
	assert.Equal(t, money.Quantity(1), f.stock(t, 1).Reserved)
}

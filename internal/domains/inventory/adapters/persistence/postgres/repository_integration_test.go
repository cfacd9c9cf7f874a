//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application"
	inventorytypes "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-checkout-server/internal/platform/migrations"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

func setupInventoryPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("checkout_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func seedProduct(t *testing.T, repo *Repository, id int64, total int64) {
	t.Helper()
	product, err := domain.NewProduct(id, "widget", money.MustOf(1250, "USD"), money.Quantity(total), 2, []string{"Tools"})
	require.NoError(t, err)
	_, err = repo.CreateProduct(context.Background(), product)
	require.NoError(t, err)
}

func TestRepository_CreateAndGetProduct(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupInventoryPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seedProduct(t, repo, 1, 10)

	stored, err := repo.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "widget", stored.Entity.Name)
	assert.Equal(t, int64(1250), stored.Entity.UnitPrice.MinorUnits())
	assert.Equal(t, []string{"tools"}, stored.Entity.Categories)
	assert.False(t, stored.Metadata.CreatedAt.IsZero())

	product, err := domain.NewProduct(1, "dup", money.Zero("USD"), 1, 0, nil)
	require.NoError(t, err)
	_, err = repo.CreateProduct(ctx, product)
	assert.ErrorIs(t, err, ports.ErrProductExists)

	_, err = repo.GetProduct(ctx, 404)
	assert.ErrorIs(t, err, ports.ErrProductNotFound)
}

func TestRepository_WithProductLockCommitsTogether(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupInventoryPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seedProduct(t, repo, 1, 10)
	now := time.Now().UTC().Truncate(time.Second)

	err := repo.WithProductLock(ctx, 1, func(ctx context.Context, locked ports.LockedProduct) error {
		product := locked.Product()
		require.NoError(t, product.Reserve(4))
		reservation, err := domain.NewReservation("res-1", 1, 4, "cart-1", now, time.Minute)
		require.NoError(t, err)
		if err := locked.SaveProduct(ctx, product); err != nil {
			return err
		}
		return locked.SaveReservation(ctx, reservation)
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repo.WithProductLock(ctx, 1, func(ctx context.Context, locked ports.LockedProduct) error {
		product := locked.Product()
		require.NoError(t, product.Reserve(2))
		if err := locked.SaveProduct(ctx, product); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := repo.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Quantity(4), stored.Entity.ReservedStock)

	reservation, err := repo.GetReservation(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, reservation.Status)
	require.NotNil(t, reservation.ExpiresAt)
	assert.True(t, reservation.ExpiresAt.Equal(now.Add(time.Minute)))
}

func TestRepository_ListExpiredReservationsPages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupInventoryPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seedProduct(t, repo, 1, 10)
	now := time.Now().UTC()

	err := repo.WithProductLock(ctx, 1, func(ctx context.Context, locked ports.LockedProduct) error {
		for _, id := range []string{"a", "b", "c"} {
			r, err := domain.NewReservation(id, 1, 1, "cart", now.Add(-time.Hour), time.Minute)
			require.NoError(t, err)
			if err := locked.SaveReservation(ctx, r); err != nil {
				return err
			}
		}
		fresh, err := domain.NewReservation("d", 1, 1, "cart", now, time.Hour)
		require.NoError(t, err)
		return locked.SaveReservation(ctx, fresh)
	})
	require.NoError(t, err)

	page, err := repo.ListExpiredReservations(ctx, ports.ExpiredQuery{Now: now, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].ID)

	page, err = repo.ListExpiredReservations(ctx, ports.ExpiredQuery{Now: now, AfterID: "b", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].ID)

	err = repo.WithProductLock(ctx, 1, func(ctx context.Context, locked ports.LockedProduct) error {
		list, err := locked.GetReservations(ctx, []string{"a", "c", "missing"})
		require.NoError(t, err)
		assert.Len(t, list, 2)
		return nil
	})
	require.NoError(t, err)
}

func TestLedger_ConcurrentReservesAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupInventoryPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ledger := application.NewLedger(repo)
	ctx := context.Background()
	seedProduct(t, repo, 1, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(ctx, inventorytypes.ReserveInput{ProductID: 1, Quantity: 1, RequesterID: "cart"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	availability, err := ledger.Availability(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Quantity(5), availability.Reserved)
	assert.Equal(t, money.Quantity(0), availability.Available)

	low, err := repo.ListReorderCandidates(ctx, 10)
	require.NoError(t, err)
	require.Len(t, low, 1)
}

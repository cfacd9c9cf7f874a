//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"
	"github.com/Apurer/go-gin-checkout-server/internal/platform/migrations"
)

func setupCheckoutPostgresContainer(t *testing.T) (*gorm.DB, func()) {
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

func TestRepository_SaveAndGetCoupon(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCheckoutPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	coupon, err := domain.NewCoupon("spring25", decimal.RequireFromString("0.25"), true, nil)
	require.NoError(t, err)
	saved, err := repo.SaveCoupon(ctx, coupon)
	require.NoError(t, err)
	assert.Equal(t, "SPRING25", saved.Code)
	assert.True(t, saved.Rate.Equal(decimal.RequireFromString("0.25")))

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	coupon.Active = false
	coupon.ExpiresAt = &expires
	_, err = repo.SaveCoupon(ctx, coupon)
	require.NoError(t, err)

	fetched, err := repo.GetCoupon(ctx, "Spring25")
	require.NoError(t, err)
	assert.False(t, fetched.Active)
	require.NotNil(t, fetched.ExpiresAt)
	assert.True(t, fetched.ExpiresAt.Equal(expires))

	_, err = repo.GetCoupon(ctx, "unknown")
	assert.ErrorIs(t, err, ports.ErrCouponNotFound)
}

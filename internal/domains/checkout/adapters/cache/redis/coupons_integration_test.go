//go:build integration

package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	checkoutmemory "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/adapters/memory"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"
)

func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	cleanup := func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}
	return client, cleanup
}

type countingRepo struct {
	ports.CouponRepository
	reads atomic.Int64
}

func (c *countingRepo) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	c.reads.Add(1)
	return c.CouponRepository.GetCoupon(ctx, code)
}

func TestCouponCache_ReadThrough(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	ctx := context.Background()
	inner := &countingRepo{CouponRepository: checkoutmemory.NewRepository()}
	cache := NewCouponCache(inner, client, WithTTL(time.Minute))

	coupon, err := domain.NewCoupon("save10", decimal.RequireFromString("0.10"), true, nil)
	require.NoError(t, err)
	_, err = cache.SaveCoupon(ctx, coupon)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := cache.GetCoupon(ctx, "SAVE10")
		require.NoError(t, err)
		assert.True(t, got.Rate.Equal(decimal.RequireFromString("0.10")))
	}
	assert.Equal(t, int64(1), inner.reads.Load())

	for i := 0; i < 2; i++ {
		_, err = cache.GetCoupon(ctx, "nope")
		require.ErrorIs(t, err, ports.ErrCouponNotFound)
	}
	assert.Equal(t, int64(2), inner.reads.Load())

	coupon.Rate = decimal.RequireFromString("0.25")
	_, err = cache.SaveCoupon(ctx, coupon)
	require.NoError(t, err)
	got, err := cache.GetCoupon(ctx, "save10")
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("0.25")))
}

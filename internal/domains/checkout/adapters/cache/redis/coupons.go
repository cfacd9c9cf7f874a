package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"
)

const (
	DefaultTTL       = 5 * time.Minute
	DefaultKeyPrefix = "checkout:coupon"

	// missing marks a code the backing store does not know, so repeated misses stay cheap.
	missing = "-"
)

var _ ports.CouponRepository = (*CouponCache)(nil)

// CouponCache is a read-through cache in front of a CouponRepository. Redis failures fall back
// to the backing repository.
type CouponCache struct {
	inner  ports.CouponRepository
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

type Option func(*CouponCache)

// WithTTL sets how long cached coupons and misses live. Non-positive values keep DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *CouponCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces coupon keys. An empty prefix keeps DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *CouponCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

func NewCouponCache(inner ports.CouponRepository, client redis.Cmdable, opts ...Option) *CouponCache {
	c := &CouponCache{inner: inner, client: client, ttl: DefaultTTL, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type cachedCoupon struct {
	Code      string     `json:"code"`
	Rate      string     `json:"rate"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (c *CouponCache) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	code = domain.NormalizeCouponCode(code)
	key := c.key(code)
	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil && raw == missing:
		return nil, ports.ErrCouponNotFound
	case err == nil:
		if coupon, decodeErr := decode(raw); decodeErr == nil {
			return coupon, nil
		}
	case !errors.Is(err, redis.Nil):
		return c.inner.GetCoupon(ctx, code)
	}

	coupon, err := c.inner.GetCoupon(ctx, code)
	if errors.Is(err, ports.ErrCouponNotFound) {
		_ = c.client.Set(ctx, key, missing, c.ttl).Err()
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if payload, encodeErr := encode(coupon); encodeErr == nil {
		_ = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	return coupon, nil
}

// SaveCoupon writes through and drops the cached entry.
func (c *CouponCache) SaveCoupon(ctx context.Context, coupon *domain.Coupon) (*domain.Coupon, error) {
	saved, err := c.inner.SaveCoupon(ctx, coupon)
	if err != nil {
		return nil, err
	}
	_ = c.client.Del(ctx, c.key(saved.Code)).Err()
	return saved, nil
}

func (c *CouponCache) key(code string) string {
	return fmt.Sprintf("%s:%s", c.prefix, code)
}

func encode(coupon *domain.Coupon) (string, error) {
	b, err := json.Marshal(cachedCoupon{
		Code:      coupon.Code,
		Rate:      coupon.Rate.String(),
		Active:    coupon.Active,
		ExpiresAt: coupon.ExpiresAt,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode(raw string) (*domain.Coupon, error) {
	var cached cachedCoupon
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, err
	}
	rate, err := decimal.NewFromString(cached.Rate)
	if err != nil {
		return nil, err
	}
	return &domain.Coupon{
		Code:      cached.Code,
		Rate:      rate,
		Active:    cached.Active,
		ExpiresAt: cached.ExpiresAt,
	}, nil
}

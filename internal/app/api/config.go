package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"

	checkoutdomain "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/adapters/events/kafka"
	inventoryworkflows "github.com/Apurer/go-gin-checkout-server/internal/durable/temporal/workflows/inventory"
)

const (
	defaultReservationTTL = 15 * time.Minute
	defaultCouponCacheTTL = 5 * time.Minute
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool

	ReservationTTL      time.Duration
	ExpirySweepInterval time.Duration

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CouponCacheTTL time.Duration

	// CouponCachePrefix namespaces coupon keys when several deployments share one Redis.
	CouponCachePrefix string

	KafkaBrokers []string
	KafkaTopic   string

	// TaxBaseRate and TaxFreeJurisdictions override the pricing defaults when set.
	TaxBaseRate          *decimal.Decimal
	TaxFreeJurisdictions []string

	FreeShippingThresholdMinor int64
	BaseShippingRateMinor      int64
	MaxDiscountMinor           int64
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                       envDefault("PORT", "8080"),
		PostgresDSN:                strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:            envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:          envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:           isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		ReservationTTL:             defaultReservationTTL,
		ExpirySweepInterval:        inventoryworkflows.DefaultSweepInterval,
		RedisAddr:                  strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:              os.Getenv("REDIS_PASSWORD"),
		CouponCachePrefix:          strings.TrimSpace(os.Getenv("COUPON_CACHE_PREFIX")),
		CouponCacheTTL:             defaultCouponCacheTTL,
		KafkaBrokers:               splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:                 envDefault("KAFKA_TOPIC", kafka.DefaultTopic),
		TaxFreeJurisdictions:       splitList(os.Getenv("TAX_FREE_JURISDICTIONS")),
		FreeShippingThresholdMinor: checkoutdomain.DefaultFreeShippingThresholdMinor,
		BaseShippingRateMinor:      checkoutdomain.DefaultBaseShippingRateMinor,
		MaxDiscountMinor:           checkoutdomain.DefaultMaxDiscountMinor,
	}

	// RESERVATION_TTL_MINUTES=0 disables expiry.
	if raw := strings.TrimSpace(os.Getenv("RESERVATION_TTL_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 0 {
			return Config{}, fmt.Errorf("RESERVATION_TTL_MINUTES must be a non-negative integer")
		}
		cfg.ReservationTTL = time.Duration(minutes) * time.Minute
	}
	if raw := strings.TrimSpace(os.Getenv("EXPIRY_SWEEP_INTERVAL_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("EXPIRY_SWEEP_INTERVAL_SECONDS must be a positive integer")
		}
		cfg.ExpirySweepInterval = time.Duration(seconds) * time.Second
	}
	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			return Config{}, fmt.Errorf("REDIS_DB must be a non-negative integer")
		}
		cfg.RedisDB = db
	}
	if raw := strings.TrimSpace(os.Getenv("COUPON_CACHE_TTL_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("COUPON_CACHE_TTL_SECONDS must be a positive integer")
		}
		cfg.CouponCacheTTL = time.Duration(seconds) * time.Second
	}
	if raw := strings.TrimSpace(os.Getenv("TAX_BASE_RATE")); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return Config{}, fmt.Errorf("TAX_BASE_RATE must be a decimal between 0 and 1")
		}
		cfg.TaxBaseRate = &rate
	}
	for key, dest := range map[string]*int64{
		"FREE_SHIPPING_THRESHOLD_MINOR": &cfg.FreeShippingThresholdMinor,
		"BASE_SHIPPING_RATE_MINOR":      &cfg.BaseShippingRateMinor,
		"MAX_DISCOUNT_MINOR":            &cfg.MaxDiscountMinor,
	} {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("%s must be a non-negative integer", key)
		}
		*dest = n
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "RESERVATION_TTL_MINUTES", "EXPIRY_SWEEP_INTERVAL_SECONDS", "KAFKA_BROKERS", "KAFKA_TOPIC", "TAX_BASE_RATE", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.ReservationTTL)
	assert.Equal(t, time.Minute, cfg.ExpirySweepInterval)
	assert.Equal(t, "inventory.reservations", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Nil(t, cfg.TaxBaseRate)
	assert.Equal(t, int64(10000), cfg.FreeShippingThresholdMinor)
	assert.Equal(t, int64(999), cfg.BaseShippingRateMinor)
	assert.Equal(t, int64(5000), cfg.MaxDiscountMinor)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("RESERVATION_TTL_MINUTES", "0")
	t.Setenv("EXPIRY_SWEEP_INTERVAL_SECONDS", "30")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("TAX_BASE_RATE", "0.0725")
	t.Setenv("TAX_FREE_JURISDICTIONS", "oregon,montana")
	t.Setenv("MAX_DISCOUNT_MINOR", "2500")
	t.Setenv("TEMPORAL_DISABLED", "yes")
	t.Setenv("COUPON_CACHE_PREFIX", " eu:coupon ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg.ReservationTTL)
	assert.Equal(t, 30*time.Second, cfg.ExpirySweepInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.NotNil(t, cfg.TaxBaseRate)
	assert.Equal(t, "0.0725", cfg.TaxBaseRate.String())
	assert.Equal(t, []string{"oregon", "montana"}, cfg.TaxFreeJurisdictions)
	assert.Equal(t, int64(2500), cfg.MaxDiscountMinor)
	assert.True(t, cfg.TemporalDisabled)
	assert.Equal(t, "eu:coupon", cfg.CouponCachePrefix)
}

func TestLoadConfig_RejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"RESERVATION_TTL_MINUTES":       "-1",
		"EXPIRY_SWEEP_INTERVAL_SECONDS": "0",
		"COUPON_CACHE_TTL_SECONDS":      "soon",
		"TAX_BASE_RATE":                 "1.5",
		"BASE_SHIPPING_RATE_MINOR":      "-999",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

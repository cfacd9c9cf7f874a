package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCouponCache_Options(t *testing.T) {
	defaults := NewCouponCache(nil, nil, WithKeyPrefix(""), WithTTL(0))
	assert.Equal(t, DefaultKeyPrefix+":SAVE10", defaults.key("SAVE10"))
	assert.Equal(t, DefaultTTL, defaults.ttl)

	tuned := NewCouponCache(nil, nil, WithKeyPrefix("eu:coupon"), WithTTL(time.Minute))
	assert.Equal(t, "eu:coupon:SAVE10", tuned.key("SAVE10"))
	assert.Equal(t, time.Minute, tuned.ttl)
}

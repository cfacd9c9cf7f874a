package ports

import (
	"context"
	"time"
)

// ExpiryScheduler keeps stale reservations being released on an interval.
type ExpiryScheduler interface {
	// StartExpirySweeps returns once sweeping has been scheduled. Starting twice is not an error.
	StartExpirySweeps(ctx context.Context, interval time.Duration) error
}

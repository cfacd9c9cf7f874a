package inventory

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"

	inventorytypes "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application/types"
	inventoryports "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
)

const (
	// ExpireStaleReservationsActivityName releases every ACTIVE reservation past its expiry.
	ExpireStaleReservationsActivityName = "inventory.activities.ExpireStaleReservations"
)

// ExpiryInput pins the sweep to the workflow's notion of now so retries see the same cutoff.
type ExpiryInput struct {
	Now time.Time
}

// Activities groups activities that operate on the inventory bounded context.
type Activities struct {
	ledger inventoryports.Ledger
}

func NewActivities(ledger inventoryports.Ledger) *Activities {
	return &Activities{ledger: ledger}
}

// ExpireStaleReservations runs one ledger expiry sweep. The sweep is idempotent, so a retried
// attempt only releases what an earlier attempt left behind.
func (a *Activities) ExpireStaleReservations(ctx context.Context, input ExpiryInput) (*inventorytypes.ExpiryReport, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.ledger == nil {
		logger.Error("reservation expiry activity not initialized")
		return nil, errors.New("reservation expiry activity not initialized")
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	logger.Info("ExpireStaleReservations activity started", "cutoff", now)
	report, err := a.ledger.ExpireStaleReservations(ctx, now)
	if err != nil {
		logger.Error("ExpireStaleReservations activity failed", "error", err)
		return report, err
	}
	logger.Info("ExpireStaleReservations activity completed", "scanned", report.Scanned, "expired", report.Expired, "products", report.Products)
	return report, nil
}

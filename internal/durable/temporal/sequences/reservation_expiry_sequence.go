package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	inventorytypes "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application/types"
	inventoryactivities "github.com/Apurer/go-gin-checkout-server/internal/durable/temporal/activities/inventory"
)

// RunReservationExpirySequence executes one expiry sweep with the cutoff fixed at the workflow clock.
func RunReservationExpirySequence(ctx workflow.Context) (*inventorytypes.ExpiryReport, error) {
	logger := workflow.GetLogger(ctx)
	now := workflow.Now(ctx)
	logger.Info("reservation expiry sequence started", "cutoff", now)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var report inventorytypes.ExpiryReport
	err := workflow.ExecuteActivity(ctx, inventoryactivities.ExpireStaleReservationsActivityName, inventoryactivities.ExpiryInput{Now: now}).Get(ctx, &report)
	if err != nil {
		logger.Error("reservation expiry sequence failed", "error", err)
		return nil, err
	}
	logger.Info("reservation expiry sequence completed", "expired", report.Expired, "scanned", report.Scanned)
	return &report, nil
}

package inventory

import (
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-checkout-server/internal/durable/temporal/sequences"
)

const (
	// ReservationExpiryWorkflowName is the public identifier for registering the workflow.
	ReservationExpiryWorkflowName = "inventory.workflows.ReservationExpiry"
	// ReservationExpiryTaskQueue is the queue consumed by the worker processing inventory workflows.
	ReservationExpiryTaskQueue = "RESERVATION_EXPIRY"
	// ReservationExpiryWorkflowID keeps a single sweeper running per namespace.
	ReservationExpiryWorkflowID = "inventory-reservation-expiry"

	DefaultSweepInterval      = time.Minute
	DefaultSweepsPerExecution = 500
)

// ReservationExpiryWorkflowInput configures the sweep loop.
type ReservationExpiryWorkflowInput struct {
	Interval time.Duration
	// SweepsPerExecution bounds history size; the workflow continues as new after this many sweeps.
	SweepsPerExecution int
	TraceID            string
}

// ReservationExpiryWorkflow sweeps expired reservations forever, sleeping Interval between sweeps.
// A failed sweep is logged and retried on the next tick.
func ReservationExpiryWorkflow(ctx workflow.Context, input ReservationExpiryWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	interval := input.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	sweeps := input.SweepsPerExecution
	if sweeps <= 0 {
		sweeps = DefaultSweepsPerExecution
	}
	logger.Info("ReservationExpiryWorkflow started", withTraceID(input.TraceID, "interval", interval)...)

	for i := 0; i < sweeps; i++ {
		report, err := sequences.RunReservationExpirySequence(ctx)
		if err != nil {
			logger.Error("ReservationExpiryWorkflow sweep failed", withTraceID(input.TraceID, "sweep", i, "error", err)...)
		} else if report.Expired > 0 {
			logger.Info("ReservationExpiryWorkflow released reservations", withTraceID(input.TraceID, "sweep", i, "expired", report.Expired)...)
		}
		if err := workflow.Sleep(ctx, interval); err != nil {
			return err
		}
	}
	logger.Info("ReservationExpiryWorkflow continuing as new", withTraceID(input.TraceID)...)
	return workflow.NewContinueAsNewError(ctx, ReservationExpiryWorkflowName, input)
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}

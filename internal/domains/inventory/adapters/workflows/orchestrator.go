package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
	inventoryworkflows "github.com/Apurer/go-gin-checkout-server/internal/durable/temporal/workflows/inventory"
)

var (
	_ ports.ExpiryScheduler = (*TemporalExpiryWorkflows)(nil)
	_ ports.ExpiryScheduler = (*InlineExpirySweeper)(nil)
)

// TemporalExpiryWorkflows schedules the expiry sweep as a long-running Temporal workflow.
type TemporalExpiryWorkflows struct {
	client    client.Client
	taskQueue string
}

func NewTemporalExpiryWorkflows(c client.Client) *TemporalExpiryWorkflows {
	return &TemporalExpiryWorkflows{client: c, taskQueue: inventoryworkflows.ReservationExpiryTaskQueue}
}

// StartExpirySweeps starts the singleton sweep workflow; an already running sweep is reused.
func (o *TemporalExpiryWorkflows) StartExpirySweeps(ctx context.Context, interval time.Duration) error {
	if o == nil || o.client == nil {
		return errors.New("temporal expiry workflows not configured")
	}
	options := client.StartWorkflowOptions{
		ID:        inventoryworkflows.ReservationExpiryWorkflowID,
		TaskQueue: o.taskQueue,
	}
	_, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		inventoryworkflows.ReservationExpiryWorkflowName,
		inventoryworkflows.ReservationExpiryWorkflowInput{Interval: interval, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return fmt.Errorf("start reservation expiry workflow: %w", err)
	}
	return nil
}

// InlineExpirySweeper runs the sweep on an in-process ticker, for development without Temporal.
type InlineExpirySweeper struct {
	ledger ports.Ledger
	logger *slog.Logger
	clock  func() time.Time

	once sync.Once
	done chan struct{}
}

func NewInlineExpirySweeper(ledger ports.Ledger, logger *slog.Logger) *InlineExpirySweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineExpirySweeper{ledger: ledger, logger: logger, clock: time.Now, done: make(chan struct{})}
}

// StartExpirySweeps launches the ticker goroutine. It stops when ctx is cancelled.
func (s *InlineExpirySweeper) StartExpirySweeps(ctx context.Context, interval time.Duration) error {
	if s == nil || s.ledger == nil {
		return errors.New("inline expiry sweeper not configured")
	}
	if interval <= 0 {
		interval = inventoryworkflows.DefaultSweepInterval
	}
	s.once.Do(func() {
		go s.run(ctx, interval)
	})
	return nil
}

// Done is closed once the sweep loop has exited.
func (s *InlineExpirySweeper) Done() <-chan struct{} {
	return s.done
}

func (s *InlineExpirySweeper) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.ledger.ExpireStaleReservations(ctx, s.clock())
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("inline reservation expiry sweep failed", slog.String("error", err.Error()))
				continue
			}
			if report.Expired > 0 {
				s.logger.Info("inline reservation expiry sweep released reservations", slog.Int("expired", report.Expired))
			}
		}
	}
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

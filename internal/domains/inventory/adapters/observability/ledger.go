package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	inventorytypes "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	inventoryports "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/projection"
)

const tracerName = "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/adapters/observability/ledger"

// Ledger decorates the reservation ledger with tracing, logging, and metrics.
type Ledger struct {
	inner   inventoryports.Ledger
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics ledgerMetrics
}

type Option func(*Ledger)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(l *Ledger) {
		l.tracer = tr
	}
}

// WithMeter injects the meter used to create reservation metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(l *Ledger) {
		l.metrics = newLedgerMetrics(m)
	}
}

// New wraps the core ledger.
func New(inner inventoryports.Ledger, opts ...Option) inventoryports.Ledger {
	l := &Ledger{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newLedgerMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.tracer == nil {
		l.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return l
}

func (l *Ledger) Reserve(ctx context.Context, input inventorytypes.ReserveInput) (*domain.Reservation, error) {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.Reserve",
		trace.WithAttributes(
			attribute.Int64("product.id", input.ProductID),
			attribute.Int64("reservation.quantity", input.Quantity.Int64()),
		))
	defer span.End()

	reservation, err := l.inner.Reserve(ctx, input)
	if err != nil {
		l.metrics.recordRejected(ctx, rejectReason(err))
		var shortage *domain.InsufficientStockError
		if errors.As(err, &shortage) {
			span.SetAttributes(attribute.Int64("product.available", shortage.Available))
			l.logWarn(ctx, "reservation rejected for insufficient stock",
				slog.Int64("product_id", shortage.ProductID),
				slog.Int64("requested", shortage.Requested),
				slog.Int64("available", shortage.Available))
			return nil, err
		}
		return nil, l.handleError(ctx, span, err, "failed to reserve stock", slog.Int64("product_id", input.ProductID))
	}
	span.SetAttributes(attribute.String("reservation.id", reservation.ID))
	l.metrics.recordCreated(ctx)
	l.logInfo(ctx, "stock reserved",
		slog.String("reservation_id", reservation.ID),
		slog.Int64("product_id", reservation.ProductID),
		slog.Int64("quantity", reservation.Quantity.Int64()))
	return reservation, nil
}

func (l *Ledger) Release(ctx context.Context, reservationID string) (bool, error) {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.Release", trace.WithAttributes(attribute.String("reservation.id", reservationID)))
	defer span.End()

	released, err := l.inner.Release(ctx, reservationID)
	if err != nil {
		return false, l.handleError(ctx, span, err, "failed to release reservation", slog.String("reservation_id", reservationID))
	}
	span.SetAttributes(attribute.Bool("reservation.released", released))
	if released {
		l.metrics.recordReleased(ctx, "manual", 1)
	}
	l.logInfo(ctx, "reservation release processed", slog.String("reservation_id", reservationID), slog.Bool("released", released))
	return released, nil
}

func (l *Ledger) Confirm(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.Confirm", trace.WithAttributes(attribute.String("reservation.id", reservationID)))
	defer span.End()

	reservation, err := l.inner.Confirm(ctx, reservationID)
	if err != nil {
		return nil, l.handleError(ctx, span, err, "failed to confirm reservation", slog.String("reservation_id", reservationID))
	}
	l.metrics.recordConfirmed(ctx)
	l.logInfo(ctx, "reservation confirmed",
		slog.String("reservation_id", reservationID),
		slog.Int64("product_id", reservation.ProductID))
	return reservation, nil
}

func (l *Ledger) ExpireStaleReservations(ctx context.Context, now time.Time) (*inventorytypes.ExpiryReport, error) {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.ExpireStaleReservations")
	defer span.End()

	report, err := l.inner.ExpireStaleReservations(ctx, now)
	if report != nil {
		span.SetAttributes(
			attribute.Int("expiry.scanned", report.Scanned),
			attribute.Int("expiry.expired", report.Expired),
			attribute.Int("expiry.failed", report.Failed),
		)
		l.metrics.recordReleased(ctx, "expired", report.Expired)
	}
	if err != nil {
		return report, l.handleError(ctx, span, err, "reservation expiry sweep failed")
	}
	l.logInfo(ctx, "reservation expiry sweep finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("expired", report.Expired),
		slog.Int("skipped", report.Skipped),
		slog.Int("products", report.Products))
	return report, nil
}

func (l *Ledger) GetReservation(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.GetReservation", trace.WithAttributes(attribute.String("reservation.id", reservationID)))
	defer span.End()

	reservation, err := l.inner.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, l.handleError(ctx, span, err, "failed to load reservation", slog.String("reservation_id", reservationID))
	}
	return reservation, nil
}

func (l *Ledger) Availability(ctx context.Context, productID int64) (*inventorytypes.Availability, error) {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.Availability", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	availability, err := l.inner.Availability(ctx, productID)
	if err != nil {
		return nil, l.handleError(ctx, span, err, "failed to load availability", slog.Int64("product_id", productID))
	}
	span.SetAttributes(attribute.Int64("product.available", availability.Available.Int64()))
	return availability, nil
}

func (l *Ledger) UpsertProduct(ctx context.Context, input inventorytypes.UpsertProductInput) (*projection.Projection[*domain.Product], error) {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.UpsertProduct", trace.WithAttributes(attribute.Int64("product.id", input.ProductID)))
	defer span.End()

	stored, err := l.inner.UpsertProduct(ctx, input)
	if err != nil {
		return nil, l.handleError(ctx, span, err, "failed to upsert product", slog.Int64("product_id", input.ProductID))
	}
	l.logInfo(ctx, "product stock updated",
		slog.Int64("product_id", input.ProductID),
		slog.Int64("total", stored.Entity.TotalStock.Int64()),
		slog.Int64("reserved", stored.Entity.ReservedStock.Int64()))
	return stored, nil
}

func (l *Ledger) LowStock(ctx context.Context, limit int) ([]inventorytypes.Availability, error) {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.LowStock")
	defer span.End()

	list, err := l.inner.LowStock(ctx, limit)
	if err != nil {
		return nil, l.handleError(ctx, span, err, "failed to list low stock products")
	}
	span.SetAttributes(attribute.Int("products.low_stock", len(list)))
	return list, nil
}

func (l *Ledger) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if l.logger == nil {
		return
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (l *Ledger) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if l.logger == nil {
		return
	}
	l.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

func (l *Ledger) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if l.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (l *Ledger) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	l.logError(ctx, msg, err, attrs...)
	return err
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, inventoryports.ErrProductNotFound):
		return "product_not_found"
	default:
		return "invalid"
	}
}

type ledgerMetrics struct {
	created   metric.Int64Counter
	rejected  metric.Int64Counter
	released  metric.Int64Counter
	confirmed metric.Int64Counter
}

func newLedgerMetrics(m metric.Meter) ledgerMetrics {
	if m == nil {
		return ledgerMetrics{}
	}
	created, _ := m.Int64Counter("inventory.ledger.reservations_created", metric.WithDescription("Number of reservations created"))
	rejected, _ := m.Int64Counter("inventory.ledger.reservations_rejected", metric.WithDescription("Number of reservation requests rejected"))
	released, _ := m.Int64Counter("inventory.ledger.reservations_released", metric.WithDescription("Number of reservations released or expired"))
	confirmed, _ := m.Int64Counter("inventory.ledger.reservations_confirmed", metric.WithDescription("Number of reservations confirmed"))
	return ledgerMetrics{created: created, rejected: rejected, released: released, confirmed: confirmed}
}

func (m ledgerMetrics) recordCreated(ctx context.Context) {
	if m.created != nil {
		m.created.Add(ctx, 1)
	}
}

func (m ledgerMetrics) recordRejected(ctx context.Context, reason string) {
	if m.rejected != nil {
		m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (m ledgerMetrics) recordReleased(ctx context.Context, cause string, n int) {
	if m.released != nil && n > 0 {
		m.released.Add(ctx, int64(n), metric.WithAttributes(attribute.String("cause", cause)))
	}
}

func (m ledgerMetrics) recordConfirmed(ctx context.Context) {
	if m.confirmed != nil {
		m.confirmed.Add(ctx, 1)
	}
}

var _ inventoryports.Ledger = (*Ledger)(nil)

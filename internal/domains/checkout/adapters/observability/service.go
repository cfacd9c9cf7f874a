package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	checkouttypes "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/domain"
	checkoutports "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"
)

const tracerName = "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/adapters/observability/service"

// Service decorates the checkout service with tracing, logging, and metrics.
type Service struct {
	inner   checkoutports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create quote metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

func New(inner checkoutports.Service, opts ...Option) checkoutports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Quote(ctx context.Context, input checkouttypes.QuoteInput) (*checkouttypes.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.Quote",
		trace.WithAttributes(
			attribute.String("checkout.currency", input.Pricing.Currency),
			attribute.Int("checkout.lines", len(input.Pricing.Lines)),
			attribute.String("checkout.shipping_method", input.ShippingMethod),
			attribute.Bool("checkout.coupon_requested", input.CouponCode != ""),
		))
	defer span.End()

	quote, err := s.inner.Quote(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to quote order", slog.String("currency", input.Pricing.Currency))
	}
	span.SetAttributes(
		attribute.String("checkout.total", quote.Totals.Total.String()),
		attribute.Bool("checkout.coupon_applied", quote.CouponCode != ""),
	)
	s.metrics.recordQuote(ctx, quote.ShippingMethod, quote.CouponCode != "")
	s.logger.LogAttrs(ctx, slog.LevelInfo, "order quoted",
		slog.String("subtotal", quote.Totals.Subtotal.String()),
		slog.String("discount", quote.Totals.DiscountAmount.String()),
		slog.String("tax", quote.Totals.TaxAmount.String()),
		slog.String("shipping", quote.Totals.ShippingCost.String()),
		slog.String("total", quote.Totals.Total.String()),
		slog.Int("items", quote.Totals.ItemCount))
	return quote, nil
}

func (s *Service) SaveCoupon(ctx context.Context, input checkouttypes.CouponInput) (*domain.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.SaveCoupon")
	defer span.End()

	coupon, err := s.inner.SaveCoupon(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to save coupon")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "coupon saved", slog.String("code", coupon.Code), slog.Bool("active", coupon.Active))
	return coupon, nil
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.recordFailure(ctx)
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	return err
}

type serviceMetrics struct {
	quotes   metric.Int64Counter
	failures metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	quotes, _ := m.Int64Counter("checkout.service.quotes", metric.WithDescription("Number of order quotes produced"))
	failures, _ := m.Int64Counter("checkout.service.failures", metric.WithDescription("Number of failed checkout operations"))
	return serviceMetrics{quotes: quotes, failures: failures}
}

func (m serviceMetrics) recordQuote(ctx context.Context, method domain.ShippingMethod, coupon bool) {
	if m.quotes != nil {
		m.quotes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("shipping_method", string(method)),
			attribute.Bool("coupon", coupon),
		))
	}
}

func (m serviceMetrics) recordFailure(ctx context.Context) {
	if m.failures != nil {
		m.failures.Add(ctx, 1)
	}
}

var _ checkoutports.Service = (*Service)(nil)

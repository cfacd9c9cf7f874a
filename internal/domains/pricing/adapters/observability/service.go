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

	pricingtypes "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/application/types"
	pricingdomain "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"
	pricingports "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/ports"
)

const tracerName = "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/adapters/observability/service"

// Service decorates the pricing service with tracing, logging, and metrics.
type Service struct {
	inner   pricingports.Service
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

// WithMeter injects the meter used to create pricing metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core pricing service.
func New(inner pricingports.Service, opts ...Option) pricingports.Service {
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

func (s *Service) Evaluate(ctx context.Context, input pricingtypes.EvaluateInput) (*pricingdomain.Result, error) {
	ctx, span := s.tracer.Start(ctx, "PricingService.Evaluate",
		trace.WithAttributes(
			attribute.String("pricing.currency", input.Currency),
			attribute.Int("pricing.lines", len(input.Lines)),
			attribute.String("pricing.jurisdiction", input.Jurisdiction),
		))
	defer span.End()

	s.logInfo(ctx, "evaluating order pricing", slog.String("currency", input.Currency), slog.Int("lines", len(input.Lines)))
	result, err := s.inner.Evaluate(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to evaluate order pricing", slog.String("currency", input.Currency))
	}
	span.SetAttributes(
		attribute.String("pricing.tax_amount", result.TaxAmount.String()),
		attribute.String("pricing.exemption", string(result.Exemption)),
	)
	s.metrics.recordEvaluated(ctx, result.Exemption)
	s.logInfo(ctx, "order pricing evaluated",
		slog.String("taxable_subtotal", result.TaxableSubtotal.String()),
		slog.String("tax_amount", result.TaxAmount.String()),
		slog.String("exemption", string(result.Exemption)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.recordRejected(ctx)
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	evaluations metric.Int64Counter
	rejected    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	evaluations, _ := m.Int64Counter("pricing.service.evaluations", metric.WithDescription("Number of successful pricing evaluations"))
	rejected, _ := m.Int64Counter("pricing.service.rejected", metric.WithDescription("Number of pricing evaluations rejected"))
	return serviceMetrics{evaluations: evaluations, rejected: rejected}
}

func (m serviceMetrics) recordEvaluated(ctx context.Context, exemption pricingdomain.Exemption) {
	if m.evaluations != nil {
		m.evaluations.Add(ctx, 1, metric.WithAttributes(attribute.String("pricing.exemption", string(exemption))))
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context) {
	if m.rejected != nil {
		m.rejected.Add(ctx, 1)
	}
}

var _ pricingports.Service = (*Service)(nil)

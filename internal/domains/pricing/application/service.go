package application

import (
	"context"

	pricingtypes "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/ports"
)

// Service evaluates tax and discounts for an order.
type Service struct {
	defaults []domain.ContextOption
}

// ServiceOption configures the pricing service.
type ServiceOption func(*Service)

// WithDefaultRules sets rule options applied to every evaluation before request-specific ones,
// for example deployment-wide tax rates.
func WithDefaultRules(opts ...domain.ContextOption) ServiceOption {
	return func(s *Service) {
		s.defaults = append(s.defaults, opts...)
	}
}

func NewService(opts ...ServiceOption) *Service {
	s := &Service{}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) Evaluate(ctx context.Context, input pricingtypes.EvaluateInput) (*domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pctx, err := s.buildContext(input)
	if err != nil {
		return nil, mapError(err)
	}
	result, err := domain.Evaluate(input.Lines, pctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &result, nil
}

func (s *Service) buildContext(input pricingtypes.EvaluateInput) (*domain.Context, error) {
	opts := make([]domain.ContextOption, 0, len(s.defaults)+4)
	opts = append(opts, s.defaults...)
	opts = append(opts, input.ContextOptions()...)
	return domain.NewContext(input.Currency, opts...)
}

var _ ports.Service = (*Service)(nil)

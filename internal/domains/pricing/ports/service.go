package ports

import (
	"context"

	pricingtypes "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/application/types"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/domain"
)

// Service exposes order pricing to adapters.
type Service interface {
	Evaluate(ctx context.Context, input pricingtypes.EvaluateInput) (*domain.Result, error)
}

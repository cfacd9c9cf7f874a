package checkoutserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pricingmapper "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/adapters/http/mapper"
	pricingports "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/ports"
	apierrors "github.com/Apurer/go-gin-checkout-server/internal/shared/errors"
)

// PricingAPI wires HTTP transport with the pricing rule evaluator.
type PricingAPI struct {
	service pricingports.Service
}

func NewPricingAPI(service pricingports.Service) PricingAPI {
	return PricingAPI{service: service}
}

// Post /v1/pricing/evaluate
// Computes the taxable subtotal and tax of an order
func (api *PricingAPI) EvaluatePricing(c *gin.Context) {
	var payload PricingRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := pricingmapper.ToEvaluateInput(toEvaluateRequest(payload))
	if err != nil {
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()))
		return
	}
	result, err := api.service.Evaluate(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromPricingResult(pricingmapper.FromDomainResult(result)))
}

func toEvaluateRequest(model PricingRequest) pricingmapper.EvaluateRequest {
	lines := make([]pricingmapper.OrderLine, 0, len(model.Lines))
	for _, line := range model.Lines {
		lines = append(lines, pricingmapper.OrderLine{
			ProductID:    line.ProductId,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Category:     line.Category,
			OnSale:       line.OnSale,
			SalePercent:  line.SalePercent,
			BulkEligible: line.BulkEligible,
			Luxury:       line.Luxury,
		})
	}
	return pricingmapper.EvaluateRequest{
		Currency:          model.Currency,
		Lines:             lines,
		CustomerTaxExempt: model.CustomerTaxExempt,
		Jurisdiction:      model.Jurisdiction,
		OrderDiscount:     model.OrderDiscount,
		ExemptCategories:  model.ExemptCategories,
	}
}

func fromPricingResult(result pricingmapper.Result) PricingResult {
	return PricingResult{
		Currency:             result.Currency,
		TaxableSubtotal:      result.TaxableSubtotal,
		TaxAmount:            result.TaxAmount,
		TotalWithTax:         result.TotalWithTax,
		EffectiveRatePercent: result.EffectiveRatePercent,
		Exemption:            result.Exemption,
	}
}

package checkoutserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutmapper "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/adapters/http/mapper"
	checkoutports "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"
	apierrors "github.com/Apurer/go-gin-checkout-server/internal/shared/errors"
)

// CheckoutAPI wires HTTP transport with the order total aggregator.
type CheckoutAPI struct {
	service checkoutports.Service
}

func NewCheckoutAPI(service checkoutports.Service) CheckoutAPI {
	return CheckoutAPI{service: service}
}

// Post /v1/checkout/quote
// Prices an order with discount, tax and shipping
func (api *CheckoutAPI) QuoteOrder(c *gin.Context) {
	var payload QuoteRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := checkoutmapper.ToQuoteInput(checkoutmapper.QuoteRequest{
		Order:          toEvaluateRequest(payload.Order),
		CouponCode:     payload.CouponCode,
		ShippingMethod: payload.ShippingMethod,
	})
	if err != nil {
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()))
		return
	}
	quote, err := api.service.Quote(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromQuote(checkoutmapper.FromQuote(quote)))
}

// Put /v1/checkout/coupons/:code
// Creates or replaces a coupon
func (api *CheckoutAPI) SaveCoupon(c *gin.Context) {
	var payload Coupon
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := checkoutmapper.ToCouponInput(c.Param("code"), checkoutmapper.Coupon{
		Rate:      payload.Rate,
		Active:    payload.Active,
		ExpiresAt: payload.ExpiresAt,
	})
	if err != nil {
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()))
		return
	}
	saved, err := api.service.SaveCoupon(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := checkoutmapper.FromDomainCoupon(saved)
	c.JSON(http.StatusOK, Coupon{Code: out.Code, Rate: out.Rate, Active: out.Active, ExpiresAt: out.ExpiresAt})
}

func fromQuote(q checkoutmapper.Quote) Quote {
	return Quote{
		Totals: Totals{
			Currency:       q.Totals.Currency,
			Subtotal:       q.Totals.Subtotal,
			DiscountAmount: q.Totals.DiscountAmount,
			TaxAmount:      q.Totals.TaxAmount,
			ShippingCost:   q.Totals.ShippingCost,
			Total:          q.Totals.Total,
			ItemCount:      q.Totals.ItemCount,
			UnitCount:      q.Totals.UnitCount,
		},
		Pricing:        fromPricingResult(q.Pricing),
		ShippingMethod: q.ShippingMethod,
		CouponCode:     q.CouponCode,
	}
}

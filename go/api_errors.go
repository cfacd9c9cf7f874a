package checkoutserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	checkoutapp "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/application"
	checkoutports "github.com/Apurer/go-gin-checkout-server/internal/domains/checkout/ports"
	inventoryapp "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/application"
	inventorydomain "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	inventoryports "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
	pricingapp "github.com/Apurer/go-gin-checkout-server/internal/domains/pricing/application"
	apierrors "github.com/Apurer/go-gin-checkout-server/internal/shared/errors"
	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

var serviceErrors = apierrors.NewChainedResponder("",
	mapInvalidInput,
	mapNotFound,
	mapStockConflicts,
)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	serviceErrors.Respond(c, problem)
}

func respondBindError(c *gin.Context, err error) {
	respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
}

func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	serviceErrors.RespondError(c, err)
}

func mapInvalidInput(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, pricingapp.ErrInvalidInput) ||
		errors.Is(err, inventoryapp.ErrInvalidInput) ||
		errors.Is(err, checkoutapp.ErrInvalidInput) ||
		errors.Is(err, money.ErrInvalidAmount) ||
		errors.Is(err, money.ErrInvalidQuantity) ||
		errors.Is(err, money.ErrCurrencyMismatch) {
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapNotFound(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, inventoryports.ErrProductNotFound),
		errors.Is(err, inventoryports.ErrReservationNotFound),
		errors.Is(err, checkoutports.ErrCouponNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapStockConflicts(err error) (apierrors.ProblemDetail, bool) {
	var shortage *inventorydomain.InsufficientStockError
	if errors.As(err, &shortage) {
		return apierrors.NewInsufficientStockProblem(shortage.ProductID, shortage.Requested, shortage.Available), true
	}
	var invalidState *inventorydomain.InvalidStateError
	if errors.As(err, &invalidState) {
		return apierrors.NewInvalidStateProblem("reservation", invalidState.ReservationID, string(invalidState.Status), invalidState.Action), true
	}
	if errors.Is(err, inventoryports.ErrProductExists) {
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

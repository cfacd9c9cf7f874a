package checkoutserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}

	return router
}

// DefaultHandleFunc answers routes whose handler is not wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

type ApiHandleFunctions struct {
	// Routes for the CheckoutAPI part of the API
	CheckoutAPI CheckoutAPI
	// Routes for the InventoryAPI part of the API
	InventoryAPI InventoryAPI
	// Routes for the PricingAPI part of the API
	PricingAPI PricingAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"QuoteOrder",
			http.MethodPost,
			"/v1/checkout/quote",
			handleFunctions.CheckoutAPI.QuoteOrder,
		},
		{
			"SaveCoupon",
			http.MethodPut,
			"/v1/checkout/coupons/:code",
			handleFunctions.CheckoutAPI.SaveCoupon,
		},
		{
			"UpsertProduct",
			http.MethodPut,
			"/v1/inventory/products/:productId",
			handleFunctions.InventoryAPI.UpsertProduct,
		},
		{
			"GetAvailability",
			http.MethodGet,
			"/v1/inventory/products/:productId",
			handleFunctions.InventoryAPI.GetAvailability,
		},
		{
			"ListLowStock",
			http.MethodGet,
			"/v1/inventory/low-stock",
			handleFunctions.InventoryAPI.ListLowStock,
		},
		{
			"ReserveStock",
			http.MethodPost,
			"/v1/inventory/reservations",
			handleFunctions.InventoryAPI.ReserveStock,
		},
		{
			"ExpireReservations",
			http.MethodPost,
			"/v1/inventory/reservations/expire",
			handleFunctions.InventoryAPI.ExpireReservations,
		},
		{
			"GetReservation",
			http.MethodGet,
			"/v1/inventory/reservations/:reservationId",
			handleFunctions.InventoryAPI.GetReservation,
		},
		{
			"ConfirmReservation",
			http.MethodPost,
			"/v1/inventory/reservations/:reservationId/confirm",
			handleFunctions.InventoryAPI.ConfirmReservation,
		},
		{
			"ReleaseReservation",
			http.MethodPost,
			"/v1/inventory/reservations/:reservationId/release",
			handleFunctions.InventoryAPI.ReleaseReservation,
		},
		{
			"EvaluatePricing",
			http.MethodPost,
			"/v1/pricing/evaluate",
			handleFunctions.PricingAPI.EvaluatePricing,
		},
	}
}

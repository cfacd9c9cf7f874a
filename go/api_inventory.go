package checkoutserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	inventorymapper "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/adapters/http/mapper"
	inventoryports "github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
	apierrors "github.com/Apurer/go-gin-checkout-server/internal/shared/errors"
)

const defaultLowStockLimit = 50

// InventoryAPI wires HTTP transport with the stock reservation ledger.
type InventoryAPI struct {
	ledger inventoryports.Ledger
	clock  func() time.Time
}

// NewInventoryAPI creates an InventoryAPI backed by the provided ledger.
func NewInventoryAPI(ledger inventoryports.Ledger) InventoryAPI {
	return InventoryAPI{ledger: ledger, clock: time.Now}
}

// Put /v1/inventory/products/:productId
// Creates a product or updates its catalog data and total stock
func (api *InventoryAPI) UpsertProduct(c *gin.Context) {
	productID, ok := bindProductID(c)
	if !ok {
		return
	}
	var payload ProductStock
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := inventorymapper.ToUpsertProductInput(productID, inventorymapper.ProductStock{
		Name:         payload.Name,
		UnitPrice:    payload.UnitPrice,
		Currency:     payload.Currency,
		TotalStock:   payload.TotalStock,
		ReorderPoint: payload.ReorderPoint,
		Categories:   payload.Categories,
	})
	if err != nil {
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()))
		return
	}
	saved, err := api.ledger.UpsertProduct(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromProduct(inventorymapper.FromProjection(saved)))
}

// Get /v1/inventory/products/:productId
// Returns total, reserved and available stock of a product
func (api *InventoryAPI) GetAvailability(c *gin.Context) {
	productID, ok := bindProductID(c)
	if !ok {
		return
	}
	availability, err := api.ledger.Availability(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromAvailability(inventorymapper.FromAvailability(*availability)))
}

// Get /v1/inventory/low-stock
// Lists products whose available stock is at or below their reorder point
func (api *InventoryAPI) ListLowStock(c *gin.Context) {
	limit := defaultLowStockLimit
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.Request.URL.Query(), &limit); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(fmt.Sprintf("invalid format for parameter limit: %s", err)))
		return
	}
	if limit <= 0 {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{"limit": "must be greater than zero"}))
		return
	}
	list, err := api.ledger.LowStock(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]Availability, 0, len(list))
	for _, a := range inventorymapper.FromAvailabilityList(list) {
		out = append(out, fromAvailability(a))
	}
	c.JSON(http.StatusOK, out)
}

// Post /v1/inventory/reservations
// Holds stock for a requester
func (api *InventoryAPI) ReserveStock(c *gin.Context) {
	var payload ReservationRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	input := inventorymapper.ToReserveInput(payload.ProductId, payload.Quantity, payload.RequesterId)
	reservation, err := api.ledger.Reserve(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromReservation(inventorymapper.FromDomainReservation(reservation)))
}

// Get /v1/inventory/reservations/:reservationId
// Find reservation by ID
func (api *InventoryAPI) GetReservation(c *gin.Context) {
	reservationID, ok := bindReservationID(c)
	if !ok {
		return
	}
	reservation, err := api.ledger.GetReservation(c.Request.Context(), reservationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromReservation(inventorymapper.FromDomainReservation(reservation)))
}

// Post /v1/inventory/reservations/:reservationId/confirm
// Converts an active reservation into a sale
func (api *InventoryAPI) ConfirmReservation(c *gin.Context) {
	reservationID, ok := bindReservationID(c)
	if !ok {
		return
	}
	reservation, err := api.ledger.Confirm(c.Request.Context(), reservationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromReservation(inventorymapper.FromDomainReservation(reservation)))
}

// Post /v1/inventory/reservations/:reservationId/release
// Cancels an active reservation. Releasing twice reports released=false
func (api *InventoryAPI) ReleaseReservation(c *gin.Context) {
	reservationID, ok := bindReservationID(c)
	if !ok {
		return
	}
	released, err := api.ledger.Release(c.Request.Context(), reservationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReleaseResult{Released: released})
}

// Post /v1/inventory/reservations/expire
// Runs one expiry sweep
func (api *InventoryAPI) ExpireReservations(c *gin.Context) {
	var payload ExpireRequest
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
			respondBindError(c, err)
			return
		}
	}
	now := api.clock()
	if payload.Now != nil {
		if payload.Now.After(now) {
			respondProblem(c, apierrors.ErrValidation.WithDetail(fmt.Sprintf("now %s is after the server clock", payload.Now.Format(time.RFC3339))))
			return
		}
		now = *payload.Now
	}
	report, err := api.ledger.ExpireStaleReservations(c.Request.Context(), now)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	r := inventorymapper.FromExpiryReport(report)
	c.JSON(http.StatusOK, ExpiryReport{Scanned: r.Scanned, Expired: r.Expired, Skipped: r.Skipped, Failed: r.Failed, Products: r.Products})
}

func bindProductID(c *gin.Context) (int64, bool) {
	var productID int64
	err := runtime.BindStyledParameterWithOptions("simple", "productId", c.Param("productId"), &productID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(fmt.Sprintf("invalid format for parameter productId: %s", err)))
		return 0, false
	}
	return productID, true
}

func bindReservationID(c *gin.Context) (string, bool) {
	var reservationID string
	err := runtime.BindStyledParameterWithOptions("simple", "reservationId", c.Param("reservationId"), &reservationID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(fmt.Sprintf("invalid format for parameter reservationId: %s", err)))
		return "", false
	}
	return reservationID, true
}

func fromProduct(p inventorymapper.Product) Product {
	return Product{
		Id:           p.ID,
		Name:         p.Name,
		UnitPrice:    p.UnitPrice,
		Currency:     p.Currency,
		Categories:   p.Categories,
		TotalStock:   p.TotalStock,
		Reserved:     p.Reserved,
		Available:    p.Available,
		ReorderPoint: p.ReorderPoint,
		NeedsReorder: p.NeedsReorder,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromReservation(r inventorymapper.Reservation) Reservation {
	return Reservation{
		Id:          r.ID,
		ProductId:   r.ProductID,
		Quantity:    r.Quantity,
		RequesterId: r.RequesterID,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
	}
}

func fromAvailability(a inventorymapper.Availability) Availability {
	return Availability{
		ProductId:    a.ProductID,
		Total:        a.Total,
		Reserved:     a.Reserved,
		Available:    a.Available,
		ReorderPoint: a.ReorderPoint,
		NeedsReorder: a.NeedsReorder,
	}
}

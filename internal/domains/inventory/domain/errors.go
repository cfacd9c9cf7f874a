package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidProductID        = errors.New("product id must be greater than zero")
	ErrInvalidQuantity         = errors.New("quantity must be greater than zero")
	ErrInvalidStockLevels      = errors.New("stock levels are invalid")
	ErrInvalidRequester        = errors.New("requester id is required")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInvalidReservationState = errors.New("reservation is not active")
)

// InsufficientStockError reports how much was asked for and how much could be served.
type InsufficientStockError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// Is lets errors.Is match the ErrInsufficientStock sentinel.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidStateError carries the state a transition was attempted from.
type InvalidStateError struct {
	ReservationID string
	Status        Status
	Action        string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s reservation %s in state %s", e.Action, e.ReservationID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidReservationState
}

package domain

import (
	"strings"
	"time"

	"github.com/Apurer/go-gin-checkout-server/internal/shared/money"
)

// Status is the lifecycle state of a reservation. Only ACTIVE can transition.
type Status string

const (
	StatusActive    Status = "active"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Reservation holds stock for a requester until it is confirmed, released or expires.
type Reservation struct {
	ID          string
	ProductID   int64
	Quantity    money.Quantity
	RequesterID string
	Status      Status
	CreatedAt   time.Time
	ExpiresAt   *time.Time
	UpdatedAt   time.Time
}

// NewReservation builds an ACTIVE reservation. A zero ttl means it never expires.
func NewReservation(id string, productID int64, quantity money.Quantity, requesterID string, now time.Time, ttl time.Duration) (*Reservation, error) {
	if productID <= 0 {
		return nil, ErrInvalidProductID
	}
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return nil, ErrInvalidRequester
	}
	r := &Reservation{
		ID:          id,
		ProductID:   productID,
		Quantity:    quantity,
		RequesterID: requesterID,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		r.ExpiresAt = &expiresAt
	}
	return r, nil
}

func (r *Reservation) IsActive() bool { return r.Status == StatusActive }

// IsExpired reports whether an ACTIVE reservation has passed its expiry at now.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.IsActive() && r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// Confirm moves ACTIVE to CONFIRMED.
func (r *Reservation) Confirm(now time.Time) error {
	return r.transition(StatusConfirmed, "confirm", now)
}

// Cancel moves ACTIVE to CANCELLED.
func (r *Reservation) Cancel(now time.Time) error {
	return r.transition(StatusCancelled, "cancel", now)
}

func (r *Reservation) transition(to Status, action string, now time.Time) error {
	if !r.IsActive() {
		return &InvalidStateError{ReservationID: r.ID, Status: r.Status, Action: action}
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}

// Clone returns a deep copy.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	clone := *r
	if r.ExpiresAt != nil {
		expiresAt := *r.ExpiresAt
		clone.ExpiresAt = &expiresAt
	}
	return &clone
}

// IsValidStatus reports whether status is a known lifecycle state.
func IsValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusConfirmed, StatusCancelled:
		return true
	default:
		return false
	}
}

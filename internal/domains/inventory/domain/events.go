package domain

import "time"

// EventType identifies a reservation lifecycle event on the wire.
type EventType string

const (
	EventReservationCreated   EventType = "inventory.reservation.created"
	EventReservationConfirmed EventType = "inventory.reservation.confirmed"
	EventReservationReleased  EventType = "inventory.reservation.released"
	EventReservationExpired   EventType = "inventory.reservation.expired"
)

// ReservationEvent is raised after a ledger mutation has been committed.
type ReservationEvent struct {
	Type          EventType
	ReservationID string
	ProductID     int64
	Quantity      int64
	RequesterID   string
	// Available is the product's available stock right after the change.
	Available  int64
	OccurredAt time.Time
}

// EventName returns the event type identifier.
func (e ReservationEvent) EventName() string {
	return string(e.Type)
}

// NewReservationEvent snapshots a reservation and its product into an event.
func NewReservationEvent(eventType EventType, reservation *Reservation, product *Product, at time.Time) ReservationEvent {
	evt := ReservationEvent{
		Type:          eventType,
		ReservationID: reservation.ID,
		ProductID:     reservation.ProductID,
		Quantity:      int64(reservation.Quantity),
		RequesterID:   reservation.RequesterID,
		OccurredAt:    at,
	}
	if product != nil {
		evt.Available = int64(product.Available())
	}
	return evt
}

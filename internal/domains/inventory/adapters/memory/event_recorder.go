package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
)

var _ ports.EventPublisher = (*EventRecorder)(nil)

// EventRecorder keeps published reservation events in memory, newest last.
type EventRecorder struct {
	mu     sync.Mutex
	events []domain.ReservationEvent
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (r *EventRecorder) Publish(_ context.Context, events ...domain.ReservationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *EventRecorder) Events() []domain.ReservationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ReservationEvent(nil), r.events...)
}

// Types returns the recorded event types in publish order.
func (r *EventRecorder) Types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]domain.EventType, 0, len(r.events))
	for _, evt := range r.events {
		types = append(types, evt.Type)
	}
	return types
}

package ports

import (
	"context"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
)

// EventPublisher ships committed reservation events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.ReservationEvent) error
}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(context.Context, ...domain.ReservationEvent) error { return nil }

// NoopEventPublisher discards events. It is the ledger default when nothing is wired.
var NoopEventPublisher EventPublisher = noopEventPublisher{}

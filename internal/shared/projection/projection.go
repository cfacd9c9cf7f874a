// Package projection pairs a domain value with the persistence timestamps adapters track for it.
package projection

import "time"

// Metadata captures persistence timestamps.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Projection is a read view of an entity as stored.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New wraps entity with its timestamps.
func New[T any](entity T, createdAt, updatedAt time.Time) *Projection[T] {
	return &Projection[T]{
		Entity:   entity,
		Metadata: Metadata{CreatedAt: createdAt, UpdatedAt: updatedAt},
	}
}

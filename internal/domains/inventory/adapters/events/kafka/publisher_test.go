package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestPublisher_EncodesEnvelope(t *testing.T) {
	writer := &captureWriter{}
	pub, err := NewPublisher(nil, "", WithWriter(writer), WithProducer("test"), WithIDGenerator(func() string { return "evt-1" }))
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	err = pub.Publish(context.Background(), domain.ReservationEvent{
		Type:          domain.EventReservationExpired,
		ReservationID: "res-9",
		ProductID:     42,
		Quantity:      3,
		RequesterID:   "cart-7",
		Available:     11,
		OccurredAt:    at,
	})
	require.NoError(t, err)
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "inventory.reservation.expired", string(msg.Headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "evt-1", env.EventID)
	assert.Equal(t, "inventory.reservation.expired", env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "test", env.Producer)
	assert.Equal(t, "res-9", env.CorrelationID)
	assert.True(t, env.OccurredAt.Equal(at))

	var payload ReservationPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, ReservationPayload{ReservationID: "res-9", ProductID: 42, Quantity: 3, RequesterID: "cart-7", Available: 11}, payload)
}

func TestPublisher_WrapsWriterErrors(t *testing.T) {
	boom := errors.New("leader not available")
	pub, err := NewPublisher(nil, "", WithWriter(&captureWriter{err: boom}))
	require.NoError(t, err)

	err = pub.Publish(context.Background(), domain.ReservationEvent{Type: domain.EventReservationCreated, ProductID: 1})
	require.ErrorIs(t, err, boom)

	require.NoError(t, pub.Publish(context.Background()))
}

func TestNewPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewPublisher(nil, "reservations")
	require.Error(t, err)
}

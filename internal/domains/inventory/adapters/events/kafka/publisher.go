package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"

	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-checkout-server/internal/domains/inventory/ports"
)

const (
	// DefaultTopic carries every reservation lifecycle event.
	DefaultTopic = "inventory.reservations"
	// DefaultProducer identifies this service in the envelope.
	DefaultProducer = "checkout-api"

	envelopeVersion = 1
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Envelope is the wire shape of every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// ReservationPayload is the payload of inventory.reservation.* events.
type ReservationPayload struct {
	ReservationID string `json:"reservation_id"`
	ProductID     int64  `json:"product_id"`
	Quantity      int64  `json:"quantity"`
	RequesterID   string `json:"requester_id"`
	Available     int64  `json:"available"`
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes reservation events to Kafka keyed by product id, so events for one product
// land on one partition in order.
type Publisher struct {
	writer   MessageWriter
	producer string
	newID    func() string
}

// Option configures the publisher.
type Option func(*Publisher)

// WithProducer names the service stamped on every envelope.
func WithProducer(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.producer = name
		}
	}
}

// WithWriter replaces the kafka-go writer, mainly for tests.
func WithWriter(w MessageWriter) Option {
	return func(p *Publisher) {
		if w != nil {
			p.writer = w
		}
	}
}

// WithIDGenerator replaces the UUID event id generator.
func WithIDGenerator(newID func() string) Option {
	return func(p *Publisher) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// NewPublisher builds a synchronous writer that waits for all in-sync replicas.
func NewPublisher(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	p := &Publisher{producer: DefaultProducer, newID: uuid.NewString}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.writer == nil {
		if len(brokers) == 0 {
			return nil, errors.New("kafka brokers are required")
		}
		p.writer = &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
	}
	return p, nil
}

// Publish encodes and writes events in a single batch.
func (p *Publisher) Publish(ctx context.Context, events ...domain.ReservationEvent) error {
	if len(events) == 0 {
		return nil
	}
	traceID := ""
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		msg, err := p.encode(evt, traceID)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d reservation events: %w", len(msgs), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) encode(evt domain.ReservationEvent, traceID string) (kafka.Message, error) {
	payload, err := json.Marshal(ReservationPayload{
		ReservationID: evt.ReservationID,
		ProductID:     evt.ProductID,
		Quantity:      evt.Quantity,
		RequesterID:   evt.RequesterID,
		Available:     evt.Available,
	})
	if err != nil {
		return kafka.Message{}, err
	}
	value, err := json.Marshal(Envelope{
		EventID:       p.newID(),
		EventType:     evt.EventName(),
		EventVersion:  envelopeVersion,
		OccurredAt:    evt.OccurredAt.UTC(),
		Producer:      p.producer,
		TraceID:       traceID,
		CorrelationID: evt.ReservationID,
		Payload:       payload,
	})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.ProductID, 10)),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventName())},
		},
	}, nil
}

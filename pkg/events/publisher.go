// Package events publishes order lifecycle events to Kafka. Publishing is
// best effort and happens after the owning transaction commits.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/urbancart/urbancart-backend/pkg/config"
)

const (
	writeTimeout = 5 * time.Second
	// Publish blocks on every write; keep well under kafka-go's 1s default.
	batchTimeout = 10 * time.Millisecond
)

type Type string

const (
	TypeOrderPlaced        Type = "order.placed"
	TypeOrderStatusChanged Type = "order.status_changed"
)

// Envelope is the message value written to the topic.
type Envelope struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type OrderPlaced struct {
	OrderID       string `json:"order_id"`
	UserID        string `json:"user_id"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	TotalAmount   string `json:"total_amount"`
	ItemCount     int    `json:"item_count"`
}

type OrderStatusChanged struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// Publisher emits events keyed by order id.
type Publisher interface {
	Publish(ctx context.Context, key string, eventType Type, payload any) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// New returns a Kafka publisher when enabled, otherwise a Noop.
func New(cfg config.KafkaConfig) (Publisher, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required when kafka is enabled")
	}
	if cfg.OrderTopic == "" {
		return nil, errors.New("kafka order topic is required")
	}
	return &KafkaPublisher{writer: newWriter(cfg), now: time.Now}, nil
}

func newWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrderTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    1,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, eventType Type, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	value, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: p.now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", eventType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(eventType)}},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, Type, any) error { return nil }
func (Noop) Close() error                                     { return nil }

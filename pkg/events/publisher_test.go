package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbancart/urbancart-backend/pkg/config"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected deadline")
	}
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisherWritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &KafkaPublisher{writer: w, now: func() time.Time { return fixed }}

	err := p.Publish(context.Background(), "UCABCDEF1234", TypeOrderPlaced, OrderPlaced{OrderID: "UCABCDEF1234", PaymentMethod: "Razorpay"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "UCABCDEF1234", string(msg.Key))
	assert.Equal(t, "order.placed", string(msg.Headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, TypeOrderPlaced, env.Type)
	assert.True(t, env.OccurredAt.Equal(fixed))
	assert.NotEmpty(t, env.ID)

	var data OrderPlaced
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Razorpay", data.PaymentMethod)
}

func TestNewPublisher(t *testing.T) {
	p, err := New(config.KafkaConfig{})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)
	assert.NoError(t, p.Publish(context.Background(), "k", TypeOrderPlaced, nil))

	_, err = New(config.KafkaConfig{Enabled: true})
	assert.Error(t, err)

	p, err = New(config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, OrderTopic: "urbancart.orders"})
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}

func TestNewWriterFlushesPerMessage(t *testing.T) {
	w := newWriter(config.KafkaConfig{Brokers: []string{"localhost:9092"}, OrderTopic: "urbancart.orders"})
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "urbancart.orders", w.Topic)
	assert.Equal(t, 1, w.BatchSize)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
}

package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaProducer_PublishMessage(t *testing.T) {
	// Arrange
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w, topic: "shop_events"}

	// Act
	err := p.PublishMessage(context.Background(), "order-1", []byte(`{"event_type":"ORDER_CREATED"}`))

	// Assert
	require.NoError(t, err)
	require.Len(t, w.messages, 1)
	assert.Equal(t, "order-1", string(w.messages[0].Key))
	assert.False(t, w.messages[0].Time.IsZero())
}

func TestKafkaProducer_PublishMessage_Error(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := &KafkaProducer{writer: w, topic: "shop_events"}

	err := p.PublishMessage(context.Background(), "k", nil)

	assert.ErrorContains(t, err, "failed to write message to kafka")
}

func TestKafkaProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher

	assert.NoError(t, p.PublishMessage(context.Background(), "k", []byte("v")))
	assert.NoError(t, p.Close())
}

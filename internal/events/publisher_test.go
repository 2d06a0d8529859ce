package events

import (
	"context"
	"testing"

	"rentawheel/pkg/client"
	"rentawheel/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Key(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"booking wins", Event{BookingID: 41, CarID: 7, SessionID: "s"}, "booking-41"},
		{"car", Event{CarID: 7, SessionID: "s"}, "car-7"},
		{"session", Event{SessionID: "abc"}, "session-abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Key())
		})
	}
}

func TestKafkaPublisher_BuildsMessage(t *testing.T) {
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:     []string{"localhost:9092"},
		Topic:       "rental.checkout.events",
		MaxAttempts: 1,
	}, nil)
	require.NoError(t, err)

	var captured kafka.Message
	producer.Use(func(ctx context.Context, msg kafka.Message, next func(context.Context, kafka.Message) error) error {
		captured = msg
		return nil
	})

	pub := NewKafkaPublisher(producer)
	defer pub.Close()

	ctx := client.WithRequestID(context.Background(), "req-1")
	err = pub.Publish(ctx, Event{Type: BookingCreated, SessionID: "sess-1", BookingID: 41, Amount: 180})
	require.NoError(t, err)

	assert.Equal(t, "booking-41", captured.Key)
	assert.Equal(t, string(BookingCreated), captured.GetEventType())
	assert.Equal(t, "req-1", captured.GetCorrelationID())
	assert.Equal(t, "sess-1", captured.Headers[kafka.HeaderSessionID])
	assert.Equal(t, Source, captured.Headers[kafka.HeaderSource])
	assert.NotEmpty(t, captured.GetEventID())

	var decoded Event
	require.NoError(t, captured.DecodeValue(&decoded))
	assert.Equal(t, int64(41), decoded.BookingID)
	assert.Equal(t, 180.0, decoded.Amount.Float())
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: BookingUpdated}))
	assert.NoError(t, p.Close())
}

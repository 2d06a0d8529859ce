// Package events publishes checkout and booking lifecycle events. Publishing
// is best effort: callers log failures and carry on.
package events

import (
	"context"
	"strconv"
	"time"

	"rentawheel/pkg/client"
	"rentawheel/pkg/kafka"
	"rentawheel/pkg/model"
)

const Source = "rentawheel-console"

type Type string

const (
	BookingCreated    Type = "booking_created"
	PaymentSubmitted  Type = "payment_submitted"
	BookingUpdated    Type = "booking_updated"
	BookingCancelled  Type = "booking_cancelled"
	MaintenanceLogged Type = "maintenance_logged"
)

// Event is the JSON payload written to the topic.
type Event struct {
	Type       Type          `json:"type"`
	SessionID  string        `json:"session_id,omitempty"`
	CustomerID int64         `json:"cust_id,omitempty"`
	EmployeeID int64         `json:"emp_id,omitempty"`
	BookingID  int64         `json:"booking_id,omitempty"`
	CarID      int64         `json:"car_id,omitempty"`
	PaymentID  int64         `json:"payment_id,omitempty"`
	Amount     model.Decimal `json:"amount,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Key partitions events so that everything about one booking stays ordered.
func (e Event) Key() string {
	switch {
	case e.BookingID != 0:
		return "booking-" + strconv.FormatInt(e.BookingID, 10)
	case e.CarID != 0:
		return "car-" + strconv.FormatInt(e.CarID, 10)
	default:
		return "session-" + e.SessionID
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	msg := kafka.NewMessage().
		WithKey(event.Key()).
		WithValue(event).
		WithEventType(string(event.Type)).
		WithHeader(kafka.HeaderSessionID, event.SessionID).
		WithCorrelationID(client.RequestIDFromContext(ctx)).
		WithSource(Source).
		WithTimestamp(event.OccurredAt).
		Build()
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, "rental.checkout")

	msg := NewMessage().
		WithKey("41").
		WithEventType("booking_created").
		WithValue(map[string]any{"booking_id": 41}).
		Build()

	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(w.messages) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.messages))
	}
	got := w.messages[0]
	if string(got.Key) != "41" || string(got.Value) != `{"booking_id":41}` {
		t.Errorf("message = %s / %s", got.Key, got.Value)
	}
	if header(got, HeaderEventType) != "booking_created" || header(got, HeaderEventID) == "" {
		t.Errorf("headers = %v", got.Headers)
	}
}

func TestProducer_RejectsInvalid(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, "t")

	if err := p.Publish(context.Background(), NewMessage().WithValue("x").Build()); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("missing key: got %v", err)
	}
	if err := p.Publish(context.Background(), NewMessage().WithKey("1").WithValue(make(chan int)).Build()); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("unencodable value: got %v", err)
	}
}

func TestProducer_MiddlewareOrder(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, "t")
	var order []string
	for _, name := range []string{"outer", "inner"} {
		name := name
		p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	if err := p.Publish(context.Background(), NewMessage().WithKey("1").WithValue(1).Build()); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("order = %v", order)
	}
}

func TestProducer_FailureGoesToDLQ(t *testing.T) {
	writeErr := errors.New("leader not available")
	main := &fakeWriter{err: writeErr}
	dlq := &fakeWriter{}
	p := newProducer(main, dlq, "rental.checkout")

	msg := NewMessage().WithKey("7").WithValue(1).Build()
	err := p.Publish(context.Background(), msg)
	if !errors.Is(err, writeErr) {
		t.Fatalf("Publish() error = %v, want %v", err, writeErr)
	}
	if len(dlq.messages) != 1 {
		t.Fatalf("dlq got %d messages", len(dlq.messages))
	}
	if header(dlq.messages[0], HeaderOriginalTopic) != "rental.checkout" {
		t.Errorf("original topic header missing: %v", dlq.messages[0].Headers)
	}
	if _, ok := msg.Headers[HeaderDLQError]; ok {
		t.Error("DLQ headers must not leak into the caller's message")
	}
}

func TestProducer_Closed(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, "t")
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !w.closed {
		t.Error("writer not closed")
	}
	if err := p.Publish(context.Background(), NewMessage().WithKey("1").WithValue(1).Build()); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("publish after close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

package kafka_middleware

import (
	"context"
	"time"

	"rentawheel/pkg/kafka"
	"rentawheel/pkg/logger"
)

// LoggingProducerMiddleware logs every publish with its outcome and duration.
func LoggingProducerMiddleware(log *logger.Logger, topic string) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		attrs := []any{
			"topic", topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration", time.Since(start),
		}
		if err != nil {
			log.ErrorContext(ctx, "Failed to publish message", append(attrs, "error", err)...)
		} else {
			log.DebugContext(ctx, "Published message", attrs...)
		}

		return err
	}
}

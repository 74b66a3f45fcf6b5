package kafka_middleware

import (
	"context"
	"log/slog"
	"time"

	"cyclecount/pkg/kafka"
	"cyclecount/pkg/logger"
)

// LoggingProducerMiddleware logs message publishing operations
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		log.Debug("kafka producer: publishing message",
			slog.String("topic", msg.Topic),
			slog.String("key", string(msg.Key)),
			slog.String("event_id", msg.GetEventID()),
			slog.String("event_type", msg.GetEventType()),
		)

		err := next(ctx, msg)

		duration := time.Since(start)

		if err != nil {
			log.Error("kafka producer: publish failed",
				slog.String("topic", msg.Topic),
				slog.String("key", string(msg.Key)),
				slog.String("event_id", msg.GetEventID()),
				slog.Duration("duration", duration),
				slog.Any("error", err),
			)
		} else {
			log.Info("kafka producer: published message",
				slog.String("topic", msg.Topic),
				slog.String("key", string(msg.Key)),
				slog.String("event_id", msg.GetEventID()),
				slog.Duration("duration", duration),
			)
		}

		return err
	}
}

// LoggingConsumerMiddleware logs message consumption operations
func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()

		log.Debug("kafka consumer: processing message",
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.String("event_id", msg.GetEventID()),
			slog.String("event_type", msg.GetEventType()),
		)

		err := next(ctx, msg)

		duration := time.Since(start)

		if err != nil {
			log.Error("kafka consumer: processing failed",
				slog.String("topic", msg.Topic),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.String("event_id", msg.GetEventID()),
				slog.Duration("duration", duration),
				slog.Any("error", err),
			)
		} else {
			log.Info("kafka consumer: processed message",
				slog.String("topic", msg.Topic),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.String("event_id", msg.GetEventID()),
				slog.Duration("duration", duration),
			)
		}

		return err
	}
}

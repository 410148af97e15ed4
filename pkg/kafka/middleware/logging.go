package kafka_middleware

import (
	"agendabot/pkg/kafka"
	"agendabot/pkg/logger"
	"context"
	"time"
)

func recordAttrs(msg kafka.Message, start time.Time) []any {
	return []any{
		"topic", msg.Topic,
		"key", msg.Key,
		"event_id", msg.GetEventID(),
		"event_type", msg.GetEventType(),
		"tenant_id", msg.GetTenantID(),
		"conversation_id", msg.GetConversationID(),
		"duration", time.Since(start),
	}
}

// LoggingProducerMiddleware logs every publish; failures at error level.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		if err != nil {
			log.Error("Failed to publish kafka message", append(recordAttrs(msg, start), "error", err)...)
		} else {
			log.Debug("Published kafka message", recordAttrs(msg, start)...)
		}
		return err
	}
}

// LoggingConsumerMiddleware logs every handler run. A failure is only a
// warning here; the consumer decides whether it is retried or dead-lettered.
func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := append(recordAttrs(msg, start),
			"partition", msg.Partition,
			"offset", msg.Offset,
			"retry_count", msg.GetRetryCount(),
		)
		if err != nil {
			log.Warn("Failed to process kafka message", append(attrs, "error", err, "error_type", kafka.ClassifyError(err).String())...)
		} else {
			log.Debug("Processed kafka message", attrs...)
		}
		return err
	}
}

package kafka_middleware

import (
	"agendabot/pkg/kafka"
	"agendabot/pkg/metrics"
	"context"
	"time"
)

// MetricsProducerMiddleware records publish outcome and latency.
func MetricsProducerMiddleware(m *metrics.Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.ObservePublish(msg.Topic, time.Since(start).Seconds(), err)
		return err
	}
}

// MetricsConsumerMiddleware records handler outcome and latency.
func MetricsConsumerMiddleware(m *metrics.Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.ObserveConsume(msg.Topic, time.Since(start).Seconds(), err)
		return err
	}
}

package kafka

import (
	"agendabot/pkg/kafka/config"
	"agendabot/pkg/logger"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Writer is the subset of *kafka.Writer the producer depends on.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProducerMiddleware wraps every Publish. Middlewares run in the order they were added.
type ProducerMiddleware func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error

// Producer publishes to one topic. Records that cannot be written are parked
// on the dead letter topic when one is configured.
type Producer struct {
	writer     Writer
	dlqWriter  Writer
	topic      string
	dlqTopic   string
	middleware []ProducerMiddleware
	log        *logger.Logger
	closed     bool
	mu         sync.RWMutex
}

var compressionCodecs = map[string]kafka.Compression{
	"none":   0,
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

var requiredAcks = map[int]kafka.RequiredAcks{
	-1: kafka.RequireAll,
	0:  kafka.RequireNone,
	1:  kafka.RequireOne,
}

func NewProducer(cfg *kafka_config.Config, log *logger.Logger, topic string, dlqTopic string) (*Producer, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic cannot be empty")
	}

	producer := NewProducerWithWriter(newWriter(cfg, topic, log), log, topic)
	if dlqTopic != "" {
		producer.dlqTopic = dlqTopic
		producer.dlqWriter = newDeadLetterWriter(cfg, dlqTopic, log)
	}
	return producer, nil
}

// NewProducerWithWriter builds a producer around an existing writer, without a DLQ.
func NewProducerWithWriter(w Writer, log *logger.Logger, topic string) *Producer {
	return &Producer{
		writer: w,
		topic:  topic,
		log:    log.With("topic", topic),
	}
}

func newWriter(cfg *kafka_config.Config, topic string, log *logger.Logger) *kafka.Writer {
	acks, ok := requiredAcks[cfg.Producer.RequireAcks]
	if !ok {
		acks = kafka.RequireAll
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: acks,
		Compression:  compressionCodecs[cfg.Producer.Compression],
		MaxAttempts:  cfg.Producer.MaxAttempts,
		BatchTimeout: cfg.Producer.BatchTimeout,
		Async:        cfg.Producer.Async,
		Transport:    &kafka.Transport{ClientID: cfg.ClientID},
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:  errorLogger(log),
	}
}

// newDeadLetterWriter is always synchronous and waits for every replica.
func newDeadLetterWriter(cfg *kafka_config.Config, topic string, log *logger.Logger) *kafka.Writer {
	w := newWriter(cfg, topic, log)
	w.RequiredAcks = kafka.RequireAll
	w.Async = false
	return w
}

func (p *Producer) Use(middleware ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, middleware)
}

func (p *Producer) Topic() string {
	return p.topic
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	closed := p.closed
	chain := p.chainLocked()
	p.mu.RUnlock()

	if closed {
		return ErrProducerClosed
	}
	if msg.Key == "" {
		return ErrEmptyKey
	}
	if len(msg.Value) == 0 {
		return ErrEmptyValue
	}

	msg.Topic = p.topic
	if msg.Headers == nil {
		msg.Headers = make(map[string]string)
	}
	return chain(ctx, msg)
}

func (p *Producer) chainLocked() func(context.Context, Message) error {
	handler := p.write
	for i := len(p.middleware) - 1; i >= 0; i-- {
		middleware, next := p.middleware[i], handler
		handler = func(ctx context.Context, m Message) error {
			return middleware(ctx, m, next)
		}
	}
	return handler
}

func (p *Producer) write(ctx context.Context, msg Message) error {
	err := p.writer.WriteMessages(ctx, toKafkaMessage(msg))
	if err == nil || p.dlqWriter == nil {
		return err
	}

	if dlqErr := p.dlqWriter.WriteMessages(ctx, toKafkaMessage(deadLetter(msg, p.topic, "", err))); dlqErr != nil {
		return fmt.Errorf("failed to send to DLQ: %v (original error: %w)", dlqErr, err)
	}
	p.log.Warn("Message routed to producer DLQ", "dlq_topic", p.dlqTopic, "key", msg.Key, "error", err)
	return err
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.writer != nil {
		errs = append(errs, p.writer.Close())
	}
	if p.dlqWriter != nil {
		errs = append(errs, p.dlqWriter.Close())
	}
	return errors.Join(errs...)
}

func toKafkaMessage(msg Message) kafka.Message {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	out := kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Time:    ts,
		Headers: make([]kafka.Header, 0, len(msg.Headers)),
	}
	for k, v := range msg.Headers {
		out.Headers = append(out.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

func errorLogger(log *logger.Logger) kafka.Logger {
	return kafka.LoggerFunc(func(msg string, args ...any) {
		log.Error(fmt.Sprintf(msg, args...), "component", "kafka-go")
	})
}

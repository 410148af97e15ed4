package kafka

import (
	"agendabot/pkg/kafka/config"
	"agendabot/pkg/logger"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader is the subset of *kafka.Reader the consumer depends on.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

const (
	fetchBackoff    = time.Second
	maxRetryBackoff = 30 * time.Second
)

// Consumer processes one topic for a consumer group, one record at a time,
// so records sharing a key are handled in publish order.
type Consumer struct {
	reader       Reader
	dlqWriter    Writer
	topic        string
	groupID      string
	dlqTopic     string
	maxRetries   int
	retryBackoff time.Duration
	handler      MessageHandler
	middleware   []ConsumerMiddleware
	log          *logger.Logger
	closed       bool
	mu           sync.RWMutex
	wg           sync.WaitGroup
}

func NewConsumer(cfg *kafka_config.Config, log *logger.Logger, topic string, groupID string, dlqTopic string, handler MessageHandler) (*Consumer, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("config cannot be nil")
	case len(cfg.Brokers) == 0:
		return nil, errors.New("at least one broker is required")
	case topic == "":
		return nil, errors.New("topic cannot be empty")
	case groupID == "":
		return nil, errors.New("group ID cannot be empty")
	case handler == nil:
		return nil, errors.New("message handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             topic,
		GroupID:           groupID,
		Dialer:            &kafka.Dialer{ClientID: cfg.ClientID, Timeout: 10 * time.Second, DualStack: true},
		MinBytes:          cfg.Consumer.MinBytes,
		MaxBytes:          cfg.Consumer.MaxBytes,
		MaxWait:           cfg.Consumer.MaxWait,
		CommitInterval:    cfg.Consumer.CommitInterval,
		HeartbeatInterval: cfg.Consumer.HeartbeatInterval,
		SessionTimeout:    cfg.Consumer.SessionTimeout,
		RebalanceTimeout:  cfg.Consumer.RebalanceTimeout,
		StartOffset:       cfg.Consumer.StartOffset,
		Logger:            kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:       errorLogger(log),
	})

	consumer := NewConsumerWithReader(reader, log, topic, groupID, cfg.Consumer.MaxRetries, handler)
	consumer.retryBackoff = cfg.Consumer.RetryBackoff
	if dlqTopic != "" {
		consumer.dlqTopic = dlqTopic
		consumer.dlqWriter = newDeadLetterWriter(cfg, dlqTopic, log)
	}
	return consumer, nil
}

// NewConsumerWithReader builds a consumer around an existing reader, without
// a DLQ and with immediate retries.
func NewConsumerWithReader(reader Reader, log *logger.Logger, topic, groupID string, maxRetries int, handler MessageHandler) *Consumer {
	return &Consumer{
		reader:     reader,
		topic:      topic,
		groupID:    groupID,
		maxRetries: maxRetries,
		handler:    handler,
		log:        log.With("topic", topic, "group_id", groupID),
	}
}

func (c *Consumer) Use(middleware ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, middleware)
}

// Start consumes until ctx is cancelled. A record's offset is committed once
// the handler succeeded or gave up on it; a record interrupted by shutdown is
// left uncommitted and redelivered to the next member of the group.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.wg.Add(1)
	c.mu.RUnlock()
	defer c.wg.Done()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.log.Error("Failed to fetch kafka message", "error", err)
			if err := sleep(ctx, fetchBackoff); err != nil {
				return err
			}
			continue
		}

		msg := c.convertMessage(record)
		if err := c.processMessage(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("Failed to process kafka message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", msg.Key,
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, record); err != nil {
			c.log.Error("Failed to commit kafka offset", "offset", record.Offset, "error", err)
		}
	}
}

func (c *Consumer) chain() MessageHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	handler := c.handler
	for i := len(c.middleware) - 1; i >= 0; i-- {
		middleware, next := c.middleware[i], handler
		handler = func(ctx context.Context, m Message) error {
			return middleware(ctx, m, next)
		}
	}
	return handler
}

// processMessage retries transient failures with exponential backoff, then
// parks the record on the DLQ.
func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	handler := c.chain()

	for {
		err := handler(ctx, msg)
		if err == nil {
			return nil
		}

		retries := msg.GetRetryCount()
		if ShouldRetry(err, retries, c.maxRetries) {
			wait := c.backoff(retries)
			c.log.Warn("Retrying kafka message",
				"attempt", retries+1,
				"max_retries", c.maxRetries,
				"backoff", wait,
				"error", err,
			)
			if sleepErr := sleep(ctx, wait); sleepErr != nil {
				return sleepErr
			}
			msg.IncrementRetryCount()
			continue
		}

		c.deadLetter(ctx, msg, err)
		return err
	}
}

func (c *Consumer) backoff(retries int) time.Duration {
	if c.retryBackoff <= 0 {
		return 0
	}
	wait := c.retryBackoff << retries
	if wait <= 0 || wait > maxRetryBackoff {
		return maxRetryBackoff
	}
	return wait
}

func (c *Consumer) deadLetter(ctx context.Context, msg Message, cause error) {
	if c.dlqWriter == nil {
		return
	}
	parked := deadLetter(msg, c.topic, c.groupID, cause)
	if err := c.dlqWriter.WriteMessages(ctx, toKafkaMessage(parked)); err != nil {
		c.log.Error("Failed to send message to DLQ", "dlq_topic", c.dlqTopic, "error", err, "original_error", cause)
		return
	}
	c.log.Warn("Message sent to DLQ", "dlq_topic", c.dlqTopic, "retries", msg.GetRetryCount(), "error", cause)
}

func (c *Consumer) convertMessage(record kafka.Message) Message {
	msg := Message{
		Key:       string(record.Key),
		Value:     record.Value,
		Headers:   make(map[string]string, len(record.Headers)),
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
		Timestamp: record.Time,
	}
	if msg.Topic == "" {
		msg.Topic = c.topic
	}
	for _, header := range record.Headers {
		msg.Headers[header.Key] = string(header.Value)
	}
	return msg
}

// Close waits for Start to return, then releases the reader and DLQ writer.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()

	var errs []error
	if c.reader != nil {
		errs = append(errs, c.reader.Close())
	}
	if c.dlqWriter != nil {
		errs = append(errs, c.dlqWriter.Close())
	}
	return errors.Join(errs...)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

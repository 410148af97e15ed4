package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Message is the transport-neutral view of a Kafka record.
type Message struct {
	Key       string // partition key; records sharing a key keep their order
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int   // set on consume
	Offset    int64 // set on consume
	Timestamp time.Time
}

const (
	HeaderEventID        = "event-id"
	HeaderEventType      = "event-type"
	HeaderConversationID = "conversation-id"
	HeaderTenantID       = "tenant-id"
	HeaderSchemaVersion  = "schema-version"
	HeaderSource         = "source"
	HeaderTimestamp      = "timestamp"
	HeaderRetryCount     = "retry-count"

	HeaderOriginalTopic = "original-topic"
	HeaderDLQError      = "dlq-error"
	HeaderDLQTimestamp  = "dlq-timestamp"
	HeaderDLQGroup      = "dlq-consumer-group"
)

// Metadata is the routing information stamped on every record as headers.
type Metadata struct {
	EventType      string
	TenantID       string
	ConversationID string
	SchemaVersion  string
	Source         string
}

// MessageHandler processes one consumed record. Returning a *HandlerError
// controls whether the record is retried.
type MessageHandler func(ctx context.Context, msg Message) error

// NewJSONMessage encodes value as the record body and stamps meta plus a
// fresh event id and timestamp as headers.
func NewJSONMessage(key string, value any, meta Metadata) (Message, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode %s payload: %w", meta.EventType, err)
	}
	return NewRawMessage(key, data, meta), nil
}

// NewRawMessage is NewJSONMessage for an already encoded body.
func NewRawMessage(key string, value []byte, meta Metadata) Message {
	now := time.Now().UTC()
	headers := map[string]string{
		HeaderEventID:   uuid.New().String(),
		HeaderTimestamp: now.Format(time.RFC3339),
	}
	for name, v := range map[string]string{
		HeaderEventType:      meta.EventType,
		HeaderTenantID:       meta.TenantID,
		HeaderConversationID: meta.ConversationID,
		HeaderSchemaVersion:  meta.SchemaVersion,
		HeaderSource:         meta.Source,
	} {
		if v != "" {
			headers[name] = v
		}
	}

	return Message{
		Key:       key,
		Value:     value,
		Headers:   headers,
		Timestamp: now,
	}
}

func (m *Message) DecodeValue(v any) error {
	return json.Unmarshal(m.Value, v)
}

func (m *Message) GetEventID() string {
	return m.Headers[HeaderEventID]
}

func (m *Message) GetEventType() string {
	return m.Headers[HeaderEventType]
}

func (m *Message) GetTenantID() string {
	return m.Headers[HeaderTenantID]
}

func (m *Message) GetConversationID() string {
	return m.Headers[HeaderConversationID]
}

func (m *Message) GetRetryCount() int {
	count, err := strconv.Atoi(m.Headers[HeaderRetryCount])
	if err != nil {
		return 0
	}
	return count
}

func (m *Message) IncrementRetryCount() {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[HeaderRetryCount] = strconv.Itoa(m.GetRetryCount() + 1)
}

// deadLetter copies msg with the headers that explain why it was parked.
func deadLetter(msg Message, topic, group string, cause error) Message {
	headers := make(map[string]string, len(msg.Headers)+4)
	maps.Copy(headers, msg.Headers)
	headers[HeaderOriginalTopic] = topic
	headers[HeaderDLQError] = cause.Error()
	headers[HeaderDLQTimestamp] = time.Now().UTC().Format(time.RFC3339)
	if group != "" {
		headers[HeaderDLQGroup] = group
	}
	msg.Headers = headers
	msg.Timestamp = time.Now()
	return msg
}

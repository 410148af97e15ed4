package delivery

import (
	"agendabot/pkg/kafka"
	"agendabot/pkg/metrics"
	"agendabot/pkg/model"
	"context"
	"fmt"
)

const (
	EventOutboundMessage = "whatsapp.outbound"

	envelopeSchemaVersion = "1"
	envelopeSource        = "agendabot.agent"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Envelope is the record written to the outbound topic. It carries what the
// dispatcher needs to send without looking the tenant up again.
type Envelope struct {
	TenantID      string                `json:"tenant_id"`
	PhoneNumberID string                `json:"phone_number_id"`
	To            string                `json:"to"`
	Message       model.OutboundMessage `json:"message"`
}

// KafkaSender queues replies on the outbound topic. Messages are keyed by
// conversation so one customer's replies stay on one partition, in order.
type KafkaSender struct {
	producer Publisher
	metrics  *metrics.Metrics
}

func NewKafkaSender(producer Publisher, m *metrics.Metrics) *KafkaSender {
	return &KafkaSender{producer: producer, metrics: m}
}

func (s *KafkaSender) Send(ctx context.Context, tenant *model.Tenant, to string, msg model.OutboundMessage) error {
	if tenant == nil || to == "" {
		return fmt.Errorf("tenant and recipient are required")
	}

	conversationID := model.SessionKey(tenant.ID, to)
	record, err := kafka.NewJSONMessage(conversationID, Envelope{
		TenantID:      tenant.ID,
		PhoneNumberID: tenant.PhoneNumberID,
		To:            to,
		Message:       msg,
	}, kafka.Metadata{
		EventType:      EventOutboundMessage,
		TenantID:       tenant.ID,
		ConversationID: conversationID,
		SchemaVersion:  envelopeSchemaVersion,
		Source:         envelopeSource,
	})
	if err != nil {
		return err
	}

	err = s.producer.Publish(ctx, record)
	s.metrics.ObserveDelivery(string(msg.Kind), err)
	if err != nil {
		return fmt.Errorf("failed to queue outbound message: %w", err)
	}
	return nil
}

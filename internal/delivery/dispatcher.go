package delivery

import (
	"agendabot/pkg/kafka"
	"agendabot/pkg/logger"
	"agendabot/pkg/model"
	"agendabot/pkg/whatsapp"
	"context"
	"errors"
)

// Dispatcher drains the outbound topic into a Sender. Its Handle method is a
// kafka.MessageHandler.
type Dispatcher struct {
	sender Sender
	log    *logger.Logger
}

func NewDispatcher(sender Sender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	var env Envelope
	if err := msg.DecodeValue(&env); err != nil {
		return kafka.NewPermanentError("deserialization failed", err)
	}
	if env.To == "" || env.PhoneNumberID == "" {
		return kafka.NewPermanentError("invalid message", errors.New("envelope needs a recipient and a phone number id"))
	}

	tenant := &model.Tenant{ID: env.TenantID, PhoneNumberID: env.PhoneNumberID}
	err := d.sender.Send(ctx, tenant, env.To, env.Message)
	if err == nil {
		d.log.Debug("Outbound message sent", "tenant_id", env.TenantID, "customer_id", env.To, "kind", env.Message.Kind)
		return nil
	}

	var apiErr *whatsapp.APIError
	if errors.As(err, &apiErr) && !apiErr.Temporary() {
		return kafka.NewPermanentError("whatsapp rejected message", err).WithDetail("status", apiErr.StatusCode)
	}
	return kafka.NewTransientError("temporary failure sending message", err)
}

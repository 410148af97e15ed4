package delivery

import (
	"agendabot/pkg/logger"
	"agendabot/pkg/model"
	"context"
	"fmt"
)

// Sender hands one reply to the customer's channel.
type Sender interface {
	Send(ctx context.Context, tenant *model.Tenant, to string, msg model.OutboundMessage) error
}

// Deliver sends msgs in order and stops at the first failure, so the customer
// never sees a later prompt without the one before it.
func Deliver(ctx context.Context, sender Sender, tenant *model.Tenant, to string, msgs []model.OutboundMessage, log *logger.Logger) error {
	for i, msg := range msgs {
		if err := sender.Send(ctx, tenant, to, msg); err != nil {
			log.Error("Failed to deliver message",
				"tenant_id", tenant.ID,
				"customer_id", to,
				"kind", msg.Kind,
				"index", i,
				"error", err,
			)
			return fmt.Errorf("failed to deliver message %d of %d: %w", i+1, len(msgs), err)
		}
	}
	return nil
}

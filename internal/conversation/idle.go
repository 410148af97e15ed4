package conversation

import (
	"context"

	"agendabot/internal/intent"
	"agendabot/pkg/model"
)

func (f *flow) idle(ctx context.Context, c *Context) (*Response, error) {
	switch c.Intent {
	case intent.Support:
		return f.handOff(ctx, c)
	case intent.Promotions:
		return stay(model.StateIdle, model.Text(PromotionsMessage)), nil
	}

	services, err := f.catalog.GetServices(ctx, c.TenantID)
	if err != nil {
		return nil, err
	}

	if c.Intent == intent.Appointments {
		return &Response{
			NewState: model.StateSelectService,
			Messages: []model.OutboundMessage{serviceList(askServiceMessage, services)},
			Memory:   resetPatch(),
		}, nil
	}

	return &Response{
		NewState: model.StateAgentClassifier,
		Messages: []model.OutboundMessage{
			model.Text(WelcomeMessage),
			serviceList(askServiceMessage, services),
		},
		Memory: resetPatch(),
	}, nil
}

// handOff flags the customer for a human agent; the bot stays silent for
// them until the flag is cleared.
func (f *flow) handOff(ctx context.Context, c *Context) (*Response, error) {
	if err := f.support.SetHumanSupport(ctx, c.TenantID, c.Session.CustomerID, true); err != nil {
		return nil, err
	}
	return &Response{
		NewState: model.StateIdle,
		Messages: []model.OutboundMessage{model.Text(SupportMessage)},
		Memory:   resetPatch(),
	}, nil
}

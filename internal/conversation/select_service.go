package conversation

import (
	"context"
	"strings"

	"agendabot/pkg/model"
)

func (f *flow) selectService(ctx context.Context, c *Context) (*Response, error) {
	services, err := f.catalog.GetServices(ctx, c.TenantID)
	if err != nil {
		return nil, err
	}

	svc := findService(c.Text(), services)
	if svc == nil {
		return stay(model.StateSelectService, serviceList(noServiceMessage, services)), nil
	}

	days, err := f.calendar.AvailableDays(ctx, c.Tenant, svc)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return stay(model.StateSelectService,
			model.Text(NoDaysMessage),
			serviceList(askServiceMessage, services),
		), nil
	}

	return &Response{
		NewState: model.StateSelectDay,
		Messages: []model.OutboundMessage{dayList(askDayMessage, days)},
		Memory: &model.MemoryPatch{
			ServiceID:   model.Ptr(svc.ID),
			ServiceName: model.Ptr(svc.Name),
			Date:        model.Ptr(""),
			Turn:        model.Ptr(""),
			Time:        model.Ptr(""),
		},
	}, nil
}

// findService prefers an exact name or id match, then a name or id mentioned
// anywhere in the text.
func findService(text string, services []*model.Service) *model.Service {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	for _, s := range services {
		if matches(text, s.Name) || strings.EqualFold(strings.TrimSpace(text), s.ID) {
			return s
		}
	}
	for _, s := range services {
		if contains(text, s.Name) || contains(text, s.ID) {
			return s
		}
	}
	return nil
}

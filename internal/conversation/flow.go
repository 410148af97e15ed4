package conversation

import (
	"context"
	"time"

	apperrors "agendabot/pkg/errors"
	"agendabot/pkg/model"
)

// flow holds the collaborators the state handlers share. Each state is one
// method, registered in the orchestrator's dispatch table.
type flow struct {
	catalog  Catalog
	calendar Calendar
	ledger   Booker
	support  SupportDesk
	now      func() time.Time
}

// currentService loads the service recorded in memory. When it no longer
// exists the customer is sent back to service selection.
func (f *flow) currentService(ctx context.Context, c *Context) (*model.Service, *Response, error) {
	serviceID := c.Memory().ServiceID
	if serviceID != "" {
		svc, err := f.catalog.GetService(ctx, c.TenantID, serviceID)
		if err == nil {
			return svc, nil, nil
		}
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, nil, err
		}
	}

	services, err := f.catalog.GetServices(ctx, c.TenantID)
	if err != nil {
		return nil, nil, err
	}
	return nil, &Response{
		NewState: model.StateSelectService,
		Messages: []model.OutboundMessage{
			model.Text(ServiceGoneMessage),
			serviceList(askServiceMessage, services),
		},
		Memory: resetPatch(),
	}, nil
}

// resetPatch clears everything a previous booking attempt left behind.
// LastFolio survives so the customer can still quote it.
func resetPatch() *model.MemoryPatch {
	return &model.MemoryPatch{
		ServiceID:    model.Ptr(""),
		ServiceName:  model.Ptr(""),
		Date:         model.Ptr(""),
		Turn:         model.Ptr(""),
		Time:         model.Ptr(""),
		CustomerName: model.Ptr(""),
	}
}

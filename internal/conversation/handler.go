package conversation

import (
	"agendabot/internal/intent"
	"agendabot/internal/scheduling"
	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
	"context"
)

// Context is everything a state handler may read. Session is a copy: handlers
// describe changes through Response and never write the session themselves.
type Context struct {
	TenantID string
	Tenant   *model.Tenant
	Customer *model.Customer
	Session  model.Session
	Message  model.InboundMessage
	Intent   intent.Intent
}

// Text is the cleaned message content the handlers act on.
func (c *Context) Text() string {
	return sanitizer.CleanText(c.Message.Content())
}

func (c *Context) Memory() model.Memory {
	return c.Session.Memory
}

type Response struct {
	NewState model.ConversationState
	Messages []model.OutboundMessage
	Memory   *model.MemoryPatch
}

type Handler interface {
	Handle(ctx context.Context, c *Context) (*Response, error)
}

type HandlerFunc func(ctx context.Context, c *Context) (*Response, error)

func (f HandlerFunc) Handle(ctx context.Context, c *Context) (*Response, error) {
	return f(ctx, c)
}

// Catalog lists the services a tenant offers.
type Catalog interface {
	GetServices(ctx context.Context, tenantID string) ([]*model.Service, error)
	GetService(ctx context.Context, tenantID, serviceID string) (*model.Service, error)
}

// Calendar answers availability questions; *scheduling.Calculator implements it.
type Calendar interface {
	AvailableDays(ctx context.Context, tenant *model.Tenant, service *model.Service) ([]string, error)
	AvailableTurns(ctx context.Context, tenant *model.Tenant, service *model.Service, date string) ([]scheduling.Turn, error)
	SlotsForTurn(ctx context.Context, tenant *model.Tenant, service *model.Service, date string, turn scheduling.Turn, turnCount int) ([]string, error)
	TurnCount(tenant *model.Tenant, date string) (int, error)
}

// Booker reserves slots. A nil appointment with a nil error means the slot
// was taken by someone else.
type Booker interface {
	BookAppointment(ctx context.Context, tenantID string, req *model.BookingRequest) (*model.Appointment, error)
}

// SupportDesk hands a customer over to a human agent.
type SupportDesk interface {
	SetHumanSupport(ctx context.Context, tenantID, channelID string, active bool) error
}

func stay(state model.ConversationState, msgs ...model.OutboundMessage) *Response {
	return &Response{NewState: state, Messages: msgs}
}

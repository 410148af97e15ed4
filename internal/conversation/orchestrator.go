package conversation

import (
	"context"
	"fmt"
	"time"

	"agendabot/pkg/logger"
	"agendabot/pkg/metrics"
	"agendabot/pkg/model"
)

// SessionSaver persists the session after every transition.
type SessionSaver interface {
	Save(ctx context.Context, session *model.Session) error
}

type Dependencies struct {
	Catalog  Catalog
	Calendar Calendar
	Ledger   Booker
	Support  SupportDesk
	Sessions SessionSaver
	Metrics  *metrics.Metrics
	Log      *logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Orchestrator runs exactly one state transition per inbound message and is
// the only writer of session state.
type Orchestrator struct {
	handlers map[model.ConversationState]Handler
	sessions SessionSaver
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewOrchestrator(deps Dependencies) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	f := &flow{
		catalog:  deps.Catalog,
		calendar: deps.Calendar,
		ledger:   deps.Ledger,
		support:  deps.Support,
		now:      deps.Now,
	}

	idle := HandlerFunc(f.idle)
	handlers := map[model.ConversationState]Handler{
		model.StateIdle:            idle,
		model.StateCompleted:       idle,
		model.StateCancelled:       idle,
		model.StateAgentClassifier: HandlerFunc(f.agentClassifier),
		model.StateSelectService:   f.cancellable(HandlerFunc(f.selectService)),
		model.StateSelectDay:       f.cancellable(HandlerFunc(f.selectDay)),
		model.StateSelectTurn:      f.cancellable(HandlerFunc(f.selectTurn)),
		model.StateSelectTime:      f.cancellable(HandlerFunc(f.selectTime)),
		model.StateCollectName:     f.cancellable(HandlerFunc(f.collectName)),
		model.StateConfirmation:    HandlerFunc(f.confirmation),
	}
	for _, state := range model.ConversationStates() {
		if _, ok := handlers[state]; !ok {
			panic(fmt.Sprintf("conversation: no handler for state %s", state))
		}
	}

	return &Orchestrator{
		handlers: handlers,
		sessions: deps.Sessions,
		metrics:  deps.Metrics,
		log:      deps.Log,
	}
}

// Process dispatches the message to the handler of the session's state,
// applies the outcome and persists the session. A failing handler never
// escapes: the customer gets an apology and the session falls back to IDLE.
func (o *Orchestrator) Process(ctx context.Context, c *Context) (*Response, error) {
	from := model.ParseState(string(c.Session.State))
	c.Session.State = from
	log := o.log.Conversation(c.TenantID, c.Session.CustomerID).With("state", from)

	start := time.Now()
	resp, err := o.run(ctx, o.handlers[from], c)
	o.metrics.ObserveHandler(string(from), time.Since(start).Seconds(), err != nil)

	if err != nil {
		log.Error("Conversation handler failed", "intent", c.Intent, "error", err)
		resp = &Response{
			NewState: model.StateIdle,
			Messages: []model.OutboundMessage{model.Text(ApologyMessage)},
		}
	}
	if !resp.NewState.Valid() {
		log.Error("Handler returned an unknown state", "new_state", resp.NewState)
		resp.NewState = model.StateIdle
	}

	next := c.Session
	next.Memory = next.Memory.Merge(resp.Memory)
	next.State = resp.NewState

	if err := o.sessions.Save(ctx, &next); err != nil {
		log.Error("Failed to persist session", "new_state", next.State, "error", err)
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	o.metrics.ObserveTransition(string(from), string(next.State))
	log.Debug("Conversation transition", "new_state", next.State, "messages", len(resp.Messages))
	return resp, nil
}

func (o *Orchestrator) run(ctx context.Context, h Handler, c *Context) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("handler panic: %v", r)
		}
	}()

	resp, err = h.Handle(ctx, c)
	if err == nil && resp == nil {
		err = fmt.Errorf("handler returned no response")
	}
	return resp, err
}

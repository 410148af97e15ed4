package conversation

import (
	"context"

	"agendabot/pkg/model"
)

// cancellable wraps a mid-flow handler so "Cancelar proceso" abandons the
// booking from any step.
func (f *flow) cancellable(next Handler) Handler {
	return HandlerFunc(func(ctx context.Context, c *Context) (*Response, error) {
		if !matches(c.Text(), CancelProcessCommand) {
			return next.Handle(ctx, c)
		}
		return &Response{
			NewState: model.StateCancelled,
			Messages: []model.OutboundMessage{model.Text(CancelledMessage), model.Text(ClosingMessage)},
			Memory:   resetPatch(),
		}, nil
	})
}

package conversation

import (
	"context"

	"agendabot/internal/intent"
)

// agentClassifier triages the reply to the welcome prompt. Anything that is
// not a request for a human is treated as a service choice.
func (f *flow) agentClassifier(ctx context.Context, c *Context) (*Response, error) {
	if c.Intent == intent.Support {
		return f.handOff(ctx, c)
	}
	return f.selectService(ctx, c)
}

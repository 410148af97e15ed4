package conversation

import (
	"context"
	"unicode/utf8"

	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
)

const minNameLength = 3

func (f *flow) collectName(ctx context.Context, c *Context) (*Response, error) {
	text := c.Text()

	if matches(text, BackToTimes) {
		svc, redirect, err := f.currentService(ctx, c)
		if redirect != nil || err != nil {
			return redirect, err
		}
		slots, err := f.turnSlots(ctx, c, svc)
		if err != nil {
			return nil, err
		}
		return stay(model.StateSelectTime, timeList(askTimeAgainMessage, slots)), nil
	}

	name := sanitizer.NormalizeName(text)
	if utf8.RuneCountInString(name) < minNameLength || matches(name, BackToName) {
		return stay(model.StateCollectName, nameList(askNameAgainMessage)), nil
	}

	mem := c.Memory()
	mem.CustomerName = name
	return &Response{
		NewState: model.StateConfirmation,
		Messages: []model.OutboundMessage{confirmList(mem)},
		Memory:   &model.MemoryPatch{CustomerName: model.Ptr(name)},
	}, nil
}

package conversation

import (
	"context"
	"slices"

	"agendabot/internal/scheduling"
	"agendabot/pkg/model"
)

func (f *flow) selectTurn(ctx context.Context, c *Context) (*Response, error) {
	svc, redirect, err := f.currentService(ctx, c)
	if redirect != nil || err != nil {
		return redirect, err
	}
	mem := c.Memory()
	text := c.Text()

	if matches(text, BackToDays) {
		days, err := f.calendar.AvailableDays(ctx, c.Tenant, svc)
		if err != nil {
			return nil, err
		}
		return stay(model.StateSelectDay, dayList(askDayAgainMessage, days)), nil
	}

	turns, err := f.calendar.AvailableTurns(ctx, c.Tenant, svc, mem.Date)
	if err != nil {
		return nil, err
	}

	turn, ok := scheduling.ParseTurn(text)
	if !ok || !slices.Contains(turns, turn) {
		return stay(model.StateSelectTurn, turnList(askTurnAgainMessage, turns)), nil
	}

	turnCount, err := f.calendar.TurnCount(c.Tenant, mem.Date)
	if err != nil {
		return nil, err
	}
	slots, err := f.calendar.SlotsForTurn(ctx, c.Tenant, svc, mem.Date, turn, turnCount)
	if err != nil {
		return nil, err
	}
	// The turn was offered but has no concrete time: re-ask rather than advance.
	if len(slots) == 0 {
		return stay(model.StateSelectTurn, turnList(askTurnAgainMessage, turns)), nil
	}

	return &Response{
		NewState: model.StateSelectTime,
		Messages: []model.OutboundMessage{timeList(askTimeMessage, slots)},
		Memory: &model.MemoryPatch{
			Turn: model.Ptr(turn.String()),
			Time: model.Ptr(""),
		},
	}, nil
}

package conversation

import (
	"context"
	"slices"
	"strings"

	"agendabot/internal/scheduling"
	"agendabot/pkg/model"
)

func (f *flow) selectTime(ctx context.Context, c *Context) (*Response, error) {
	svc, redirect, err := f.currentService(ctx, c)
	if redirect != nil || err != nil {
		return redirect, err
	}
	text := c.Text()

	if matches(text, BackToTurns) {
		turns, err := f.calendar.AvailableTurns(ctx, c.Tenant, svc, c.Memory().Date)
		if err != nil {
			return nil, err
		}
		return stay(model.StateSelectTurn, turnList(askTurnAgainMessage, turns)), nil
	}

	slots, err := f.turnSlots(ctx, c, svc)
	if err != nil {
		return nil, err
	}

	clock := normalizeClock(text)
	if matches(text, BackToTimes) || !slices.Contains(slots, clock) {
		return stay(model.StateSelectTime, timeList(askTimeAgainMessage, slots)), nil
	}

	return &Response{
		NewState: model.StateCollectName,
		Messages: []model.OutboundMessage{nameList(askNameMessage)},
		Memory: &model.MemoryPatch{
			Time:         model.Ptr(clock),
			CustomerName: model.Ptr(""),
		},
	}, nil
}

// turnSlots recomputes the free times of the turn recorded in memory.
func (f *flow) turnSlots(ctx context.Context, c *Context, svc *model.Service) ([]string, error) {
	mem := c.Memory()
	turn, ok := scheduling.ParseTurn(mem.Turn)
	if !ok {
		return nil, nil
	}
	turnCount, err := f.calendar.TurnCount(c.Tenant, mem.Date)
	if err != nil {
		return nil, err
	}
	return f.calendar.SlotsForTurn(ctx, c.Tenant, svc, mem.Date, turn, turnCount)
}

// normalizeClock accepts "9:30" for "09:30".
func normalizeClock(text string) string {
	text = strings.TrimSpace(text)
	if len(text) == len(scheduling.ClockLayout)-1 && strings.IndexByte(text, ':') == 1 {
		text = "0" + text
	}
	return text
}

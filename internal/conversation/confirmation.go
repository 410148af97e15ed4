package conversation

import (
	"context"
	"slices"
	"strings"

	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
)

func (f *flow) confirmation(ctx context.Context, c *Context) (*Response, error) {
	text := c.Text()

	switch {
	case isNegative(text):
		return &Response{
			NewState: model.StateIdle,
			Messages: []model.OutboundMessage{model.Text(CancelledMessage), model.Text(ClosingMessage)},
			Memory:   resetPatch(),
		}, nil
	case isAffirmative(text):
		return f.book(ctx, c)
	default:
		return stay(model.StateConfirmation, confirmButtons()), nil
	}
}

func (f *flow) book(ctx context.Context, c *Context) (*Response, error) {
	svc, redirect, err := f.currentService(ctx, c)
	if redirect != nil || err != nil {
		return redirect, err
	}
	mem := c.Memory()

	appointment, err := f.ledger.BookAppointment(ctx, c.TenantID, &model.BookingRequest{
		CustomerID:   c.Session.CustomerID,
		CustomerName: mem.CustomerName,
		ServiceID:    svc.ID,
		ServiceName:  svc.Name,
		Date:         mem.Date,
		Time:         mem.Time,
		Turn:         mem.Turn,
	})
	if err != nil {
		return nil, err
	}

	if appointment == nil {
		slots, err := f.turnSlots(ctx, c, svc)
		if err != nil {
			return nil, err
		}
		return &Response{
			NewState: model.StateSelectTime,
			Messages: []model.OutboundMessage{timeList(askTimeAgainMessage, slots)},
			Memory:   &model.MemoryPatch{Time: model.Ptr("")},
		}, nil
	}

	return &Response{
		NewState: model.StateCompleted,
		Messages: []model.OutboundMessage{completedText(appointment), model.Text(ClosingMessage)},
		Memory:   &model.MemoryPatch{LastFolio: model.Ptr(appointment.Folio)},
	}, nil
}

func isAffirmative(text string) bool {
	key := sanitizer.MatchKey(text)
	tokens := strings.Fields(key)
	return slices.Contains(tokens, "si") ||
		strings.Contains(key, "agendar") ||
		strings.Contains(key, "confirm")
}

func isNegative(text string) bool {
	key := sanitizer.MatchKey(text)
	tokens := strings.Fields(key)
	return (len(tokens) > 0 && tokens[0] == "no") || strings.Contains(key, "cancel")
}

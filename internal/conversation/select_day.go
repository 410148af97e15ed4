package conversation

import (
	"context"
	"slices"
	"strings"
	"time"

	"agendabot/internal/scheduling"
	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
)

var weekdayNames = map[string]time.Weekday{
	"domingo":   time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
}

func (f *flow) selectDay(ctx context.Context, c *Context) (*Response, error) {
	svc, redirect, err := f.currentService(ctx, c)
	if redirect != nil || err != nil {
		return redirect, err
	}

	text := c.Text()
	if matches(text, BackToServices) {
		services, err := f.catalog.GetServices(ctx, c.TenantID)
		if err != nil {
			return nil, err
		}
		return stay(model.StateSelectService, serviceList(askServiceMessage, services)), nil
	}

	days, err := f.calendar.AvailableDays(ctx, c.Tenant, svc)
	if err != nil {
		return nil, err
	}

	date, ok := f.pickDay(text, days, c.Tenant.Location())
	if !ok {
		return stay(model.StateSelectDay, dayList(askDayAgainMessage, days)), nil
	}

	turns, err := f.calendar.AvailableTurns(ctx, c.Tenant, svc, date)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return stay(model.StateSelectDay, dayList(askDayAgainMessage, days)), nil
	}

	return &Response{
		NewState: model.StateSelectTurn,
		Messages: []model.OutboundMessage{turnList(askTurnMessage, turns)},
		Memory: &model.MemoryPatch{
			Date: model.Ptr(date),
			Turn: model.Ptr(""),
			Time: model.Ptr(""),
		},
	}, nil
}

// pickDay resolves "2024-05-23", "mañana" or a weekday name ("lunes") to one
// of the offered dates.
func (f *flow) pickDay(text string, days []string, loc *time.Location) (string, bool) {
	if len(days) == 0 {
		return "", false
	}

	raw := strings.TrimSpace(text)
	if _, err := scheduling.ParseDate(raw); err == nil {
		return raw, slices.Contains(days, raw)
	}

	key := sanitizer.MatchKey(text)
	if key == "manana" {
		y, m, d := f.now().In(loc).Date()
		tomorrow := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC).Format(scheduling.DateLayout)
		return tomorrow, slices.Contains(days, tomorrow)
	}

	if day, ok := weekdayNames[key]; ok {
		for _, date := range days {
			if wd, err := scheduling.Weekday(date); err == nil && wd == day {
				return date, true
			}
		}
	}
	return "", false
}

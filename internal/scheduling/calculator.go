package scheduling

import (
	"context"
	"fmt"
	"time"

	"agendabot/pkg/model"
)

// BookedTimesReader returns, for every date in [from, to], the set of start
// times that already hold a non-cancelled appointment.
type BookedTimesReader interface {
	BookedTimes(ctx context.Context, tenantID, serviceID, from, to string) (map[string]map[string]bool, error)
}

// Calculator derives open days, turns and slots from a tenant's working hours
// and the bookings already in the ledger. It never writes.
type Calculator struct {
	ledger BookedTimesReader
	now    func() time.Time
}

type Option func(*Calculator)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

func NewCalculator(ledger BookedTimesReader, opts ...Option) *Calculator {
	c := &Calculator{
		ledger: ledger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AvailableDays lists the bookable dates from tomorrow through today+MaxFutureDays.
// A date qualifies when it is a work day, not a holiday, has at least one turn
// and still has one free slot.
func (c *Calculator) AvailableDays(ctx context.Context, tenant *model.Tenant, service *model.Service) ([]string, error) {
	hours := tenant.WorkingHours
	openAt, closeAt, err := parseHours(hours)
	if err != nil {
		return nil, err
	}
	if service.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	today := calendarDay(c.now().In(tenant.Location()))
	from := today.AddDate(0, 0, 1).Format(DateLayout)
	to := today.AddDate(0, 0, hours.MaxFutureDays).Format(DateLayout)

	booked, err := c.ledger.BookedTimes(ctx, tenant.ID, service.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked times: %w", err)
	}

	days := make([]string, 0, hours.MaxFutureDays)
	for i := 1; i <= hours.MaxFutureDays; i++ {
		day := today.AddDate(0, 0, i)
		date := day.Format(DateLayout)

		if !hours.IsWorkDay(day.Weekday()) || hours.IsHoliday(date) {
			continue
		}
		if hours.TurnsFor(day.Weekday()) == 0 {
			continue
		}
		if len(freeSlots(openAt, closeAt, service.DurationMinutes, booked[date])) == 0 {
			continue
		}
		days = append(days, date)
	}
	return days, nil
}

// AvailableSlots enumerates start times from open to close stepping by the
// service duration. A slot is offered only if it ends by closing time and is
// not already booked.
func (c *Calculator) AvailableSlots(ctx context.Context, tenant *model.Tenant, service *model.Service, date string) ([]string, error) {
	minutes, err := c.freeMinutes(ctx, tenant, service, date)
	if err != nil {
		return nil, err
	}
	return formatAll(minutes), nil
}

// AvailableTurns returns the turns of date that still contain a free slot.
func (c *Calculator) AvailableTurns(ctx context.Context, tenant *model.Tenant, service *model.Service, date string) ([]Turn, error) {
	weekday, err := Weekday(date)
	if err != nil {
		return nil, err
	}
	turnCount := tenant.WorkingHours.TurnsFor(weekday)
	candidates := TurnsForCount(turnCount)
	if len(candidates) == 0 {
		return []Turn{}, nil
	}

	minutes, err := c.freeMinutes(ctx, tenant, service, date)
	if err != nil {
		return nil, err
	}
	openAt, closeAt, _ := parseHours(tenant.WorkingHours)

	turns := make([]Turn, 0, len(candidates))
	for _, turn := range candidates {
		w, _ := turnWindow(turn, turnCount, openAt, closeAt)
		for _, m := range minutes {
			if w.contains(m) {
				turns = append(turns, turn)
				break
			}
		}
	}
	return turns, nil
}

// SlotsForTurn narrows AvailableSlots to one turn's window. The window depends
// on turnCount: the afternoon of a 2-turn day runs until close, on a 3-turn
// day it stops at the evening cutoff. A turn the day does not have yields no slots.
func (c *Calculator) SlotsForTurn(ctx context.Context, tenant *model.Tenant, service *model.Service, date string, turn Turn, turnCount int) ([]string, error) {
	openAt, closeAt, err := parseHours(tenant.WorkingHours)
	if err != nil {
		return nil, err
	}
	w, ok := turnWindow(turn, turnCount, openAt, closeAt)
	if !ok {
		return []string{}, nil
	}

	minutes, err := c.freeMinutes(ctx, tenant, service, date)
	if err != nil {
		return nil, err
	}

	slots := make([]string, 0, len(minutes))
	for _, m := range minutes {
		if w.contains(m) {
			slots = append(slots, FormatClock(m))
		}
	}
	return slots, nil
}

// TurnCount is the number of turns configured for the weekday of date.
func (c *Calculator) TurnCount(tenant *model.Tenant, date string) (int, error) {
	weekday, err := Weekday(date)
	if err != nil {
		return 0, err
	}
	return tenant.WorkingHours.TurnsFor(weekday), nil
}

func (c *Calculator) freeMinutes(ctx context.Context, tenant *model.Tenant, service *model.Service, date string) ([]int, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	openAt, closeAt, err := parseHours(tenant.WorkingHours)
	if err != nil {
		return nil, err
	}
	if service.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	booked, err := c.ledger.BookedTimes(ctx, tenant.ID, service.ID, date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked times: %w", err)
	}
	return freeSlots(openAt, closeAt, service.DurationMinutes, booked[date]), nil
}

// candidateSlots is the grid anchored at open; the last start must still end by close.
func candidateSlots(openAt, closeAt, duration int) []int {
	var slots []int
	for start := openAt; start+duration <= closeAt; start += duration {
		slots = append(slots, start)
	}
	return slots
}

func freeSlots(openAt, closeAt, duration int, booked map[string]bool) []int {
	candidates := candidateSlots(openAt, closeAt, duration)
	free := candidates[:0]
	for _, m := range candidates {
		if !booked[FormatClock(m)] {
			free = append(free, m)
		}
	}
	return free
}

func parseHours(hours model.WorkingHours) (int, int, error) {
	openAt, err := ParseClock(hours.OpenTime)
	if err != nil {
		return 0, 0, err
	}
	closeAt, err := ParseClock(hours.CloseTime)
	if err != nil {
		return 0, 0, err
	}
	if closeAt <= openAt {
		return 0, 0, ErrInvalidHours
	}
	return openAt, closeAt, nil
}

func formatAll(minutes []int) []string {
	out := make([]string, len(minutes))
	for i, m := range minutes {
		out[i] = FormatClock(m)
	}
	return out
}

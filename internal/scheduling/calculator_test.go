package scheduling

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
	_ "time/tzdata"

	"agendabot/pkg/model"
)

type mockLedger struct {
	bookedTimesFunc func(ctx context.Context, tenantID, serviceID, from, to string) (map[string]map[string]bool, error)
	calls           int
}

func (m *mockLedger) BookedTimes(ctx context.Context, tenantID, serviceID, from, to string) (map[string]map[string]bool, error) {
	m.calls++
	if m.bookedTimesFunc != nil {
		return m.bookedTimesFunc(ctx, tenantID, serviceID, from, to)
	}
	return map[string]map[string]bool{}, nil
}

// bookings returns a ledger answering from a fixed date -> times table,
// honouring the requested range.
func bookings(table map[string][]string) *mockLedger {
	return &mockLedger{
		bookedTimesFunc: func(_ context.Context, _, _, from, to string) (map[string]map[string]bool, error) {
			out := map[string]map[string]bool{}
			for date, times := range table {
				if date < from || date > to {
					continue
				}
				out[date] = map[string]bool{}
				for _, t := range times {
					out[date][t] = true
				}
			}
			return out, nil
		},
	}
}

// wednesday is 2024-05-22 10:00 local wall-clock.
func wednesday() time.Time {
	return time.Date(2024, time.May, 22, 10, 0, 0, 0, time.UTC)
}

func weekdayTenant() *model.Tenant {
	return &model.Tenant{
		ID:   "tenant-1",
		Name: "Salon Centro",
		WorkingHours: model.WorkingHours{
			WorkDays:      []int{1, 2, 3, 4, 5},
			OpenTime:      "09:00",
			CloseTime:     "18:00",
			MaxFutureDays: 7,
			TurnsPerDay:   []int{2, 2, 2, 2, 2, 2, 2},
		},
	}
}

func hourService() *model.Service {
	return &model.Service{ID: "srv-1", TenantID: "tenant-1", Name: "Manicura", DurationMinutes: 60}
}

func TestAvailableDays_NextFiveWorkdays(t *testing.T) {
	ledger := bookings(nil)
	calc := NewCalculator(ledger, WithClock(wednesday))

	days, err := calc.AvailableDays(context.Background(), weekdayTenant(), hourService())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"2024-05-23", "2024-05-24", "2024-05-27", "2024-05-28", "2024-05-29"}
	if !reflect.DeepEqual(days, want) {
		t.Errorf("AvailableDays() = %v, want %v", days, want)
	}
	if ledger.calls != 1 {
		t.Errorf("expected a single range query, got %d", ledger.calls)
	}
}

func TestAvailableDays_RangeBounds(t *testing.T) {
	var gotFrom, gotTo string
	ledger := &mockLedger{
		bookedTimesFunc: func(_ context.Context, _, _, from, to string) (map[string]map[string]bool, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}
	calc := NewCalculator(ledger, WithClock(wednesday))

	if _, err := calc.AvailableDays(context.Background(), weekdayTenant(), hourService()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFrom != "2024-05-23" || gotTo != "2024-05-29" {
		t.Errorf("range = [%s, %s], want [2024-05-23, 2024-05-29]", gotFrom, gotTo)
	}
}

func TestAvailableDays_TenantTimezone(t *testing.T) {
	// 03:00 UTC on Wednesday is still Tuesday evening in Mexico City.
	lateTuesday := func() time.Time {
		return time.Date(2024, time.May, 22, 3, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name      string
		mutate    func(*model.Tenant)
		wantFirst string
	}{
		{"inferred from channel number", func(t *model.Tenant) { t.ChannelNumber = "+525512345678" }, "2024-05-22"},
		{"explicit zone wins", func(t *model.Tenant) {
			t.ChannelNumber = "+525512345678"
			t.Timezone = "Europe/Madrid"
		}, "2024-05-23"},
		{"no channel number falls back to UTC", func(*model.Tenant) {}, "2024-05-23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant := weekdayTenant()
			tt.mutate(tenant)
			calc := NewCalculator(bookings(nil), WithClock(lateTuesday))

			days, err := calc.AvailableDays(context.Background(), tenant, hourService())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(days) == 0 || days[0] != tt.wantFirst {
				t.Errorf("first day = %v, want %s", days, tt.wantFirst)
			}
		})
	}
}

func TestAvailableDays_Exclusions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.Tenant)
		booked  map[string][]string
		exclude string
	}{
		{
			name: "zero turns on weekday",
			mutate: func(tn *model.Tenant) {
				tn.WorkingHours.TurnsPerDay = []int{2, 2, 2, 2, 2, 0, 2}
			},
			exclude: "2024-05-24",
		},
		{
			name: "holiday",
			mutate: func(tn *model.Tenant) {
				tn.WorkingHours.Holidays = []string{"2024-05-27"}
			},
			exclude: "2024-05-27",
		},
		{
			name:   "fully booked",
			mutate: func(*model.Tenant) {},
			booked: map[string][]string{
				"2024-05-28": {"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"},
			},
			exclude: "2024-05-28",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant := weekdayTenant()
			tt.mutate(tenant)
			calc := NewCalculator(bookings(tt.booked), WithClock(wednesday))

			days, err := calc.AvailableDays(context.Background(), tenant, hourService())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(days) != 4 {
				t.Errorf("expected 4 days, got %v", days)
			}
			for _, d := range days {
				if d == tt.exclude {
					t.Errorf("%s should be excluded, got %v", tt.exclude, days)
				}
			}
		})
	}
}

func TestAvailableDays_PartiallyBookedStaysOpen(t *testing.T) {
	booked := map[string][]string{
		"2024-05-23": {"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"},
	}
	calc := NewCalculator(bookings(booked), WithClock(wednesday))

	days, err := calc.AvailableDays(context.Background(), weekdayTenant(), hourService())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) == 0 || days[0] != "2024-05-23" {
		t.Errorf("a day with one free slot must stay available, got %v", days)
	}
}

func TestAvailableDays_LedgerError(t *testing.T) {
	boom := errors.New("mongo down")
	ledger := &mockLedger{
		bookedTimesFunc: func(context.Context, string, string, string, string) (map[string]map[string]bool, error) {
			return nil, boom
		},
	}
	calc := NewCalculator(ledger, WithClock(wednesday))

	_, err := calc.AvailableDays(context.Background(), weekdayTenant(), hourService())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped ledger error, got %v", err)
	}
}

func TestAvailableSlots_BoundaryExclusivity(t *testing.T) {
	tests := []struct {
		name      string
		open      string
		close     string
		duration  int
		booked    []string
		wantSlots []string
	}{
		{"even split", "09:00", "12:00", 60, nil, []string{"09:00", "10:00", "11:00"}},
		{"last slot would overrun", "09:00", "10:30", 60, nil, []string{"09:00"}},
		{"uneven duration", "09:00", "10:30", 45, nil, []string{"09:00", "09:45"}},
		{"booked removed", "09:00", "12:00", 60, []string{"10:00"}, []string{"09:00", "11:00"}},
		{"duration longer than day", "09:00", "10:00", 90, nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant := weekdayTenant()
			tenant.WorkingHours.OpenTime = tt.open
			tenant.WorkingHours.CloseTime = tt.close
			service := &model.Service{ID: "srv-1", DurationMinutes: tt.duration}
			calc := NewCalculator(bookings(map[string][]string{"2024-05-23": tt.booked}), WithClock(wednesday))

			slots, err := calc.AvailableSlots(context.Background(), tenant, service, "2024-05-23")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(slots, tt.wantSlots) {
				t.Errorf("AvailableSlots() = %v, want %v", slots, tt.wantSlots)
			}

			closeAt, _ := ParseClock(tt.close)
			for _, s := range slots {
				start, _ := ParseClock(s)
				if start+tt.duration > closeAt {
					t.Errorf("slot %s runs past close %s", s, tt.close)
				}
			}
		})
	}
}

func TestAvailableSlots_InvalidInput(t *testing.T) {
	calc := NewCalculator(bookings(nil))

	tenant := weekdayTenant()
	if _, err := calc.AvailableSlots(context.Background(), tenant, hourService(), "23-05-2024"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}

	tenant.WorkingHours.CloseTime = "08:00"
	if _, err := calc.AvailableSlots(context.Background(), tenant, hourService(), "2024-05-23"); !errors.Is(err, ErrInvalidHours) {
		t.Errorf("expected ErrInvalidHours, got %v", err)
	}

	zero := &model.Service{ID: "srv-0"}
	if _, err := calc.AvailableSlots(context.Background(), weekdayTenant(), zero, "2024-05-23"); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestAvailableTurns(t *testing.T) {
	tests := []struct {
		name   string
		turns  int
		close  string
		booked []string
		want   []Turn
	}{
		{"zero turns", 0, "18:00", nil, []Turn{}},
		{"single turn", 1, "18:00", nil, []Turn{TurnMorning}},
		{"two turns", 2, "18:00", nil, []Turn{TurnMorning, TurnAfternoon}},
		{"two turns morning full", 2, "18:00", []string{"09:00", "10:00", "11:00", "12:00"}, []Turn{TurnAfternoon}},
		{"three turns no night hours", 3, "18:00", nil, []Turn{TurnMorning, TurnAfternoon}},
		{"three turns", 3, "21:00", nil, []Turn{TurnMorning, TurnAfternoon, TurnNight}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant := weekdayTenant()
			tenant.WorkingHours.CloseTime = tt.close
			tenant.WorkingHours.TurnsPerDay = []int{tt.turns, tt.turns, tt.turns, tt.turns, tt.turns, tt.turns, tt.turns}
			calc := NewCalculator(bookings(map[string][]string{"2024-05-23": tt.booked}))

			turns, err := calc.AvailableTurns(context.Background(), tenant, hourService(), "2024-05-23")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(turns, tt.want) {
				t.Errorf("AvailableTurns() = %v, want %v", turns, tt.want)
			}
		})
	}
}

func TestAvailableTurns_DefaultsToOneTurn(t *testing.T) {
	tenant := weekdayTenant()
	tenant.WorkingHours.TurnsPerDay = nil
	calc := NewCalculator(bookings(nil))

	turns, err := calc.AvailableTurns(context.Background(), tenant, hourService(), "2024-05-23")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(turns, []Turn{TurnMorning}) {
		t.Errorf("AvailableTurns() = %v, want [Matutino]", turns)
	}
}

func TestSlotsForTurn(t *testing.T) {
	tests := []struct {
		name      string
		turn      Turn
		turnCount int
		close     string
		want      []string
	}{
		{"whole day on 1-turn day", TurnMorning, 1, "15:00", []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00"}},
		{"morning ends at midday", TurnMorning, 2, "18:00", []string{"09:00", "10:00", "11:00", "12:00"}},
		{"afternoon runs to close on 2-turn day", TurnAfternoon, 2, "20:00", []string{"13:00", "14:00", "15:00", "16:00", "17:00", "18:00", "19:00"}},
		{"afternoon stops at evening on 3-turn day", TurnAfternoon, 3, "20:00", []string{"13:00", "14:00", "15:00", "16:00", "17:00"}},
		{"night on 3-turn day", TurnNight, 3, "20:00", []string{"18:00", "19:00"}},
		{"night missing on 2-turn day", TurnNight, 2, "20:00", []string{}},
		{"afternoon missing on 1-turn day", TurnAfternoon, 1, "20:00", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant := weekdayTenant()
			tenant.WorkingHours.CloseTime = tt.close
			calc := NewCalculator(bookings(nil))

			slots, err := calc.SlotsForTurn(context.Background(), tenant, hourService(), "2024-05-23", tt.turn, tt.turnCount)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(slots, tt.want) {
				t.Errorf("SlotsForTurn() = %v, want %v", slots, tt.want)
			}
		})
	}
}

func TestSlotsForTurn_GridAnchoredAtOpen(t *testing.T) {
	tenant := weekdayTenant()
	tenant.WorkingHours.OpenTime = "09:30"
	calc := NewCalculator(bookings(nil))

	slots, err := calc.SlotsForTurn(context.Background(), tenant, hourService(), "2024-05-23", TurnAfternoon, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"13:30", "14:30", "15:30", "16:30"}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("SlotsForTurn() = %v, want %v", slots, want)
	}
}

func TestTurnCount(t *testing.T) {
	tenant := weekdayTenant()
	tenant.WorkingHours.TurnsPerDay = []int{0, 1, 2, 3, 3, 2, 0}
	calc := NewCalculator(bookings(nil))

	got, err := calc.TurnCount(tenant, "2024-05-23")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 {
		t.Errorf("TurnCount(Thursday) = %d, want 3", got)
	}
}

func TestParseTurn(t *testing.T) {
	tests := []struct {
		input string
		want  Turn
		ok    bool
	}{
		{"Matutino", TurnMorning, true},
		{"  vespertino ", TurnAfternoon, true},
		{"NOCTURNO", TurnNight, true},
		{"Mañana", TurnMorning, true},
		{"tarde", TurnAfternoon, true},
		{"madrugada", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTurn(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseTurn(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"9:30", 0, true},
		{"24:00", 0, true},
		{"noon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.input, got, tt.want)
			}
			if !tt.wantErr && FormatClock(got) != tt.input {
				t.Errorf("FormatClock(%d) = %q, want %q", got, FormatClock(got), tt.input)
			}
		})
	}
}

package scheduling

import (
	"agendabot/pkg/sanitizer"
)

// Turn is a named band of the working day offered before exact times.
type Turn string

const (
	TurnMorning   Turn = "Matutino"
	TurnAfternoon Turn = "Vespertino"
	TurnNight     Turn = "Nocturno"
)

func (t Turn) String() string {
	return string(t)
}

var turnAliases = map[string]Turn{
	"matutino":   TurnMorning,
	"manana":     TurnMorning,
	"morning":    TurnMorning,
	"vespertino": TurnAfternoon,
	"tarde":      TurnAfternoon,
	"afternoon":  TurnAfternoon,
	"nocturno":   TurnNight,
	"noche":      TurnNight,
	"evening":    TurnNight,
	"night":      TurnNight,
}

// ParseTurn maps free text ("matutino", "Tarde", "NOCHE"...) onto a Turn.
func ParseTurn(input string) (Turn, bool) {
	t, ok := turnAliases[sanitizer.MatchKey(input)]
	return t, ok
}

// TurnsForCount lists the turns a day split into n turns offers, in order.
func TurnsForCount(n int) []Turn {
	switch n {
	case 1:
		return []Turn{TurnMorning}
	case 2:
		return []Turn{TurnMorning, TurnAfternoon}
	case 3:
		return []Turn{TurnMorning, TurnAfternoon, TurnNight}
	default:
		return nil
	}
}

// window is a half-open [start, end) range of minutes since midnight.
type window struct {
	start int
	end   int
}

func (w window) contains(minute int) bool {
	return minute >= w.start && minute < w.end
}

// turnWindow returns the band a turn covers on a day with turnCount turns.
// The afternoon band ends at close on 2-turn days and at the evening cutoff on
// 3-turn days. A 1-turn day's morning spans the whole day.
func turnWindow(turn Turn, turnCount, openAt, closeAt int) (window, bool) {
	switch {
	case turnCount == 1 && turn == TurnMorning:
		return window{openAt, closeAt}, true
	case turnCount >= 2 && turn == TurnMorning:
		return window{openAt, middayMinutes}, true
	case turnCount == 2 && turn == TurnAfternoon:
		return window{middayMinutes, closeAt}, true
	case turnCount == 3 && turn == TurnAfternoon:
		return window{middayMinutes, eveningMinutes}, true
	case turnCount == 3 && turn == TurnNight:
		return window{eveningMinutes, closeAt}, true
	}
	return window{}, false
}

package model

import (
	"agendabot/pkg/locale"
	"slices"
	"time"
)

// Tenant is an onboarded business. It is the root of all data isolation.
type Tenant struct {
	ID            string       `json:"id" bson:"_id" validate:"required,min=2,max=64"`
	Name          string       `json:"name" bson:"name" validate:"required,min=2,max=100"`
	ChannelNumber string       `json:"channel_number" bson:"channel_number" validate:"required,e164"`
	PhoneNumberID string       `json:"phone_number_id,omitempty" bson:"phone_number_id,omitempty" validate:"omitempty,numeric"`
	Timezone      string       `json:"timezone,omitempty" bson:"timezone,omitempty" validate:"omitempty,timezone"`
	WorkingHours  WorkingHours `json:"working_hours" bson:"working_hours" validate:"required"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Location is the zone "today" is computed in: Timezone when set, otherwise
// the default zone of the channel number's country.
func (t *Tenant) Location() *time.Location {
	tz := t.Timezone
	if tz == "" {
		tz = locale.InferTimezoneFromPhone(t.ChannelNumber)
	}
	return locale.Location(tz)
}

// WorkingHours is the weekly calendar a tenant books against. Times are local
// wall-clock strings and are never converted between zones.
type WorkingHours struct {
	WorkDays      []int    `json:"work_days" bson:"work_days" validate:"required,min=1,max=7,unique,dive,min=0,max=6"`
	OpenTime      string   `json:"open_time" bson:"open_time" validate:"required,clock"`
	CloseTime     string   `json:"close_time" bson:"close_time" validate:"required,clock"`
	MaxFutureDays int      `json:"max_future_days" bson:"max_future_days" validate:"required,min=1,max=90"`
	TurnsPerDay   []int    `json:"turns_per_day,omitempty" bson:"turns_per_day,omitempty" validate:"omitempty,len=7,dive,min=0,max=3"`
	Holidays      []string `json:"holidays,omitempty" bson:"holidays,omitempty" validate:"omitempty,dive,datetime=2006-01-02"`
}

// DefaultTurnsPerDay applies to weekdays without an explicit turn count.
const DefaultTurnsPerDay = 1

func (w WorkingHours) IsWorkDay(day time.Weekday) bool {
	return slices.Contains(w.WorkDays, int(day))
}

func (w WorkingHours) IsHoliday(date string) bool {
	return slices.Contains(w.Holidays, date)
}

// TurnsFor returns how many turns (0..3) the given weekday is split into.
func (w WorkingHours) TurnsFor(day time.Weekday) int {
	if len(w.TurnsPerDay) != 7 {
		return DefaultTurnsPerDay
	}
	return w.TurnsPerDay[day]
}

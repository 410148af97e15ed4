package scheduling

import "errors"

var (
	ErrInvalidClock = errors.New("invalid wall-clock time")

	ErrInvalidDate = errors.New("invalid calendar date")

	ErrInvalidHours = errors.New("close time must be after open time")

	ErrInvalidDuration = errors.New("service duration must be positive")
)

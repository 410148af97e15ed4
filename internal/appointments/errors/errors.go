package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrSlotTaken = errors.New("slot already holds an active appointment")

	ErrAlreadyCancelled = errors.New("appointment already cancelled")

	ErrInvalidRange = errors.New("range end must not be before range start")
)

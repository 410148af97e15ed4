package errors

import "errors"

var (
	ErrNotFound        = errors.New("tenant not found")
	ErrServiceNotFound = errors.New("service not found")
	ErrMisconfigured   = errors.New("tenant misconfigured")
)

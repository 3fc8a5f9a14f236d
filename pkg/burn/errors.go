package burn

import "errors"

var (
	// ErrInvalidInput indicates dvx or dvy was not a finite number.
	ErrInvalidInput = errors.New("invalid burn input")
	// ErrInvalidDuration indicates the duration was outside the allowed range.
	ErrInvalidDuration = errors.New("invalid burn duration")
)

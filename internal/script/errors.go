package script

import "errors"

// Errors for script execution.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNoResult is returned when a script neither returns a text nor sets the global result.
	ErrNoResult = errors.New("script produced no text")

	// ErrOutputTooLarge is returned when a script's result exceeds the configured maximum.
	ErrOutputTooLarge = errors.New("script output too large")
)

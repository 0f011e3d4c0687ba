package text

import "errors"

// Errors returned by Text operations.
var (
	// ErrIndexOutOfRange indicates an index outside the valid range of a text.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidRange indicates a range that violates 0 <= start <= end <= length.
	ErrInvalidRange = errors.New("invalid range")
)

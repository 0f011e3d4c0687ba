package replay

import (
	"errors"
	"fmt"
)

// Errors returned while parsing or running an edit script.
var (
	// ErrUnknownOp indicates a step names an operation the runner does not know.
	ErrUnknownOp = errors.New("unknown operation")

	// ErrUnknownRef indicates a step refers to a version name never saved.
	ErrUnknownRef = errors.New("unknown version reference")

	// ErrExpectation indicates a step's result differs from its expect value.
	ErrExpectation = errors.New("expectation failed")

	// ErrInvalidStep indicates a step is missing a field its operation requires.
	ErrInvalidStep = errors.New("invalid step")
)

// StepError reports the step at which a script failed.
type StepError struct {
	// Index is the 0-based position of the step in the script.
	Index int
	// Op is the step's operation.
	Op Op
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

package draft

import (
	"errors"
	"fmt"
)

var (
	// ErrDraftNotFound indicates the session id does not match an open draft.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrLineNotFound indicates no line exists for the (product, presentation) key.
	ErrLineNotFound = errors.New("draft line not found")

	// ErrSubmitInFlight indicates the draft is being submitted and cannot be
	// edited or resubmitted until the call completes.
	ErrSubmitInFlight = errors.New("submission already in progress")
)

// ValidationError is a recoverable, field-scoped input error. It is never
// fatal: the draft keeps its state and the operator can correct the field.
type ValidationError struct {
	Field   string
	Message string
	// Max carries the admissible-quantity ceiling when the error is a
	// stock rejection, so callers can echo it to the operator.
	Max int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErrorf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

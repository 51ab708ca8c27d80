package statemut

import (
	"errors"
	"fmt"
)

// Validation failure kinds. A *ValidationError unwraps to exactly one of these.
var (
	ErrShape           = errors.New("state has the wrong shape")
	ErrMembership      = errors.New("item membership violated")
	ErrPropertyMissing = errors.New("property missing")
	ErrNonNumericValue = errors.New("value is not numeric")
)

// ValidationError describes a precondition that failed for an operation.
type ValidationError struct {
	Operation string
	Caller    string
	Kind      error
	Key       string
	Value     any
	message   string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Operation, e.message, e.Value)
}

// Unwrap returns the failure kind.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// KindName returns a short stable name for the failure kind, suitable for
// metric labels and API responses.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrShape):
		return "shape"
	case errors.Is(err, ErrMembership):
		return "membership"
	case errors.Is(err, ErrPropertyMissing):
		return "property_missing"
	case errors.Is(err, ErrNonNumericValue):
		return "non_numeric"
	default:
		return "unknown"
	}
}

package dataset

import (
	"fmt"

	"github.com/Veraticus/carprice/internal/common"
)

// PreparationError reports a structural problem with the input as a whole, such as an
// empty batch or an inference request that does not hold exactly one row.
type PreparationError struct {
	Reason string
}

func (e *PreparationError) Error() string {
	return "preparation failed: " + e.Reason
}

func (e *PreparationError) Unwrap() error {
	return common.ErrPreparation
}

// ValueError names the single feature (or parameter) and value that failed validation
// or coercion. Err, when set, carries the underlying cause.
type ValueError struct {
	Err    error
	Name   string
	Value  string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid value %q for %q: %s", e.Value, e.Name, e.Reason)
}

func (e *ValueError) Unwrap() []error {
	if e.Err == nil {
		return []error{common.ErrInvalidValue}
	}
	return []error{common.ErrInvalidValue, e.Err}
}

func preparationErrorf(format string, args ...any) error {
	return &PreparationError{Reason: fmt.Sprintf(format, args...)}
}

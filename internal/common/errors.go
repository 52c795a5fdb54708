// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Preparation errors.
	ErrSchema       = errors.New("schema error")
	ErrPreparation  = errors.New("preparation error")
	ErrInvalidValue = errors.New("invalid value")
	ErrCoercion     = errors.New("coercion failed")

	// Model errors.
	ErrModelNotLoaded = errors.New("model is not loaded or trained")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsClientError reports whether err was caused by the caller's input rather than the
// service: structural preparation failures and invalid or uncoercible values.
func IsClientError(err error) bool {
	return errors.Is(err, ErrPreparation) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrCoercion)
}

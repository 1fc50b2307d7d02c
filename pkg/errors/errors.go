// Package errors defines the sentinel errors shared by the indexing, scoring
// and evaluation stages, plus an AppError wrapper that carries a CLI exit code.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration   = errors.New("invalid configuration")
	ErrEmptyCollection = errors.New("empty document collection")
	ErrMalformedInput  = errors.New("malformed input")
	ErrAlreadyWeighted = errors.New("index already weighted")
	ErrPrecondition    = errors.New("precondition violated")
	ErrNotFound        = errors.New("not found")
	ErrStorage         = errors.New("storage failure")
)

const (
	ExitFailure         = 1
	ExitConfiguration   = 2
	ExitEmptyCollection = 3
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCodeFor(sentinel),
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCodeFor(sentinel),
	}
}

// Is and As are re-exported so callers importing this package under the name
// errors keep access to the standard helpers.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

// ExitCode returns the process exit code for err. A nil error maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.ExitCode != 0 {
		return appErr.ExitCode
	}
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrEmptyCollection):
		return ExitEmptyCollection
	default:
		return ExitFailure
	}
}

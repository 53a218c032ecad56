package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// PanicError replaces a panic recovered by Recover.
type PanicError struct {
	Value any
	// Stack is nil when stack capture is disabled.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panic value that is itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// TimeoutError is returned by Timeout when the deadline passes before the
// handler finishes.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return "request timed out after " + e.After.String()
}

// StatusCode makes timeouts answer 503.
func (e *TimeoutError) StatusCode() int { return http.StatusServiceUnavailable }

// IsPanicError reports whether err wraps a *PanicError.
func IsPanicError(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}

// IsTimeoutError reports whether err wraps a *TimeoutError.
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

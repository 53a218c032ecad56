package internal

import (
	"errors"
	"net/http"
)

var (
	ErrUnresolvableParameter = errors.New("dispatch: unresolvable parameter")
	ErrNotInstantiable       = errors.New("dispatch: type is not instantiable")
	ErrRouteNotFound         = errors.New("dispatch: route not found")
	ErrForwardLoopDetected   = errors.New("dispatch: forward loop detected")
	ErrInvalidForward        = errors.New("dispatch: invalid forward target")
	ErrInvalidOutcome        = errors.New("dispatch: action returned no outcome")
	ErrViewNotFound          = errors.New("view: not found")
	ErrSessionNotConfigured  = errors.New("session: not configured")
)

// HTTPError ends a request with a chosen status. Message is safe to show
// visitors; Err is only logged.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

func (e *HTTPError) Error() string   { return e.Message }
func (e *HTTPError) Unwrap() error   { return e.Err }
func (e *HTTPError) StatusCode() int { return e.Code }

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// WithError records the cause behind an HTTPError.
func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) { e.Err = err }
}

func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrRequestTooLarge(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusRequestEntityTooLarge, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, opts...)
}

// AsHTTPError returns the first HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}

// IsHTTPError reports whether err's chain holds an HTTPError.
func IsHTTPError(err error) bool { return AsHTTPError(err) != nil }

// StatusFor maps err onto a response status. The first error in the chain
// with a positive StatusCode decides; unmatched routes are 404 and
// everything else is 500.
func StatusFor(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) && sc.StatusCode() > 0 {
		return sc.StatusCode()
	}
	if errors.Is(err, ErrRouteNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

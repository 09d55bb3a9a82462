package parkes

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is a request-time error carrying the status the response should
// be written with. Errors of any other type are written as 500.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

// NewHTTPError returns an HTTPError with the given status and message.
func NewHTTPError(status int, msg string) *HTTPError {
	return &HTTPError{Status: status, Message: msg}
}

// NotFound reports a missing record for resource.
func NotFound(resource string, id any) *HTTPError {
	return NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s %v not found", resource, id))
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

func errorStatus(err error) int {
	var he *HTTPError
	if errors.As(err, &he) && he.Status != 0 {
		return he.Status
	}
	return http.StatusInternalServerError
}

// errorMessage hides internal error text from clients.
func errorMessage(err error) string {
	var he *HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return http.StatusText(errorStatus(err))
}

// ConfigError reports a resource declaration that cannot be served. It is
// raised while routes are declared, before any request is handled.
type ConfigError struct {
	Resource string
	Msg      string
}

func (e *ConfigError) Error() string {
	if e.Resource == "" {
		return "parkes: " + e.Msg
	}
	return fmt.Sprintf("parkes: resource %s: %s", e.Resource, e.Msg)
}

func configErrorf(resource, format string, args ...any) *ConfigError {
	return &ConfigError{Resource: resource, Msg: fmt.Sprintf(format, args...)}
}

package integration

import (
	"errors"
	"fmt"
)

// ErrMissingAPIURL is the only check Register performs on a system
var ErrMissingAPIURL = errors.New("api_url is required")

// NotFoundError reports a dispatch to an id the registry does not know
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("system not found: %s", e.ID)
}

// InactiveError reports a dispatch to a system registered with Active=false
type InactiveError struct {
	ID string
}

func (e *InactiveError) Error() string {
	return fmt.Sprintf("system is inactive: %s", e.ID)
}

// TransportError wraps a network, timeout or decoding failure of one attempt
type TransportError struct {
	Attempt int
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("attempt %d: %v", e.Attempt, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError reports a non-2xx response
type HTTPStatusError struct {
	Attempt    int
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("attempt %d: HTTP %d: %s", e.Attempt, e.StatusCode, e.Status)
}

// FunctionNotFoundError reports a custom function invoked by an unregistered name
type FunctionNotFoundError struct {
	Name string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("function not found: %s", e.Name)
}

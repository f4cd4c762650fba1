package api

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the server reports the session (or message)
// does not exist. Callers use this to navigate away instead of retrying.
var ErrNotFound = errors.New("not found")

// RequestError is any REST call failure other than not-found: a network
// error or a non-2xx response. Non-fatal; surfaced to the user as an alert.
type RequestError struct {
	Op         string
	StatusCode int // 0 when the request never reached the server
	Reason     string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Reason, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ValidationError rejects a message before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid message: " + e.Reason
}

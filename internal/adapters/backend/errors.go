package backend

import (
	"errors"
	"fmt"
)

// Sentinel kinds for backend errors. These allow errors.Is/As from callers.
var (
	// ErrTransport marks a request that never produced an HTTP response.
	ErrTransport = errors.New("backend unreachable")

	// ErrAuth marks a failed credential acquisition.
	ErrAuth = errors.New("authentication failed")
)

// APIError is an application-level failure: the backend answered with a
// non-2xx status. Detail carries the backend-supplied message when present;
// otherwise Error falls back to the generic template.
type APIError struct {
	Op     string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("failed to %s (%d)", e.Op, e.Status)
}

// newAPIError builds an APIError from a non-2xx response, preferring the
// backend's detail message.
func newAPIError(op string, r *Response) *APIError {
	return &APIError{Op: op, Status: r.Status, Detail: r.Detail()}
}

// IsApplicationError reports whether err is an application-level (non-2xx)
// failure rather than a transport or auth failure.
func IsApplicationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRateLimited marks a provider 429 response.
var ErrRateLimited = errors.New("provider rate limit hit")

// Error is returned when a provider call fails after all retries.
type Error struct {
	// URL is the provider endpoint that failed.
	URL string
	// Attempts is the total number of attempts made.
	Attempts int
	// Status is the last HTTP status observed, 0 if the call never completed.
	Status int
	// Err is the last underlying error.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err is (or wraps) an upstream failure.
func IsUpstream(err error) bool {
	var ue *Error
	return errors.As(err, &ue)
}

// statusError represents a non-2xx provider response.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s)", e.status, http.StatusText(e.status))
}

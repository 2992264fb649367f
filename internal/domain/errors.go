package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork marks transport failures and non-success responses.
	ErrNetwork = errors.New("network error")

	// ErrEmptyQuery is returned by callers that validate search text before
	// it reaches the geocoder.
	ErrEmptyQuery = errors.New("query too short")

	// Device geolocation failures. All are non-fatal for the resolver.
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("geolocation position unavailable")
	ErrTimeout             = errors.New("geolocation timed out")
)

// NetworkError describes a failed call to an external HTTP service.
type NetworkError struct {
	Op     string // "forward", "reverse", "locate", ...
	Status int    // HTTP status, 0 when the request never completed
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}

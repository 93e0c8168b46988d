package servicebus

import (
	"fmt"
	"net/http"
)

// APIError is returned by every Client call that fails, be it due to
// transport, authentication or a response that could not be understood.
//
type APIError struct {
	// Op names the call that failed (e.g., "list queues").
	//
	Op string

	// StatusCode is the HTTP status of the response, or zero if no
	// response was received.
	//
	StatusCode int

	Err error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d (%s): %v",
			e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAuthentication tells whether the management API refused the client
// certificate.
//
func (e *APIError) IsAuthentication() bool {
	return e.StatusCode == http.StatusUnauthorized ||
		e.StatusCode == http.StatusForbidden
}

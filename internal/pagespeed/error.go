package pagespeed

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the PageSpeed API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

// Transient reports whether the failure is worth retrying: rate limiting or
// a server-side 5xx. Everything else (bad request, not found, quota denial)
// will not resolve on its own.
func (e *APIError) Transient() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

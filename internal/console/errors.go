package console

import (
	"errors"
	"fmt"
)

// Endpoint names used in errors, logs and metrics labels.
const (
	EndpointList   = "list"
	EndpointDetail = "detail"
)

// Request outcomes, as reported by Outcome.
const (
	OutcomeOK             = "ok"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
)

// APIError is returned when the console answers with a non-200 status.
type APIError struct {
	Endpoint   string
	URL        string
	StatusCode int
	Status     string
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("console %s request %s: unexpected status %s", e.Endpoint, e.URL, e.Status)
}

// TransportError wraps failures to reach the console at all: DNS, refused
// connections, timeouts, cancelled contexts.
type TransportError struct {
	Endpoint string
	URL      string
	Err      error
}

// Error implements the error interface for TransportError.
func (e *TransportError) Error() string {
	return fmt.Sprintf("console %s request %s: %v", e.Endpoint, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is returned when a 200 response does not carry valid JSON.
type DecodeError struct {
	Endpoint string
	URL      string
	Err      error
}

// Error implements the error interface for DecodeError.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("console %s response %s: invalid JSON: %v", e.Endpoint, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Outcome classifies err for metrics labelling.
func Outcome(err error) string {
	var (
		apiErr    *APIError
		decodeErr *DecodeError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &apiErr):
		return OutcomeHTTPError
	case errors.As(err, &decodeErr):
		return OutcomeDecodeError
	default:
		return OutcomeTransportError
	}
}

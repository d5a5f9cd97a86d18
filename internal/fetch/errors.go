package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors for fetch failures.
// Use errors.Is with these; use errors.As with *TransportError and
// *StatusError to reach the URL and status code.
var (
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("transport failure")

	// ErrHTTPStatus matches every *StatusError.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge is wrapped in a *TransportError when a response body
	// exceeds the configured maximum size.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrInvalidProxyAddress is returned when the proxy address is not in
	// "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// TransportError reports that no HTTP response could be obtained:
// DNS failure, refused connection, timeout, cancellation, or a body that
// could not be read in full.
type TransportError struct {
	// URL is the requested URL.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// StatusError reports a response whose status code is outside 2xx.
type StatusError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Status is the status line text, such as "404 Not Found".
	Status string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d", e.StatusCode)
	}
	return fmt.Sprintf("request to %s returned %s", e.URL, status)
}

// Is reports whether target is ErrHTTPStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

package reporter

import (
	"fmt"
	"net/http"
)

// UpstreamError is a non-200 answer from the API. Body is kept for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("reporter: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus reports the response status code.
func (e *UpstreamError) HTTPStatus() int { return e.StatusCode }

// TransportError is a failure to reach the API or read its answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("reporter: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatus reports 503 so transport failures classify as transient.
func (e *TransportError) HTTPStatus() int { return http.StatusServiceUnavailable }

package resilience

import (
	"context"
	"errors"
	"net"
)

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// IsTransient reports whether err is worth retrying: network timeouts and
// errors whose HTTP status is 408, 429 or 5xx. Context errors never are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return IsTransientHTTPStatus(sc.HTTPStatus())
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsTransientHTTPStatus reports whether a status code indicates a
// server-side condition that may clear on its own.
func IsTransientHTTPStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

package marketplace

import (
	"errors"
	"fmt"
)

// ErrDecodeResponse is returned when a 2xx response body is not the expected JSON.
var ErrDecodeResponse = errors.New("decode response")

// HTTPStatusError is returned for non-2xx responses. Body holds the (truncated) response
// body for diagnostics.
type HTTPStatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// NetworkError wraps transport failures: DNS, refused connections, timeouts, broken bodies.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// ErrNoCookie is returned when a cookie asked for by name is not in the jar.
var ErrNoCookie = errors.New("no such cookie")

// TransportError wraps any failure after compilation: resolution, dialing,
// TLS, timeouts and malformed responses. It is never retried.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a connect or read timeout.
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, os.ErrDeadlineExceeded)
}

// ControlHeaderError reports a control header whose value cannot be used.
type ControlHeaderError struct {
	Header string
	Value  string
	Err    error
}

func (e *ControlHeaderError) Error() string {
	return fmt.Sprintf("invalid %s value %q: %v", e.Header, e.Value, e.Err)
}

func (e *ControlHeaderError) Unwrap() error {
	return e.Err
}

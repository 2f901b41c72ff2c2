package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// RequestError is returned when a call to the assistant service fails.
// Status is zero when no HTTP response was received.
type RequestError struct {
	Status  int
	Message string
	Err     error

	network bool
}

func (e *RequestError) Error() string {
	return "API error: " + e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }

// Network reports whether the failure happened below HTTP: the connection
// was refused, reset or could not be resolved. Timeouts are not network
// failures.
func (e *RequestError) Network() bool { return e.network }

func isNetworkError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return false
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}

package errors

import (
	stderr "errors"
	"fmt"
	"time"
)

// ConnectionError reports a failure to spawn the analysis server process or
// to set up its streams. The transport is fully disconnected before this is
// returned; it is never left half-open.
type ConnectionError struct {
	ServerPath string
	Err        error
}

// Error is an implementation of the error interface.
func (c *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to analysis server %q: %v", c.ServerPath, c.Err)
}

// Unwrap returns the underlying error.
func (c *ConnectionError) Unwrap() error {
	return c.Err
}

// StartupError reports that the analysis server signaled failure on its
// output stream during the readiness wait.
type StartupError struct {
	Line string
}

// Error is an implementation of the error interface.
func (s *StartupError) Error() string {
	return fmt.Sprintf("analysis server failed during startup: %s", s.Line)
}

// TimeoutError reports that a readiness or request/response wait exceeded its budget.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

// Error is an implementation of the error interface.
func (t *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", t.Op, t.Timeout)
}

// IsTimeout reports whether a TimeoutError is part of the error chain.
func IsTimeout(e error) bool {
	var te *TimeoutError
	return stderr.As(e, &te)
}

// NotConnectedError reports a send or receive attempted without a live connection.
type NotConnectedError struct {
	Op string
}

// Error is an implementation of the error interface.
func (n *NotConnectedError) Error() string {
	return fmt.Sprintf("%s: transport is not connected", n.Op)
}

// MalformedHeaderError reports a Content-Length header whose declared length
// is not a valid non-negative integer.
type MalformedHeaderError struct {
	Header string
}

// Error is an implementation of the error interface.
func (m *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed Content-Length header: %q", m.Header)
}

// TruncatedStreamError reports a stream that ended before the declared body
// length was satisfied.
type TruncatedStreamError struct {
	Expected int
	Read     int
}

// Error is an implementation of the error interface.
func (t *TruncatedStreamError) Error() string {
	return fmt.Sprintf("stream ended after %d of %d body bytes", t.Read, t.Expected)
}

// RequestFailedError reports a request the analysis server answered with a failure.
type RequestFailedError struct {
	Command string
	Message string
}

// Error is an implementation of the error interface.
func (r *RequestFailedError) Error() string {
	return fmt.Sprintf("command %q failed: %s", r.Command, r.Message)
}

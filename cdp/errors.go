package cdp

import (
	"errors"
	"fmt"
	"time"
)

// ErrConnClosed is returned by calls that were in flight (or issued) after
// the underlying websocket connection was lost or closed.
var ErrConnClosed = errors.New("cdp: connection closed")

// ProtocolError is an error the browser returned for a command.
type ProtocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("cdp: protocol error %d: %s", e.Code, e.Message)
}

// CallTimeoutError is returned when the browser did not respond to a command
// within the connection's call timeout. The command may still complete on the
// browser side; retrying is the caller's decision.
type CallTimeoutError struct {
	Method  string
	Timeout time.Duration
}

func (e *CallTimeoutError) Error() string {
	return fmt.Sprintf("cdp: no response to %s within %s", e.Method, e.Timeout)
}

// DecodeError is returned when a command succeeded remotely but its result
// did not unmarshal into the expected return type. This usually indicates a
// protocol version skew and is not retried.
type DecodeError struct {
	Method string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cdp: decoding %s result: %s", e.Method, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

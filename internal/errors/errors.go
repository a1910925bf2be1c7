package errors

import (
	"errors"
	"fmt"
)

// BridgeError is the base interface for all bridge errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*HostNotFoundError)(nil)
	_ BridgeError = (*ConnectionError)(nil)
	_ BridgeError = (*ProcessError)(nil)
	_ BridgeError = (*JSONDecodeError)(nil)
	_ BridgeError = (*ResponseError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.New("client closed: clients are single-use, create a new one with New()")

	// ErrTransportNotConnected indicates the transport has not been started.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrTransportClosed indicates the transport was closed or the host went away.
	ErrTransportClosed = errors.New("transport closed")

	// ErrHostUnreachable indicates there is no host context to post messages to.
	ErrHostUnreachable = errors.New("host unreachable")

	// ErrRequestTimeout indicates a request timed out.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrDuplicateToken indicates a correlation token is already pending.
	ErrDuplicateToken = errors.New("duplicate correlation token")

	// ErrUnsupportedTransport indicates a transport kind is not recognized.
	ErrUnsupportedTransport = errors.New("unsupported transport")
)

// HostNotFoundError indicates the host executable could not be located.
type HostNotFoundError struct {
	Command string
	Err     error
}

func (e *HostNotFoundError) Error() string {
	return fmt.Sprintf("host command %q not found: %v", e.Command, e.Err)
}

func (e *HostNotFoundError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *HostNotFoundError) IsBridgeError() bool { return true }

// ConnectionError indicates failure to connect to the host.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("failed to connect to host: %v", e.Err)
	}

	return fmt.Sprintf("failed to connect to host at %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ConnectionError) IsBridgeError() bool { return true }

// ProcessError indicates a spawned host process failed.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("host process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("host process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ProcessError) IsBridgeError() bool { return true }

// JSONDecodeError indicates an inbound frame was not a JSON object.
// This error preserves the original raw data that failed to parse.
type JSONDecodeError struct {
	RawData string
	Err     error
}

func (e *JSONDecodeError) Error() string {
	return fmt.Sprintf("failed to decode JSON from host: %v", e.Err)
}

func (e *JSONDecodeError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *JSONDecodeError) IsBridgeError() bool { return true }

// ResponseError is the error form of a non-success Response.
type ResponseError struct {
	Code      int
	Cmd       string
	MessageID string
	Message   string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed with code %d", e.Cmd, e.Code)
	}

	return fmt.Sprintf("%s failed with code %d: %s", e.Cmd, e.Code, e.Message)
}

// Is reports timeout responses as ErrRequestTimeout.
func (e *ResponseError) Is(target error) bool {
	return target == ErrRequestTimeout && e.Code == TimeoutCode
}

// IsBridgeError implements BridgeError.
func (e *ResponseError) IsBridgeError() bool { return true }

// TimeoutCode mirrors message.CodeTimeout so ResponseError can match
// ErrRequestTimeout without importing the message package.
const TimeoutCode = 4008

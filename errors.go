package bridge

import "github.com/wagiedev/miniapp-bridge-go/internal/errors"

// Re-export error types from internal package

// HostNotFoundError indicates the host executable was not found.
type HostNotFoundError = errors.HostNotFoundError

// ConnectionError indicates failure to connect to the host.
type ConnectionError = errors.ConnectionError

// ProcessError indicates the host process failed.
type ProcessError = errors.ProcessError

// JSONDecodeError indicates an inbound line was not a JSON object.
type JSONDecodeError = errors.JSONDecodeError

// ResponseError is returned by Response.Err for non-success responses.
type ResponseError = errors.ResponseError

// BridgeError is the base interface for all bridge errors.
type BridgeError = errors.BridgeError

// Re-export sentinel errors from internal package.
var (
	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.ErrClientClosed

	// ErrTransportNotConnected indicates the transport has not been started.
	ErrTransportNotConnected = errors.ErrTransportNotConnected

	// ErrTransportClosed indicates the transport was closed or the host went away.
	ErrTransportClosed = errors.ErrTransportClosed

	// ErrHostUnreachable indicates there is no host to post messages to.
	ErrHostUnreachable = errors.ErrHostUnreachable

	// ErrRequestTimeout matches timeout responses via errors.Is on Response.Err.
	ErrRequestTimeout = errors.ErrRequestTimeout
)

// Package config provides configuration types for the bridge client.
package config

import "context"

// Listener receives every decoded inbound message from the host.
type Listener func(msg map[string]any)

// Transport defines the interface for host communication.
// Implement this to provide custom transports for testing, mocking,
// or alternative channels (e.g., a WebSocket or a message broker).
//
// Inbound messages are delivered to listeners rather than pulled from a
// channel, so any number of clients can share one transport.
type Transport interface {
	// Start initializes the transport and begins delivering inbound messages.
	// Calling Start on a started transport is a no-op.
	Start(ctx context.Context) error

	// SendMessage posts one encoded message to the host.
	// This method must be safe for concurrent use.
	SendMessage(ctx context.Context, data []byte) error

	// Listen registers fn for inbound messages and returns a function that
	// removes it. The remove function is idempotent.
	Listen(fn Listener) (remove func())

	// IsReady reports whether the host side is present.
	IsReady() bool

	// Close terminates the transport and releases resources.
	// It's safe to call Close multiple times.
	Close() error
}

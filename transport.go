package bridge

import (
	"io"
	"log/slog"

	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/natsbridge"
	"github.com/wagiedev/miniapp-bridge-go/internal/stream"
	"github.com/wagiedev/miniapp-bridge-go/internal/subprocess"
	"github.com/wagiedev/miniapp-bridge-go/internal/wsbridge"
)

// Transport carries messages between clients and the host.
// Implement this to reach a host by other means, or to fake one in tests.
//
// Clients created on the same comparable Transport value share one inbound
// listener. A non-comparable value gives each client its own listener.
type Transport = config.Transport

// Listener receives every inbound message decoded by a Transport.
type Listener = config.Listener

// Configuration for the bundled transports.
type (
	HostConfig      = subprocess.Config
	WebSocketConfig = wsbridge.Config
	NATSConfig      = natsbridge.Config
)

// StreamOption configures a stream transport.
type StreamOption = stream.Option

// Stream transport options.
var (
	WithStreamCloser      = stream.WithCloser
	WithStreamMaxLineSize = stream.WithMaxLineSize
)

// StdioTransport returns the process-wide transport over stdin and stdout.
// It is unreachable when stdin is a terminal.
func StdioTransport() Transport {
	return stream.Stdio()
}

// NewStreamTransport exchanges newline-delimited JSON over r and w.
func NewStreamTransport(log *slog.Logger, r io.Reader, w io.Writer, opts ...StreamOption) Transport {
	return stream.New(orNop(log), r, w, opts...)
}

// NewHostTransport spawns the host command and talks to it over its stdio.
func NewHostTransport(log *slog.Logger, cfg HostConfig) Transport {
	return subprocess.NewHostTransport(orNop(log), cfg)
}

// NewWebSocketTransport dials the host over WebSocket.
func NewWebSocketTransport(log *slog.Logger, cfg WebSocketConfig) Transport {
	return wsbridge.New(orNop(log), cfg)
}

// NewNATSTransport exchanges messages with the host through NATS subjects.
func NewNATSTransport(log *slog.Logger, cfg NATSConfig) Transport {
	return natsbridge.New(orNop(log), cfg)
}

func orNop(log *slog.Logger) *slog.Logger {
	if log == nil {
		return NopLogger()
	}

	return log
}

package bridge

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/metrics"
)

// Options holds client configuration.
type Options = config.Options

// TokenSource mints correlation tokens.
type TokenSource = config.TokenSource

// DefaultTimeout bounds how long a call waits for its reply.
const DefaultTimeout = config.DefaultTimeout

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options and fills in defaults.
func applyOptions(opts []Option) *Options {
	converted := make([]config.Option, 0, len(opts))
	for _, opt := range opts {
		converted = append(converted, config.Option(opt))
	}

	return config.Apply(converted...)
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithTimeout sets how long each call waits for its reply.
// Non-positive values select DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithTransport sets the transport used to reach the host.
// If not set, the process stdin and stdout are used.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}

// WithNoTimeoutCommands replaces the list of commands that wait for their
// reply indefinitely. Pass no names to time out every command.
func WithNoTimeoutCommands(names ...string) Option {
	return func(o *Options) {
		o.NoTimeoutCommands = append([]string{}, names...)
	}
}

// WithClock sets the clock driving call timers. Tests pass clock.NewMock().
func WithClock(clk clock.Clock) Option {
	return func(o *Options) {
		o.Clock = clk
	}
}

// WithMetrics records call outcomes on a Prometheus registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Options) {
		o.Metrics = metrics.NewRecorder(reg)
	}
}

// WithTokenSource sets the source of correlation tokens.
func WithTokenSource(tokens TokenSource) Option {
	return func(o *Options) {
		o.Tokens = tokens
	}
}

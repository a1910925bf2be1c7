package config

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/wagiedev/miniapp-bridge-go/internal/command"
	"github.com/wagiedev/miniapp-bridge-go/internal/metrics"
	"github.com/wagiedev/miniapp-bridge-go/internal/token"
)

// DefaultTimeout bounds how long a call waits for its reply.
const DefaultTimeout = 30 * time.Second

// TokenSource mints correlation tokens.
type TokenSource interface {
	Next() string
}

// Options configures the behavior of a bridge client.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Timeout bounds every call except those in NoTimeoutCommands.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// NoTimeoutCommands lists commands that wait for their reply indefinitely.
	// If nil, openURL and scanQRCode are used.
	NoTimeoutCommands []string

	// Transport carries messages to and from the host.
	// If nil, the process stdio transport is used.
	Transport Transport `json:"-"`

	// Clock drives call timers. If nil, the wall clock is used.
	Clock clock.Clock `json:"-"`

	// Metrics records call outcomes. If nil, nothing is recorded.
	Metrics *metrics.Recorder `json:"-"`

	// Tokens mints correlation tokens. If nil, random UUIDs are used.
	Tokens TokenSource `json:"-"`
}

// Option configures Options using the functional options pattern.
type Option func(*Options)

// Apply builds Options from opts and fills in defaults.
func Apply(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	o.setDefaults()

	return o
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}

	if o.NoTimeoutCommands == nil {
		o.NoTimeoutCommands = append([]string(nil), command.DefaultNoTimeout...)
	}

	if o.Clock == nil {
		o.Clock = clock.New()
	}

	if o.Tokens == nil {
		o.Tokens = token.NewGenerator()
	}
}

// TimeoutFor returns the timer duration for cmd; zero means no timer.
func (o *Options) TimeoutFor(cmd string) time.Duration {
	if command.IsNoTimeout(o.NoTimeoutCommands, cmd) {
		return 0
	}

	return o.Timeout
}

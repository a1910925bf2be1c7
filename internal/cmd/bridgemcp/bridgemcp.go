// Package bridgemcp parses bridge-mcp configuration and runs the MCP gateway.
package bridgemcp

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/miniapp-bridge-go/internal/client"
	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	bridgeerrors "github.com/wagiedev/miniapp-bridge-go/internal/errors"
	"github.com/wagiedev/miniapp-bridge-go/internal/mcp"
	"github.com/wagiedev/miniapp-bridge-go/internal/metrics"
	"github.com/wagiedev/miniapp-bridge-go/internal/natsbridge"
	"github.com/wagiedev/miniapp-bridge-go/internal/stream"
	"github.com/wagiedev/miniapp-bridge-go/internal/subprocess"
	"github.com/wagiedev/miniapp-bridge-go/internal/wsbridge"
)

// Transport kinds.
const (
	TransportStdio     = "stdio"
	TransportExec      = "exec"
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
)

const (
	serverName      = "miniapp-bridge"
	shutdownTimeout = 5 * time.Second
)

// Version is reported to MCP clients.
var Version = "dev"

// Config holds bridge-mcp configuration.
type Config struct {
	Transport    string        `env:"BRIDGE_TRANSPORT"      envDefault:"exec"`
	HostCommand  string        `env:"BRIDGE_HOST_COMMAND"`
	WebSocketURL string        `env:"BRIDGE_WEBSOCKET_URL"`
	NATSURL      string        `env:"BRIDGE_NATS_URL"`
	NATSSubject  string        `env:"BRIDGE_NATS_SUBJECT"   envDefault:"miniapp.bridge"`
	Timeout      time.Duration `env:"BRIDGE_TIMEOUT"        envDefault:"30s"`
	LogLevel     string        `env:"BRIDGE_LOG_LEVEL"      envDefault:"info"`
	MetricsAddr  string        `env:"BRIDGE_METRICS_ADDR"`

	// MCPAddr serves MCP over streamable HTTP instead of stdio. It is
	// required when the host itself is reached over stdio.
	MCPAddr string `env:"BRIDGE_MCP_ADDR"`
}

// ParseConfig parses environment and flags into a Config. A nil environ
// reads the process environment.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "host transport: stdio, exec, websocket or nats")
	fs.StringVar(&cfg.HostCommand, "host-command", cfg.HostCommand, "host command line (exec transport)")
	fs.StringVar(&cfg.WebSocketURL, "websocket-url", cfg.WebSocketURL, "host WebSocket URL")
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-call reply timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address for the /metrics endpoint")
	fs.StringVar(&cfg.MCPAddr, "mcp-addr", cfg.MCPAddr, "serve MCP over HTTP on this address")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the selected transport has what it needs.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportStdio:
		if c.MCPAddr == "" {
			return errors.New("stdio transport requires BRIDGE_MCP_ADDR since stdio carries MCP")
		}
	case TransportExec:
		if c.HostCommand == "" {
			return errors.New("exec transport requires BRIDGE_HOST_COMMAND")
		}
	case TransportWebSocket:
		if c.WebSocketURL == "" {
			return errors.New("websocket transport requires BRIDGE_WEBSOCKET_URL")
		}
	case TransportNATS:
		if c.NATSURL == "" {
			return errors.New("nats transport requires BRIDGE_NATS_URL")
		}
	default:
		return fmt.Errorf("%w: %q", bridgeerrors.ErrUnsupportedTransport, c.Transport)
	}

	return nil
}

// NewLogger creates the process logger. Logs go to stderr since stdout may
// carry MCP.
func NewLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// NewTransport creates the host transport selected by cfg.
func NewTransport(cfg Config, log *slog.Logger) (config.Transport, error) {
	switch cfg.Transport {
	case TransportStdio:
		return stream.New(log, os.Stdin, os.Stdout), nil
	case TransportExec:
		return subprocess.NewHostTransport(log, subprocess.Config{
			Command: cfg.HostCommand,
			Stderr: func(line string) {
				log.Debug("Host stderr", "line", line)
			},
		}), nil
	case TransportWebSocket:
		return wsbridge.New(log, wsbridge.Config{URL: cfg.WebSocketURL}), nil
	case TransportNATS:
		return natsbridge.New(log, natsbridge.Config{URL: cfg.NATSURL, Subject: cfg.NATSSubject}), nil
	default:
		return nil, fmt.Errorf("%w: %q", bridgeerrors.ErrUnsupportedTransport, cfg.Transport)
	}
}

// Run connects to the host and serves MCP until ctx is done or the MCP peer
// goes away.
func Run(ctx context.Context, cfg Config) error {
	log, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	transport, err := NewTransport(cfg, log)
	if err != nil {
		return err
	}

	defer func() {
		if err := transport.Close(); err != nil {
			log.Warn("Failed to close host transport", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()

	c := client.New(config.Apply(func(o *config.Options) {
		o.Logger = log
		o.Timeout = cfg.Timeout
		o.Transport = transport
		o.Metrics = metrics.NewRecorder(registry)
	}))
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("connect to host: %w", err)
	}

	server := mcp.NewServer(c, log, serverName, Version)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)

	if cfg.MetricsAddr != "" {
		handler := http.NewServeMux()
		handler.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

		g.Go(func() error {
			return serveHTTP(gCtx, log, cfg.MetricsAddr, handler)
		})
	}

	g.Go(func() error {
		defer cancel()

		if cfg.MCPAddr != "" {
			handler := mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
				return server.MCP()
			}, nil)

			return serveHTTP(gCtx, log, cfg.MCPAddr, handler)
		}

		return server.Run(gCtx, &mcpsdk.StdioTransport{})
	})

	return g.Wait()
}

// serveHTTP serves handler on addr until ctx is done.
func serveHTTP(ctx context.Context, log *slog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown %s: %w", addr, err)
	}

	return nil
}

// Package natsbridge provides a transport that reaches the host through a
// NATS server.
//
// Outgoing messages are published on "<subject>.host"; the host publishes its
// replies on "<subject>.client".
package natsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
	"github.com/wagiedev/miniapp-bridge-go/internal/fanout"
)

// DefaultSubject is the subject prefix used when Config.Subject is empty.
const DefaultSubject = "miniapp.bridge"

// Config configures the NATS transport.
type Config struct {
	// URL is the NATS server URL.
	URL string

	// Subject is the subject prefix shared with the host.
	Subject string

	// Name identifies the connection on the server.
	Name string

	// Conn reuses an existing connection instead of dialing URL.
	// A reused connection is not closed by Close.
	Conn *comms.Conn
}

// HostSubject returns the subject the client publishes requests on.
func HostSubject(prefix string) string {
	return prefix + ".host"
}

// ClientSubject returns the subject the host publishes replies on.
func ClientSubject(prefix string) string {
	return prefix + ".client"
}

// Transport implements config.Transport over NATS subjects.
type Transport struct {
	log *slog.Logger
	cfg Config

	listeners fanout.Set

	mu      sync.Mutex
	nc      *comms.Conn
	owned   bool
	sub     *comms.Subscription
	closing bool
}

// Compile-time verification that Transport implements the Transport interface.
var _ config.Transport = (*Transport)(nil)

// New creates a NATS transport. The connection is made by Start.
func New(log *slog.Logger, cfg Config) *Transport {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}

	if cfg.Name == "" {
		cfg.Name = "miniapp-bridge"
	}

	return &Transport{
		log: log.With("component", "nats_transport", "subject", cfg.Subject),
		cfg: cfg,
	}
}

// Start connects to the server and subscribes to host replies.
// Calling Start on a connected transport is a no-op.
//
// Returns ConnectionError if the server cannot be reached.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closing {
		return errors.ErrTransportClosed
	}

	if t.nc != nil {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	nc, owned := t.cfg.Conn, false
	if nc == nil {
		var err error

		nc, err = t.connect()
		if err != nil {
			return &errors.ConnectionError{Endpoint: t.cfg.URL, Err: err}
		}

		owned = true
	}

	sub, err := nc.Subscribe(ClientSubject(t.cfg.Subject), t.handle)
	if err != nil {
		if owned {
			nc.Close()
		}

		return &errors.ConnectionError{Endpoint: t.cfg.URL, Err: fmt.Errorf("subscribe: %w", err)}
	}

	// Make sure the subscription is registered before the first request.
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()

		if owned {
			nc.Close()
		}

		return &errors.ConnectionError{Endpoint: t.cfg.URL, Err: fmt.Errorf("flush: %w", err)}
	}

	t.nc, t.owned, t.sub = nc, owned, sub

	t.log.Info("Connected to host broker", "url", nc.ConnectedUrl())

	return nil
}

func (t *Transport) connect() (*comms.Conn, error) {
	return comms.Connect(t.cfg.URL,
		comms.Name(t.cfg.Name),
		comms.Timeout(10*time.Second),
		comms.ReconnectWait(2*time.Second),
		comms.MaxReconnects(60),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			t.log.Warn("Broker disconnected", "error", err)
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			t.log.Info("Broker reconnected", "url", nc.ConnectedUrl())
		}),
		comms.ClosedHandler(func(*comms.Conn) {
			t.log.Debug("Broker connection closed")
		}),
	)
}

func (t *Transport) handle(m *comms.Msg) {
	var msg map[string]any

	if err := json.Unmarshal(m.Data, &msg); err != nil {
		t.log.Debug("Skipping undecodable message",
			"error", &errors.JSONDecodeError{RawData: string(m.Data), Err: err})

		return
	}

	t.listeners.Emit(msg)
}

// SendMessage publishes data on the host subject.
func (t *Transport) SendMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	nc, closing := t.nc, t.closing
	t.mu.Unlock()

	if closing {
		return errors.ErrTransportClosed
	}

	if nc == nil {
		return errors.ErrTransportNotConnected
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := nc.Publish(HostSubject(t.cfg.Subject), data); err != nil {
		t.log.Error("Failed to publish to host", "error", err)

		return fmt.Errorf("publish to host: %w", err)
	}

	return nil
}

// Listen implements config.Transport. Listeners may be added before Start.
func (t *Transport) Listen(fn config.Listener) func() {
	return t.listeners.Add(fn)
}

// IsReady reports whether the broker connection is up.
func (t *Transport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return !t.closing && t.nc != nil && t.nc.IsConnected()
}

// Close unsubscribes and closes the connection if the transport owns it.
// It's safe to call Close multiple times.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closing {
		return nil
	}

	t.closing = true

	if t.sub != nil {
		if err := t.sub.Unsubscribe(); err != nil {
			t.log.Debug("Unsubscribe failed", "error", err)
		}
	}

	if t.nc != nil && t.owned {
		t.nc.Close()
	}

	return nil
}

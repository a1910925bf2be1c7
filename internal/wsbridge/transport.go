package wsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
	"github.com/wagiedev/miniapp-bridge-go/internal/fanout"
)

const (
	// DefaultPingInterval is how often a ping is sent to keep the socket alive.
	DefaultPingInterval = 30 * time.Second

	writeWait   = 10 * time.Second
	maxReadSize = 4 * 1024 * 1024
)

// Config configures the WebSocket transport.
type Config struct {
	// URL is the host endpoint, e.g. "ws://127.0.0.1:9229/bridge".
	URL string

	// Header is sent with the handshake request.
	Header http.Header

	// PingInterval overrides DefaultPingInterval; negative disables pings.
	PingInterval time.Duration

	// Dialer overrides websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Transport implements config.Transport over a WebSocket connection.
type Transport struct {
	log *slog.Logger
	cfg Config

	listeners fanout.Set

	mu      sync.Mutex // Protects lifecycle fields and serializes writes
	conn    *websocket.Conn
	cancel  context.CancelFunc
	closing bool

	ready atomic.Bool
	done  chan struct{}

	errMu sync.Mutex
	err   error
}

// Compile-time verification that Transport implements the Transport interface.
var _ config.Transport = (*Transport)(nil)

// New creates a WebSocket transport. The connection is dialed by Start.
func New(log *slog.Logger, cfg Config) *Transport {
	if cfg.PingInterval == 0 {
		cfg.PingInterval = DefaultPingInterval
	}

	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	return &Transport{
		log:  log.With("component", "ws_transport", "url", cfg.URL),
		cfg:  cfg,
		done: make(chan struct{}),
	}
}

// Start dials the host and starts the read and ping pumps.
// Calling Start on a connected transport is a no-op.
//
// Returns ConnectionError if the handshake fails.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closing {
		return errors.ErrTransportClosed
	}

	if t.conn != nil {
		return nil
	}

	conn, resp, err := t.cfg.Dialer.DialContext(ctx, t.cfg.URL, t.cfg.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		t.log.Error("Failed to dial host", "error", err)

		return &errors.ConnectionError{Endpoint: t.cfg.URL, Err: err}
	}

	conn.SetReadLimit(maxReadSize)

	// The connection outlives ctx, which only bounds the handshake.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gCtx := errgroup.WithContext(runCtx)

	t.conn = conn
	t.cancel = cancel
	t.ready.Store(true)

	g.Go(func() error { return t.readPump(conn) })

	if t.cfg.PingInterval > 0 {
		g.Go(func() error { return t.pingPump(gCtx, conn) })
	}

	g.Go(func() error {
		<-gCtx.Done()

		return conn.Close()
	})

	go func() {
		defer close(t.done)

		err := g.Wait()
		cancel()
		t.ready.Store(false)
		t.setErr(err)
		t.log.Debug("WebSocket pumps stopped", "error", err)
	}()

	t.log.Info("Connected to host")

	return nil
}

func (t *Transport) readPump(conn *websocket.Conn) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			closing := t.closing
			t.mu.Unlock()

			if closing || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.ErrTransportClosed
			}

			return fmt.Errorf("read from host: %w", err)
		}

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		var msg map[string]any

		if err := json.Unmarshal(data, &msg); err != nil {
			t.log.Debug("Skipping undecodable frame",
				"error", &errors.JSONDecodeError{RawData: string(data), Err: err})

			continue
		}

		t.listeners.Emit(msg)
	}
}

func (t *Transport) pingPump(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("ping host: %w", err)
			}
		}
	}
}

// SendMessage writes data as one text frame. It is safe for concurrent use.
func (t *Transport) SendMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closing {
		return errors.ErrTransportClosed
	}

	if t.conn == nil {
		return errors.ErrTransportNotConnected
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	_ = t.conn.SetWriteDeadline(deadline)

	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.log.Error("Failed to write message to host", "error", err)

		return fmt.Errorf("write to host: %w", err)
	}

	return nil
}

// Listen implements config.Transport. Listeners may be added before Start.
func (t *Transport) Listen(fn config.Listener) func() {
	return t.listeners.Add(fn)
}

// IsReady reports whether the socket is connected.
func (t *Transport) IsReady() bool {
	return t.ready.Load()
}

// Done returns a channel closed when the pumps have stopped. It is never
// closed for a transport that was not started.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Err returns the reason the pumps stopped, if they have.
func (t *Transport) Err() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()

	return t.err
}

func (t *Transport) setErr(err error) {
	t.errMu.Lock()
	defer t.errMu.Unlock()

	t.err = err
}

// Close sends a close frame and tears down the connection.
// It's safe to call Close multiple times.
func (t *Transport) Close() error {
	t.mu.Lock()

	if t.closing {
		t.mu.Unlock()

		return nil
	}

	t.closing = true
	t.ready.Store(false)

	conn, cancel := t.conn, t.cancel
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))

	cancel()
	<-t.done

	return nil
}

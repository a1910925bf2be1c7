package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
	"github.com/wagiedev/miniapp-bridge-go/internal/fanout"
)

const (
	// DefaultMaxLineSize is the largest inbound line accepted.
	// saveImage payloads up to 1 MiB decoded travel as ~1.4 MB of base64.
	DefaultMaxLineSize = 4 * 1024 * 1024
)

// Transport implements config.Transport over a reader/writer pair.
type Transport struct {
	log         *slog.Logger
	r           io.Reader
	w           io.Writer
	closer      io.Closer
	maxLineSize int
	reachable   func() bool

	listeners fanout.Set

	mu       sync.Mutex // Protects writes and lifecycle fields
	started  bool
	closed   bool
	writeErr bool

	ready atomic.Bool
	done  chan struct{}

	errMu   sync.Mutex
	readErr error
}

// Compile-time verification that Transport implements the Transport interface.
var _ config.Transport = (*Transport)(nil)

// Option configures a Transport.
type Option func(*Transport)

// WithCloser sets a closer invoked by Close, typically the underlying pipes.
func WithCloser(c io.Closer) Option {
	return func(t *Transport) { t.closer = c }
}

// WithMaxLineSize overrides DefaultMaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(t *Transport) { t.maxLineSize = n }
}

// WithReachable sets a check run by Start; when it reports false the
// transport stays unready.
func WithReachable(fn func() bool) Option {
	return func(t *Transport) { t.reachable = fn }
}

// New creates a transport reading inbound lines from r and writing to w.
func New(log *slog.Logger, r io.Reader, w io.Writer, opts ...Option) *Transport {
	t := &Transport{
		log:         log.With("component", "stream_transport"),
		r:           r,
		w:           w,
		maxLineSize: DefaultMaxLineSize,
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Start begins reading inbound lines. Calling Start again is a no-op.
//
// Returns ErrHostUnreachable when the reachability check fails.
func (t *Transport) Start(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.ErrTransportClosed
	}

	if t.started {
		return nil
	}

	if t.reachable != nil && !t.reachable() {
		t.log.Debug("Host not attached")

		return errors.ErrHostUnreachable
	}

	t.started = true
	t.ready.Store(true)

	go t.readLoop()

	t.log.Debug("Stream transport started")

	return nil
}

func (t *Transport) readLoop() {
	defer close(t.done)
	defer t.ready.Store(false)
	defer t.log.Debug("Read loop stopped")

	scanner := bufio.NewScanner(t.r)
	scanner.Buffer(make([]byte, 0, min(64*1024, t.maxLineSize)), t.maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg map[string]any

		if err := json.Unmarshal(line, &msg); err != nil {
			t.log.Debug("Skipping undecodable line",
				"error", &errors.JSONDecodeError{RawData: string(line), Err: err})

			continue
		}

		t.listeners.Emit(msg)
	}

	if err := scanner.Err(); err != nil {
		t.log.Error("Scanner error while reading host output", "error", err)
		t.setErr(fmt.Errorf("scanner error: %w", err))

		return
	}

	t.setErr(errors.ErrTransportClosed)
}

// SendMessage writes data as one line.
//
// This method is safe for concurrent use and respects context cancellation
// even during blocking writes. A write abandoned by cancellation leaves the
// transport unready.
func (t *Transport) SendMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.writeErr {
		return errors.ErrTransportClosed
	}

	if !t.started {
		return errors.ErrTransportNotConnected
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Copy so the caller's backing array is never mutated.
	line := make([]byte, len(data), len(data)+1)
	copy(line, data)

	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}

	done := make(chan error, 1)

	go func() {
		_, err := t.w.Write(line)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.log.Error("Failed to write message to host", "error", err)

			return fmt.Errorf("write to host: %w", err)
		}

		return nil

	case <-ctx.Done():
		t.log.Debug("Context cancelled during write")

		t.writeErr = true
		t.ready.Store(false)

		if t.closer != nil {
			_ = t.closer.Close()
		}

		select {
		case <-done:
		case <-time.After(time.Second):
			t.log.Warn("Write goroutine did not exit after close, potential leak")
		}

		return ctx.Err()
	}
}

// Listen implements config.Transport.
func (t *Transport) Listen(fn config.Listener) func() {
	return t.listeners.Add(fn)
}

// IsReady reports whether the transport is started and the reader is open.
func (t *Transport) IsReady() bool {
	return t.ready.Load()
}

// Done returns a channel closed when the read loop exits.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Err returns the reason the read loop exited, if it has.
func (t *Transport) Err() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()

	return t.readErr
}

func (t *Transport) setErr(err error) {
	t.errMu.Lock()
	defer t.errMu.Unlock()

	if t.readErr == nil {
		t.readErr = err
	}
}

// Close marks the transport closed and closes the underlying closer, if any.
// It's safe to call Close multiple times.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true
	t.ready.Store(false)

	if t.closer != nil {
		if err := t.closer.Close(); err != nil {
			return fmt.Errorf("close stream: %w", err)
		}
	}

	return nil
}

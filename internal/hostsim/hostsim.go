// Package hostsim provides an in-memory host for tests and examples.
//
// A Host records every message posted to it and, when a Handler is set,
// answers each one asynchronously. Tests can also inject arbitrary inbound
// messages, toggle reachability and inspect the listeners installed on it.
package hostsim

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
	"github.com/wagiedev/miniapp-bridge-go/internal/fanout"
)

// Handler computes the replies for one posted message. Returning nil sends
// nothing, which leaves the call to its timer.
type Handler func(msg map[string]any) []map[string]any

// Host is an in-memory config.Transport.
type Host struct {
	listeners fanout.Set

	mu      sync.Mutex
	handler Handler
	ready   bool
	closed  bool
	posted  []map[string]any
	notify  chan map[string]any
	wg      sync.WaitGroup
}

// Compile-time verification that Host implements the Transport interface.
var _ config.Transport = (*Host)(nil)

// New creates a reachable host that answers with handler. A nil handler
// records messages without replying.
func New(handler Handler) *Host {
	return &Host{
		handler: handler,
		ready:   true,
		notify:  make(chan map[string]any, 256),
	}
}

// Start implements config.Transport.
func (h *Host) Start(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errors.ErrTransportClosed
	}

	return nil
}

// SendMessage records data and schedules the handler's replies.
func (h *Host) SendMessage(_ context.Context, data []byte) error {
	var msg map[string]any

	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("host received invalid JSON: %w", err)
	}

	h.mu.Lock()

	if h.closed {
		h.mu.Unlock()

		return errors.ErrTransportClosed
	}

	h.posted = append(h.posted, msg)

	select {
	case h.notify <- msg:
	default:
	}

	// Scheduled under the lock so Close never races a new reply.
	if handler := h.handler; handler != nil {
		h.wg.Go(func() {
			for _, reply := range handler(msg) {
				h.Inject(reply)
			}
		})
	}

	h.mu.Unlock()

	return nil
}

// Listen implements config.Transport.
func (h *Host) Listen(fn config.Listener) func() {
	return h.listeners.Add(fn)
}

// IsReady implements config.Transport.
func (h *Host) IsReady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.ready && !h.closed
}

// Close implements config.Transport.
func (h *Host) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.wg.Wait()

	return nil
}

// Inject delivers msg to every listener as if the host had posted it.
func (h *Host) Inject(msg map[string]any) {
	h.listeners.Emit(msg)
}

// SetReady toggles reachability.
func (h *Host) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ready = ready
}

// SetHandler replaces the reply handler.
func (h *Host) SetHandler(handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handler = handler
}

// Posted returns a copy of every message posted so far.
func (h *Host) Posted() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]map[string]any(nil), h.posted...)
}

// Received returns a channel that yields posted messages as they arrive.
// Messages are dropped when nobody keeps up.
func (h *Host) Received() <-chan map[string]any {
	return h.notify
}

// Listeners returns the number of listeners installed on the host.
func (h *Host) Listeners() int {
	return h.listeners.Len()
}

// Wait blocks until every scheduled reply has been delivered.
func (h *Host) Wait() {
	h.wg.Wait()
}

// Success answers every message with a success reply carrying data.
func Success(data any) Handler {
	return func(msg map[string]any) []map[string]any {
		return []map[string]any{Reply(msg, 200, data)}
	}
}

// Echo answers every message with a success reply whose data is the
// message itself.
func Echo() Handler {
	return func(msg map[string]any) []map[string]any {
		return []map[string]any{Reply(msg, 200, msg)}
	}
}

// Silent never answers.
func Silent() Handler {
	return func(map[string]any) []map[string]any { return nil }
}

// Reply builds a reply to msg with the given code and data.
func Reply(msg map[string]any, code int, data any) map[string]any {
	out := map[string]any{
		"messageId": msg["messageId"],
		"cmd":       msg["cmd"],
		"code":      float64(code),
	}

	if data != nil {
		out["data"] = data
	}

	return out
}

// Fail builds an error reply to msg.
func Fail(msg map[string]any, code int, message string) map[string]any {
	out := Reply(msg, code, nil)
	out["message"] = message

	return out
}

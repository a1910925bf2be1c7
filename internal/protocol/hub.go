package protocol

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/fanout"
	"github.com/wagiedev/miniapp-bridge-go/internal/message"
)

// Handler receives inbound messages that carry a string messageId.
type Handler func(token string, msg map[string]any)

// hub is the single inbound listener installed on one transport.
type hub struct {
	log      *slog.Logger
	handlers fanout.Set
	refs     int
	remove   func()
}

var (
	hubsMu sync.Mutex
	hubs   = make(map[config.Transport]*hub)
)

// Attach registers h with the shared listener of transport, installing the
// listener if this is the first attachment. The returned detach function is
// idempotent; the listener is removed when the last attachment is detached.
//
// Transports are keyed by identity. A transport whose type is not comparable
// cannot be shared, so each attachment gets its own listener.
func Attach(transport config.Transport, log *slog.Logger, h Handler) (detach func()) {
	if !shareable(transport) {
		return attachPrivate(transport, log, h)
	}

	hubsMu.Lock()
	defer hubsMu.Unlock()

	hb, ok := hubs[transport]
	if !ok {
		hb = &hub{log: log.With("component", "hub")}
		hb.remove = transport.Listen(hb.dispatch)
		hubs[transport] = hb

		hb.log.Debug("Installed shared listener")
	}

	hb.refs++

	removeHandler := hb.handlers.Add(func(msg map[string]any) {
		token, _ := message.CorrelationID(msg)
		h(token, msg)
	})

	var once sync.Once

	return func() {
		once.Do(func() {
			hubsMu.Lock()
			defer hubsMu.Unlock()

			removeHandler()

			hb.refs--
			if hb.refs > 0 {
				return
			}

			hb.remove()
			delete(hubs, transport)

			hb.log.Debug("Removed shared listener")
		})
	}
}

func attachPrivate(transport config.Transport, log *slog.Logger, h Handler) func() {
	log.Debug("Transport is not comparable, installing private listener",
		"component", "hub", "transport", reflect.TypeOf(transport).String())

	remove := transport.Listen(func(msg map[string]any) {
		if token, ok := message.CorrelationID(msg); ok {
			h(token, msg)
		}
	})

	var once sync.Once

	return func() { once.Do(remove) }
}

// shareable reports whether transport can key the shared listener table.
func shareable(transport config.Transport) bool {
	return transport != nil && reflect.TypeOf(transport).Comparable()
}

func (h *hub) dispatch(msg map[string]any) {
	token, ok := message.CorrelationID(msg)
	if !ok {
		return
	}

	h.log.Debug("Dispatching inbound message", "message_id", token)
	h.handlers.Emit(msg)
}

// Installed reports whether a shared listener is installed on transport.
func Installed(transport config.Transport) bool {
	if !shareable(transport) {
		return false
	}

	hubsMu.Lock()
	defer hubsMu.Unlock()

	_, ok := hubs[transport]

	return ok
}

// Attachments returns the number of live attachments on transport.
func Attachments(transport config.Transport) int {
	if !shareable(transport) {
		return 0
	}

	hubsMu.Lock()
	defer hubsMu.Unlock()

	if hb, ok := hubs[transport]; ok {
		return hb.refs
	}

	return 0
}

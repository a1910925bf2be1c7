package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/message"
	"github.com/wagiedev/miniapp-bridge-go/internal/metrics"
	"github.com/wagiedev/miniapp-bridge-go/internal/registry"
)

// Local failure messages.
const (
	MsgHostUnreachable = "host unreachable"
	MsgClientDestroyed = "client destroyed"
)

// Adapter sends commands over a transport and settles each call exactly once.
//
// The Adapter handles:
//   - Minting a fresh correlation token per call
//   - Registering the pending call before the message is posted
//   - Arming the per-call timer
//   - Settling every outstanding call when closed
type Adapter struct {
	log       *slog.Logger
	transport config.Transport
	registry  *registry.Registry
	tokens    config.TokenSource
	metrics   *metrics.Recorder

	// mu orders registrations against Close.
	mu     sync.RWMutex
	closed bool
	detach func()
}

// NewAdapter creates an adapter and attaches it to the shared listener of
// transport. A nil recorder records nothing.
func NewAdapter(
	log *slog.Logger,
	transport config.Transport,
	reg *registry.Registry,
	tokens config.TokenSource,
	rec *metrics.Recorder,
) *Adapter {
	a := &Adapter{
		log:       log.With("component", "protocol"),
		transport: transport,
		registry:  reg,
		tokens:    tokens,
		metrics:   rec,
	}

	a.detach = Attach(transport, log, a.handleReply)

	return a
}

// Send posts cmd with fields and returns the call token and a channel that
// receives exactly one Response.
//
// A non-positive timeout waits for the reply indefinitely. When the host is
// unreachable the Response is delivered immediately and no call is registered.
func (a *Adapter) Send(
	ctx context.Context,
	cmd string,
	fields map[string]any,
	timeout time.Duration,
) (string, <-chan message.Response) {
	token := a.tokens.Next()
	result := make(chan message.Response, 1)

	if !a.transport.IsReady() {
		a.log.Debug("Host unreachable", "cmd", cmd, "message_id", token)
		result <- message.Fail(message.CodeInvalidPayload, cmd, token, MsgHostUnreachable)

		return token, result
	}

	data, err := message.Encode(message.NewOutgoing(cmd, token, fields))
	if err != nil {
		a.log.Error("Failed to encode outgoing message", "cmd", cmd, "error", err)
		result <- message.Fail(message.CodeInvalidPayload, cmd, token, err.Error())

		return token, result
	}

	settle := func(resp message.Response) {
		if resp.Raw == nil && resp.Cmd == "" {
			resp.Cmd = cmd
		}

		a.metrics.RecordSettled()
		result <- resp
	}

	onTimeout := func() message.Response {
		a.log.Warn("Host request timed out", "cmd", cmd, "message_id", token, "timeout", timeout)

		return message.Fail(message.CodeTimeout, cmd, token, fmt.Sprintf("request timeout after %s", timeout))
	}

	if resp, ok := a.register(cmd, token, settle, timeout, onTimeout); !ok {
		result <- resp

		return token, result
	}

	a.log.Debug("Sending host request", "cmd", cmd, "message_id", token)

	if err := a.transport.SendMessage(ctx, data); err != nil {
		a.log.Error("Failed to send host request", "cmd", cmd, "message_id", token, "error", err)
		a.registry.Settle(token, message.Fail(
			message.CodeInvalidPayload, cmd, token, fmt.Sprintf("send failed: %v", err),
		))
	}

	return token, result
}

func (a *Adapter) register(
	cmd, token string,
	settle registry.SettleFunc,
	timeout time.Duration,
	onTimeout func() message.Response,
) (message.Response, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return message.Fail(message.CodeTimeout, cmd, token, MsgClientDestroyed), false
	}

	if err := a.registry.Register(token, settle, timeout, onTimeout); err != nil {
		return message.Fail(message.CodeInvalidPayload, cmd, token, err.Error()), false
	}

	a.metrics.RecordSent()

	return message.Response{}, true
}

// Cancel drops the pending call for token without settling it.
// It reports false when the call was already settled.
func (a *Adapter) Cancel(token string) bool {
	if !a.registry.CancelAndRemove(token) {
		return false
	}

	a.metrics.RecordSettled()

	return true
}

// Pending returns the number of outstanding calls.
func (a *Adapter) Pending() int {
	return a.registry.Len()
}

// Close detaches from the shared listener and settles every outstanding call
// with a destroyed Response. It's safe to call Close multiple times.
func (a *Adapter) Close() int {
	a.mu.Lock()

	if a.closed {
		a.mu.Unlock()

		return 0
	}

	a.closed = true
	a.mu.Unlock()

	a.detach()

	n := a.registry.SettleAll(func(token string) message.Response {
		return message.Fail(message.CodeTimeout, "", token, MsgClientDestroyed)
	})

	a.log.Debug("Adapter closed", "settled", n)

	return n
}

func (a *Adapter) handleReply(token string, msg map[string]any) {
	if a.registry.Settle(token, message.Parse(msg)) {
		a.log.Debug("Settled host reply", "message_id", token)
	}
}

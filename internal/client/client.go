package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/miniapp-bridge-go/internal/command"
	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
	"github.com/wagiedev/miniapp-bridge-go/internal/message"
	"github.com/wagiedev/miniapp-bridge-go/internal/metrics"
	"github.com/wagiedev/miniapp-bridge-go/internal/protocol"
	"github.com/wagiedev/miniapp-bridge-go/internal/registry"
	"github.com/wagiedev/miniapp-bridge-go/internal/stream"
)

// Client dispatches commands to the host and awaits their replies.
type Client struct {
	id        string
	log       *slog.Logger
	options   *config.Options
	transport config.Transport
	table     command.Table
	adapter   *protocol.Adapter

	startMu sync.Mutex
	started bool

	mu     sync.Mutex
	closed bool
}

// New creates a client and attaches it to the shared listener of its
// transport. A nil options value uses the defaults.
func New(options *config.Options) *Client {
	if options == nil {
		options = config.Apply()
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	transport := options.Transport
	if transport == nil {
		transport = stream.Stdio()
	}

	id := ulid.Make().String()
	log = log.With("component", "client", "client_id", id)

	c := &Client{
		id:        id,
		log:       log,
		options:   options,
		transport: transport,
		table:     command.NewTable(),
	}

	c.adapter = protocol.NewAdapter(
		log, transport, registry.New(options.Clock), options.Tokens, options.Metrics,
	)

	c.log.Debug("Client created", "timeout", options.Timeout)

	return c
}

// ID returns the client instance identifier.
func (c *Client) ID() string {
	return c.id
}

// Start starts the transport eagerly. Dispatch starts it lazily otherwise.
// Returns ErrClientClosed after Close.
func (c *Client) Start(ctx context.Context) error {
	if c.isClosed() {
		return errors.ErrClientClosed
	}

	c.startMu.Lock()
	defer c.startMu.Unlock()

	if c.started {
		return nil
	}

	if err := c.transport.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	c.started = true

	return nil
}

// Dispatch validates args for cmd, sends the command and waits for its
// Response using the client's timeout policy.
//
// args follow the command's calling convention: nothing, a payload, a
// signature block, or a payload followed by a signature block. Commands
// missing from the table are forwarded with args[0] as their fields.
func (c *Client) Dispatch(ctx context.Context, cmd string, args ...message.Payload) message.Response {
	return c.dispatch(ctx, cmd, c.options.TimeoutFor(cmd), args)
}

// DispatchWithTimeout is Dispatch with an explicit timeout for this call.
// A non-positive timeout waits for the reply indefinitely.
func (c *Client) DispatchWithTimeout(
	ctx context.Context,
	cmd string,
	timeout time.Duration,
	args ...message.Payload,
) message.Response {
	return c.dispatch(ctx, cmd, timeout, args)
}

// DispatchAsync runs Dispatch in the background. The returned channel
// receives exactly one Response.
func (c *Client) DispatchAsync(cmd string, args ...message.Payload) <-chan message.Response {
	out := make(chan message.Response, 1)

	go func() {
		out <- c.Dispatch(context.Background(), cmd, args...)
	}()

	return out
}

func (c *Client) dispatch(
	ctx context.Context,
	cmd string,
	timeout time.Duration,
	args []message.Payload,
) (resp message.Response) {
	start := c.options.Clock.Now()
	outcome := metrics.OutcomeInternal

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Dispatch fault", "cmd", cmd, "panic", r)

			resp = message.Fail(message.CodeMethodNotFound, cmd, "", fmt.Sprintf("internal error: %v", r))
			outcome = metrics.OutcomeInternal
		}

		c.options.Metrics.RecordCall(cmd, outcome, c.options.Clock.Since(start))
	}()

	if c.isClosed() {
		outcome = metrics.OutcomeDestroyed

		return message.Fail(message.CodeTimeout, cmd, "", protocol.MsgClientDestroyed)
	}

	fields, rejection := c.validate(cmd, args)
	if rejection != nil {
		c.log.Debug("Rejected command", "cmd", cmd, "code", rejection.Code, "reason", rejection.Message)

		outcome = metrics.OutcomeRejected

		return rejection.Response(cmd)
	}

	c.ensureStarted(ctx)

	token, replies := c.adapter.Send(ctx, cmd, fields, timeout)

	select {
	case resp = <-replies:
	case <-ctx.Done():
		if !c.adapter.Cancel(token) {
			resp = <-replies

			break
		}

		c.log.Debug("Call abandoned by caller", "cmd", cmd, "message_id", token, "error", ctx.Err())
		resp = message.Fail(message.CodeTimeout, cmd, token, ctx.Err().Error())
	}

	outcome = classify(resp)

	return resp
}

// validate narrows args into outgoing fields or returns a rejection.
func (c *Client) validate(cmd string, args []message.Payload) (map[string]any, *command.Rejection) {
	entry, ok := c.table.Lookup(cmd)
	if !ok {
		c.log.Debug("Forwarding command without validator", "cmd", cmd)

		if len(args) == 0 || args[0] == nil {
			return nil, nil
		}

		return maps.Clone(args[0]), nil
	}

	req, err := entry.Validate(args...)
	if err != nil {
		if rej, ok := err.(*command.Rejection); ok {
			return nil, rej
		}

		return nil, &command.Rejection{Code: message.CodeInvalidPayload, Message: err.Error()}
	}

	return req.Fields(), nil
}

func (c *Client) ensureStarted(ctx context.Context) {
	if err := c.Start(ctx); err != nil {
		c.log.Debug("Transport not started", "error", err)
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// Pending returns the number of calls waiting for a reply.
func (c *Client) Pending() int {
	return c.adapter.Pending()
}

// Commands returns the names of the commands with validators.
func (c *Client) Commands() []string {
	return c.table.Names()
}

// Entry returns the command table entry for name.
func (c *Client) Entry(name string) (*command.Entry, bool) {
	return c.table.Lookup(name)
}

// Close detaches the client from the shared listener and settles every
// outstanding call with a destroyed Response. Later calls resolve the same
// way. The transport is left open since other clients may share it.
//
// This method is safe to call multiple times.
func (c *Client) Close() error {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return nil
	}

	c.closed = true
	c.mu.Unlock()

	settled := c.adapter.Close()

	c.log.Info("Client closed", "settled", settled)

	return nil
}

func classify(resp message.Response) string {
	switch {
	case resp.IsSuccess():
		return metrics.OutcomeSuccess
	case resp.Raw != nil:
		return metrics.OutcomeError
	case resp.Message == protocol.MsgHostUnreachable:
		return metrics.OutcomeUnreachable
	case resp.Message == protocol.MsgClientDestroyed:
		return metrics.OutcomeDestroyed
	case resp.Code == message.CodeTimeout:
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}

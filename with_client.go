package bridge

import (
	"context"
	"fmt"
)

// WithClient manages client lifecycle with automatic cleanup.
//
// This helper creates a client, starts its transport, executes the callback
// function, and ensures cleanup via Close() when done. Close settles any call
// the callback left pending.
//
// Example usage:
//
//	err := bridge.WithClient(ctx, func(c bridge.Client) error {
//	    resp := c.GetAccount(ctx, bridge.GetAccountRequest{})
//	    return resp.Err()
//	},
//	    bridge.WithLogger(log),
//	    bridge.WithTransport(transport),
//	)
func WithClient(ctx context.Context, fn func(Client) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	log := orNop(options.Logger)

	client := newClientImpl(options)

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn("failed to close client", "error", closeErr)
		}
	}()

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start client: %w", err)
	}

	return fn(client)
}

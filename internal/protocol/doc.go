// Package protocol correlates outgoing host commands with their replies.
//
// An Adapter mints a fresh token for every call, registers the pending call,
// posts the flat outgoing message and arms the call timer. Replies reach the
// adapter through a hub: exactly one transport listener per Transport,
// reference-counted across every adapter attached to it.
//
// Example usage:
//
//	reg := registry.New(clock.New())
//	adapter := protocol.NewAdapter(log, transport, reg, token.NewGenerator(), nil)
//	defer adapter.Close()
//
//	_, replies := adapter.Send(ctx, "getLanguage", nil, 30*time.Second)
//	resp := <-replies
package protocol

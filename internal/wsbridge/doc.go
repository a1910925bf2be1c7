// Package wsbridge provides a transport that reaches the host over a
// WebSocket connection, as used by embedded webview hosts that expose a local
// socket instead of a message port.
//
// Each outgoing message is one text frame; each inbound text frame holding a
// JSON object is delivered to every listener.
package wsbridge

// Package stream provides a newline-delimited JSON transport over any
// reader/writer pair.
//
// Each outgoing message is written as one JSON line; each inbound line is
// decoded into a map and delivered to every listener. Lines that are not
// JSON objects are logged and skipped. The transport becomes unreachable when
// the reader reaches EOF.
//
// Stdio returns the process-wide transport bound to os.Stdin and os.Stdout,
// the default host channel when a client is built without one.
package stream

// Package subprocess provides a transport that spawns the host as a child
// process.
//
// The host speaks newline-delimited JSON on its stdin and stdout. Stderr is
// buffered for error reporting and optionally streamed to a callback. When the
// process exits unexpectedly the transport becomes unreachable and Err
// returns a ProcessError carrying the exit code and cleaned stderr.
package subprocess

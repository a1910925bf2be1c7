package stream

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var stdio = sync.OnceValue(func() *Transport {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), os.Stdin, os.Stdout,
		WithReachable(stdinAttached))
})

// Stdio returns the process-wide transport bound to os.Stdin and os.Stdout.
//
// The host is considered unreachable when stdin is a terminal.
func Stdio() *Transport {
	return stdio()
}

func stdinAttached() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice == 0
}

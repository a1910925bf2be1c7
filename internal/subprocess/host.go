package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/wagiedev/miniapp-bridge-go/internal/cli"
	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
	"github.com/wagiedev/miniapp-bridge-go/internal/fanout"
	"github.com/wagiedev/miniapp-bridge-go/internal/stream"
)

// maxStderrBufferSize caps the stderr buffer. Stderr reading continues past
// the cap so the callback still receives every line.
const maxStderrBufferSize = 10 * 1024 * 1024

// Config describes the host process.
type Config struct {
	// Command is the host command line, e.g. "miniapp-host --stdio".
	Command string

	// Env provides additional environment variables for the host process.
	Env map[string]string

	// Dir sets the working directory. Empty means the current directory.
	Dir string

	// Stderr receives each stderr line of the host process.
	Stderr func(string)
}

// HostTransport implements config.Transport by spawning a host subprocess.
type HostTransport struct {
	log *slog.Logger
	cfg Config

	listeners fanout.Set

	mu      sync.Mutex
	cmd     *exec.Cmd
	stream  *stream.Transport
	closing bool
	exitErr error
	exited  chan struct{}
}

// Compile-time verification that HostTransport implements the Transport interface.
var _ config.Transport = (*HostTransport)(nil)

// NewHostTransport creates a transport for the host described by cfg.
// Host discovery is deferred to Start.
func NewHostTransport(log *slog.Logger, cfg Config) *HostTransport {
	return &HostTransport{
		log:    log.With("component", "host_transport"),
		cfg:    cfg,
		exited: make(chan struct{}),
	}
}

// Start discovers and spawns the host process. Calling Start on a running
// transport is a no-op.
//
// Returns HostNotFoundError if the host cannot be located,
// or ConnectionError if the process fails to start.
func (t *HostTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closing {
		return errors.ErrTransportClosed
	}

	if t.cmd != nil {
		return nil
	}

	t.log.Info("Starting host subprocess")

	hostCmd, err := cli.NewDiscoverer(&cli.Config{
		Command: t.cfg.Command,
		Env:     t.cfg.Env,
		Logger:  t.log,
	}).Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover host: %w", err)
	}

	// The process outlives ctx, which only bounds discovery.
	//nolint:gosec // G204: the host command is operator configuration
	cmd := exec.Command(hostCmd.Path, hostCmd.Args...)
	cmd.Dir = t.cfg.Dir
	cmd.Env = hostCmd.Env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.ConnectionError{Endpoint: hostCmd.Path, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.ConnectionError{Endpoint: hostCmd.Path, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &errors.ConnectionError{Endpoint: hostCmd.Path, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		t.log.Error("Failed to start host process", "error", err)

		return &errors.ConnectionError{Endpoint: hostCmd.Path, Err: fmt.Errorf("start process: %w", err)}
	}

	t.cmd = cmd
	t.stream = stream.New(t.log, stdout, stdin, stream.WithCloser(stdin))
	t.stream.Listen(t.listeners.Emit)

	if err := t.stream.Start(ctx); err != nil {
		return err
	}

	go t.wait(stderr)

	t.log.Info("Host subprocess started", "pid", cmd.Process.Pid)

	return nil
}

// wait drains stderr, then reaps the process once stdout is closed.
func (t *HostTransport) wait(stderr io.Reader) {
	defer close(t.exited)

	var stderrBuffer strings.Builder

	// Stderr must be fully read before Wait; see exec.Cmd.StderrPipe.
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if stderrBuffer.Len() < maxStderrBufferSize {
			if stderrBuffer.Len() > 0 {
				stderrBuffer.WriteString("\n")
			}

			stderrBuffer.WriteString(line)
		}

		if t.cfg.Stderr != nil {
			t.cfg.Stderr(line)
		}
	}

	<-t.stream.Done()

	err := t.cmd.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	if err == nil {
		t.log.Info("Host process exited")

		return
	}

	if t.closing {
		t.log.Debug("Host process terminated during shutdown")

		return
	}

	exitCode := -1
	if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
		exitCode = exitErr.ExitCode()
	}

	stderrOutput := strings.TrimSpace(stderrBuffer.String())

	t.log.Error("Host process exited with error", "exit_code", exitCode, "stderr", stderrOutput)

	t.exitErr = &errors.ProcessError{
		ExitCode: exitCode,
		Stderr:   stderrOutput,
		Err:      err,
	}
}

// SendMessage writes one JSON line to the host stdin.
func (t *HostTransport) SendMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	s := t.stream
	t.mu.Unlock()

	if s == nil {
		return errors.ErrTransportNotConnected
	}

	return s.SendMessage(ctx, data)
}

// Listen implements config.Transport. Listeners may be added before Start.
func (t *HostTransport) Listen(fn config.Listener) func() {
	return t.listeners.Add(fn)
}

// IsReady reports whether the host process is running with its stdout open.
func (t *HostTransport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stream != nil && !t.closing && t.stream.IsReady()
}

// Exited returns a channel closed once the host process has been reaped.
func (t *HostTransport) Exited() <-chan struct{} {
	return t.exited
}

// Err returns the ProcessError of an unexpected exit, if any.
func (t *HostTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.exitErr
}

// Close terminates the host process. It's safe to call Close multiple times
// or on a transport that was never started.
func (t *HostTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closing {
		return nil
	}

	t.closing = true

	if t.stream != nil {
		_ = t.stream.Close()
	}

	if t.cmd != nil && t.cmd.Process != nil {
		t.log.Debug("Killing host process", "pid", t.cmd.Process.Pid)

		if err := t.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill host process (pid %d): %w", t.cmd.Process.Pid, err)
		}
	}

	return nil
}

package cli

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
)

// Config holds configuration for host discovery.
type Config struct {
	// Command is the host command line, e.g. "miniapp-host --stdio".
	Command string

	// Env provides additional environment variables for the host process.
	Env map[string]string

	// Logger is an optional logger for discovery operations.
	// If nil, a default no-op logger is used.
	Logger *slog.Logger
}

// Discoverer locates the host executable.
type Discoverer interface {
	// Discover resolves the configured command into an executable Command.
	Discover(ctx context.Context) (*Command, error)
}

type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new host discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}

	return &discoverer{
		cfg: cfg,
		log: log,
	}
}

// Discover resolves the host command.
//
// Returns HostNotFoundError when the command is empty or its executable
// cannot be located.
func (d *discoverer) Discover(ctx context.Context) (*Command, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	argv, err := SplitCommand(d.cfg.Command)
	if err != nil {
		return nil, &errors.HostNotFoundError{Command: d.cfg.Command, Err: err}
	}

	if len(argv) == 0 {
		return nil, &errors.HostNotFoundError{Command: d.cfg.Command, Err: errors.ErrHostUnreachable}
	}

	path, err := d.find(argv[0])
	if err != nil {
		d.log.Error("Failed to find host executable", "command", argv[0], "error", err)

		return nil, &errors.HostNotFoundError{Command: argv[0], Err: err}
	}

	d.log.Debug("Found host executable", "path", path)

	return &Command{
		Path: path,
		Args: argv[1:],
		Env:  BuildEnvironment(d.cfg.Env),
	}, nil
}

func (d *discoverer) find(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		d.log.Debug("Using explicit host path", "path", name)

		if _, err := os.Stat(name); err != nil {
			return "", err
		}

		return name, nil
	}

	d.log.Debug("Searching for host in PATH", "name", name)

	return exec.LookPath(name)
}

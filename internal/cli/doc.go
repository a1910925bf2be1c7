// Package cli locates the host executable and builds its command line.
//
// # Host Discovery
//
// The Discoverer resolves a host command to an executable path:
//
//	discoverer := cli.NewDiscoverer(&cli.Config{
//	    Command: "./miniapp-host --stdio",
//	    Logger:  slog.Default(),
//	})
//	cmd, err := discoverer.Discover(ctx)
//
// A command containing a path separator is checked on disk as given;
// a bare name is searched in the system PATH.
//
// # Command Building
//
// SplitCommand turns a command string into an argument vector, honoring single
// and double quotes. BuildEnvironment merges extra variables into the
// current process environment.
package cli

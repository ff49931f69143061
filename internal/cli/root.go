package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/metacheck/pkg/buildinfo"
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with values
// injected via ldflags at build time.
//
// Parameters:
//   - v: semantic version string (e.g., "v1.2.3")
//   - c: git commit SHA (short or long form)
//   - d: build timestamp (e.g., "2025-12-20T14:32:01Z")
func SetVersion(v, c, d string) {
	if v != "" {
		buildinfo.Version = v
	}
	if c != "" {
		buildinfo.Commit = c
	}
	if d != "" {
		buildinfo.Date = d
	}
}

// Execute runs the metacheck CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext. Cancelling ctx (for example on SIGINT) stops a running
// analysis; the returned error then wraps context.Canceled.
func Execute(ctx context.Context) error {
	return newRootCommand(New(os.Stderr, LogInfo)).ExecuteContext(ctx)
}

// newRootCommand wires the --verbose flag and the context logger onto the
// command tree of c.
func newRootCommand(c *CLI) *cobra.Command {
	var verbose bool
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}
	return root
}

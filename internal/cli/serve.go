package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/metacheck/pkg/config"
	"github.com/matzehuels/metacheck/pkg/server"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noNetwork bool
		noCache   bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rules over HTTP",
		Long: `Serve starts an HTTP API that analyzes one extraction record per request.

  GET  /healthz
  GET  /v1/rules
  GET  /v1/rules/{code}
  POST /v1/analyze?repo=<name>&rules=<codes>   (body: extraction record)

Results are returned in the response and not written to disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ov config.Overrides
			if cmd.Flags().Changed("addr") {
				ov.Addr = addr
			}
			if cmd.Flags().Changed("no-network") {
				ov.NoNetwork = &noNetwork
			}
			if cmd.Flags().Changed("no-cache") {
				ov.NoCache = &noCache
			}
			cfg, err := c.loadConfig(ov)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, cleanup, err := c.newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.New(runner, c.Logger, server.WithTimeout(timeout))
			printInfo("Serving %d rules on %s", runner.Registry.Len(), StyleLink.Render(cfg.Addr))
			printKeyValue("Network", onOff(!cfg.NoNetwork))
			printKeyValue("Cache", cacheLabel(cfg))
			printKeyValue("Timeout", timeout.String())
			return srv.ListenAndServe(ctx, cfg.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noNetwork, "no-network", false, "skip the rules that probe URLs")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "probe URLs without the liveness cache")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultTimeout, "per-request timeout")

	return cmd
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// cacheLabel describes where probe results are cached.
func cacheLabel(cfg config.Config) string {
	switch {
	case cfg.NoNetwork:
		return "unused"
	case cfg.NoCache:
		return "off"
	case cfg.Cache == config.CacheRedis:
		return fmt.Sprintf("redis (ttl %s)", cfg.CacheTTL)
	default:
		return fmt.Sprintf("file (ttl %s)", cfg.CacheTTL)
	}
}

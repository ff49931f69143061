package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/metacheck/pkg/buildinfo"
	"github.com/matzehuels/metacheck/pkg/cache"
	"github.com/matzehuels/metacheck/pkg/config"
	"github.com/matzehuels/metacheck/pkg/liveness"
	"github.com/matzehuels/metacheck/pkg/pipeline"
	"github.com/matzehuels/metacheck/pkg/rules"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "metacheck"

	// probeRetryDelay is the pause before the second probe of a URL.
	probeRetryDelay = time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag shared by all commands.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Metacheck detects metadata pitfalls in research software repositories",
		Long: `Metacheck runs a catalog of pitfall and warning rules over metadata
extraction records (one JSON file per repository) and writes a JSON-LD
assessment per repository plus a batch summary.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (.toml, .yaml); defaults to ./metacheck.toml if present")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.rulesCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig merges the config file, environment and flags.
func (c *CLI) loadConfig(flags config.Overrides) (config.Config, error) {
	return config.Loader{Path: c.configPath}.Load(flags)
}

// newRunner creates a pipeline runner for the configuration. The returned
// cleanup releases the liveness cache.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, func(), error) {
	reg, cleanup, err := c.newRegistry(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	r := pipeline.NewRunner(reg, c.Logger)
	r.Workers = cfg.Workers
	return r, cleanup, nil
}

// newRegistry builds the rule registry, restricted to cfg.Rules. Without
// network access the URL-probing rules are left out.
func (c *CLI) newRegistry(ctx context.Context, cfg config.Config) (*rules.Registry, func(), error) {
	noop := func() {}
	var checker liveness.Checker
	cleanup := noop
	if !cfg.NoNetwork {
		cc, err := c.newCache(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		probe := liveness.NewHTTPChecker(
			liveness.WithTimeout(cfg.ProbeTimeout),
			liveness.WithRetry(cfg.ProbeAttempts, probeRetryDelay),
		)
		var keyer cache.Keyer
		if cfg.Cache == config.CacheRedis {
			keyer = cache.NewScopedKeyer(nil, appName+":")
		}
		checker = liveness.NewCachedChecker(probe, cc, keyer, cfg.CacheTTL)
		cleanup = func() {
			if err := cc.Close(); err != nil {
				c.Logger.Warn("failed to close cache", "err", err)
			}
		}
	}

	reg, err := rules.Default(checker).Select(cfg.Rules)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return reg, cleanup, nil
}

// newCache opens the liveness cache selected by the configuration. A file
// cache that cannot be created degrades to no caching.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.NoCache {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache == config.CacheRedis {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the liveness cache directory (~/.cache/metacheck/ under XDG).
func cacheDir() (string, error) {
	return cache.DefaultDir()
}

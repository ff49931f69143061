package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/metacheck/pkg/config"
	"github.com/matzehuels/metacheck/pkg/errors"
	mcio "github.com/matzehuels/metacheck/pkg/io"
	"github.com/matzehuels/metacheck/pkg/pipeline"
	"github.com/matzehuels/metacheck/pkg/store"
)

// watchDebounce collapses bursts of file events into one re-run.
const watchDebounce = 500 * time.Millisecond

// analyzeFlags holds the raw flag values of the analyze command.
type analyzeFlags struct {
	pitfallsOutput string
	analysisOutput string
	workers        int
	rules          string
	noNetwork      bool
	noCache        bool
	store          string
	storeDSN       string
	watch          bool
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [record.json | dir]...",
		Short: "Detect metadata pitfalls in extraction records",
		Long: `Analyze runs every rule over each extraction record and writes one JSON-LD
assessment per repository with at least one finding, plus a batch summary.

Directories are expanded to the *.json files they contain. Missing inputs are
skipped with a warning; the run fails only if no input can be found.`,
		Example: `  metacheck analyze somef_outputs/
  metacheck analyze repo1.json repo2.json --pitfalls-output out/ --workers 8
  metacheck analyze records/ --no-network --rules P001,P002,W002
  metacheck analyze records/ --store sqlite --store-dsn metacheck.db`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(flags.overrides(cmd))
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			runner, cleanup, err := c.newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := store.Open(ctx, cfg.StoreOptions())
			if err != nil {
				return err
			}
			defer st.Close()

			run := func(ctx context.Context) error {
				return c.runAnalyze(ctx, runner, st, cfg, args)
			}
			if !flags.watch {
				return run(ctx)
			}

			if err := run(ctx); err != nil && !errors.Is(err, errors.ErrCodeNoInput) {
				return err
			}
			printInfo("Watching %d path(s) for changes (Ctrl+C to stop)", len(args))
			return watchPaths(ctx, c.Logger, args, watchDebounce, []string{cfg.AnalysisOutput}, run)
		},
	}

	cmd.Flags().StringVar(&flags.pitfallsOutput, "pitfalls-output", store.DefaultPitfallsDir, "directory for per-repository JSON-LD findings")
	cmd.Flags().StringVar(&flags.analysisOutput, "analysis-output", store.DefaultSummaryPath, "path of the batch summary")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", pipeline.DefaultWorkers, "records analyzed in parallel")
	cmd.Flags().StringVar(&flags.rules, "rules", "", "comma-separated rule codes to run (default: all)")
	cmd.Flags().BoolVar(&flags.noNetwork, "no-network", false, "skip the rules that probe URLs")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "probe URLs without the liveness cache")
	cmd.Flags().StringVar(&flags.store, "store", string(store.KindFile), "additional store for findings: file, sqlite, mongo")
	cmd.Flags().StringVar(&flags.storeDSN, "store-dsn", "", "SQLite database path or MongoDB URI")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "re-run whenever an input record changes")

	return cmd
}

// overrides returns only the flags set on the command line, so that
// config file and environment values survive flag defaults.
func (f analyzeFlags) overrides(cmd *cobra.Command) config.Overrides {
	var ov config.Overrides
	fs := cmd.Flags()
	if fs.Changed("pitfalls-output") {
		ov.PitfallsDir = f.pitfallsOutput
	}
	if fs.Changed("analysis-output") {
		ov.AnalysisOutput = f.analysisOutput
	}
	if fs.Changed("workers") {
		ov.Workers = &f.workers
	}
	if fs.Changed("rules") {
		ov.Rules = config.SplitList(f.rules)
	}
	if fs.Changed("no-network") {
		ov.NoNetwork = &f.noNetwork
	}
	if fs.Changed("no-cache") {
		ov.NoCache = &f.noCache
	}
	if fs.Changed("store") {
		ov.Store = f.store
	}
	if fs.Changed("store-dsn") {
		ov.StoreDSN = f.storeDSN
	}
	return ov
}

// runAnalyze performs one complete run over paths.
func (c *CLI) runAnalyze(ctx context.Context, runner *pipeline.Runner, st store.Store, cfg config.Config, paths []string) error {
	sources, missing := mcio.Discover(paths)
	for _, m := range missing {
		printWarning("Input not found, skipping: %s", m)
	}
	if len(sources) == 0 {
		return errors.New(errors.ErrCodeNoInput, "no extraction records found in %d input path(s)", len(paths))
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Analyzing %d records...", len(sources)))
	if c.Logger.GetLevel() > LogDebug {
		runner.Progress = func(done, total int) {
			spinner.SetMessage(fmt.Sprintf("Analyzing records %d/%d...", done, total))
		}
		spinner.Start()
	}
	report, err := runner.Analyze(ctx, sources)
	runner.Progress = nil
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError("Analysis failed")
		return err
	}
	spinner.Stop()

	stats := runner.Emit(ctx, report, st)
	if err := ctx.Err(); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Analyzed %d records", report.Summary.Totals.TotalRepositoriesAnalyzed))

	printRunStats(report.Summary.Totals)
	if err := report.Summary.Echo(os.Stdout); err != nil {
		return err
	}
	printNewline()
	printSuccess("Wrote %d findings file(s)", stats.BundlesSaved)
	printFile(cfg.PitfallsDir)
	if stats.SummarySaved {
		printFile(cfg.AnalysisOutput)
	}
	if stats.BundlesFailed > 0 {
		printWarning("%d findings file(s) could not be written; see the log for details", stats.BundlesFailed)
	}
	if !stats.SummarySaved {
		printError("Summary could not be written; see the log for details")
	}
	for _, d := range report.Duplicates {
		printWarning("%d inputs share the id %s; only the last findings file is kept", len(d.Sources), d.RepoID)
		for _, src := range d.Sources {
			printDetail("%s", src)
		}
	}
	for _, f := range report.Failures {
		printDetail("skipped %s: %s", f.Source, f.Error)
	}
	printNextStep("Browse the findings", "metacheck browse "+cfg.PitfallsDir)
	return nil
}

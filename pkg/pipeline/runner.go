package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/finding"
	mcio "github.com/matzehuels/metacheck/pkg/io"
	"github.com/matzehuels/metacheck/pkg/observability"
	"github.com/matzehuels/metacheck/pkg/record"
	"github.com/matzehuels/metacheck/pkg/rules"
	"github.com/matzehuels/metacheck/pkg/store"
)

// Runner analyzes batches of records with a fixed rule registry.
// Both CLI and API use this to produce identical reports.
//
// The Runner keeps no per-run state, so multiple goroutines can safely
// call Analyze on the same Runner.
type Runner struct {
	Registry *rules.Registry
	Logger   *log.Logger

	// Workers is the number of records analyzed in parallel.
	Workers int

	// Now stamps the finding bundles. Defaults to time.Now.
	Now func() time.Time

	// Progress, when set, is called after each record with the number of
	// records done so far. It may be called from several goroutines.
	Progress func(done, total int)
}

// NewRunner creates a runner over reg.
// If logger is nil, the default logger is used.
func NewRunner(reg *rules.Registry, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Registry: reg,
		Logger:   logger,
		Workers:  DefaultWorkers,
		Now:      time.Now,
	}
}

// RecordOutcome is the analysis of one record.
type RecordOutcome struct {
	RepoID    string
	Source    string
	Languages []string
	// Results holds one result per rule that ran, fired or not, in
	// registry order. Rules that faulted are missing.
	Results []rules.Result
	// Bundle is nil when no rule fired.
	Bundle *finding.Bundle
	Faults int
}

// Fired returns the number of rules that produced a finding.
func (o *RecordOutcome) Fired() int {
	n := 0
	for _, res := range o.Results {
		if res != nil && res.Fired() {
			n++
		}
	}
	return n
}

// Failure is a source that could not be loaded.
type Failure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Duplicate lists sources that map to the same repository id. Their
// findings share one output file, so the last one written wins.
type Duplicate struct {
	RepoID  string
	Sources []string
}

// Report is the result of one run.
type Report struct {
	RunID      string
	Summary    *Summary
	Outcomes   []*RecordOutcome
	Failures   []Failure
	Duplicates []Duplicate
	Stats      Stats
}

// Stats contains run timing.
type Stats struct {
	Duration time.Duration
	Faults   int
}

// Bundles returns the outcomes that produced a bundle, in input order.
func (r *Report) Bundles() []*RecordOutcome {
	var out []*RecordOutcome
	for _, o := range r.Outcomes {
		if o.Bundle != nil {
			out = append(out, o)
		}
	}
	return out
}

// RepoID derives the repository identifier from a source name: the base
// name of the record file.
func RepoID(source string) string {
	return filepath.Base(filepath.ToSlash(source))
}

// Analyze runs every rule over every source and aggregates the outcome.
// Sources that fail to load are recorded in Report.Failures and skipped.
//
// If ctx is cancelled, Analyze returns the records finished so far
// together with ctx.Err().
func (r *Runner) Analyze(ctx context.Context, sources []mcio.Source) (*Report, error) {
	if len(sources) == 0 {
		return nil, errors.New(errors.ErrCodeNoInput, "no records to analyze")
	}
	if r.Registry == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "runner has no rule registry")
	}

	start := time.Now()
	runID := uuid.NewString()
	r.Logger.Info("starting analysis", "run", runID, "records", len(sources), "rules", r.Registry.Len(), "workers", r.workers())

	outcomes := make([]*RecordOutcome, len(sources))
	failures := make([]error, len(sources))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			outcomes[i], failures[i] = r.analyzeOne(gctx, src)
			if r.Progress != nil {
				r.Progress(int(done.Add(1)), len(sources))
			}
			return nil
		})
	}
	waitErr := g.Wait()

	report := &Report{
		RunID:   runID,
		Summary: NewSummary(runID, r.Registry),
	}
	for i, o := range outcomes {
		if failures[i] != nil {
			report.Failures = append(report.Failures, Failure{
				Source: sources[i].Name(),
				Error:  errors.UserMessage(failures[i]),
			})
			report.Summary.Totals.FailedRecords++
			continue
		}
		if o == nil {
			continue
		}
		report.Outcomes = append(report.Outcomes, o)
		report.Summary.Add(o)
		report.Stats.Faults += o.Faults
	}
	report.Summary.Finish()
	report.Duplicates = duplicates(report.Outcomes)
	for _, d := range report.Duplicates {
		r.Logger.Warn("duplicate repository id", "repo", d.RepoID, "sources", strings.Join(d.Sources, ", "))
	}
	report.Stats.Duration = time.Since(start)

	r.Logger.Info("analysis complete",
		"analyzed", report.Summary.Totals.TotalRepositoriesAnalyzed,
		"failed", report.Summary.Totals.FailedRecords,
		"pitfalls", report.Summary.Totals.TotalPitfallsDetected,
		"warnings", report.Summary.Totals.TotalWarningsDetected,
		"duration", report.Stats.Duration)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if waitErr != nil {
		return report, waitErr
	}
	return report, nil
}

// duplicates groups outcomes by repository id, keeping ids seen more than
// once in first-seen order.
func duplicates(outcomes []*RecordOutcome) []Duplicate {
	index := map[string]int{}
	var groups []Duplicate
	for _, o := range outcomes {
		i, ok := index[o.RepoID]
		if !ok {
			i = len(groups)
			index[o.RepoID] = i
			groups = append(groups, Duplicate{RepoID: o.RepoID})
		}
		groups[i].Sources = append(groups[i].Sources, o.Source)
	}
	var out []Duplicate
	for _, g := range groups {
		if len(g.Sources) > 1 {
			out = append(out, g)
		}
	}
	return out
}

func (r *Runner) workers() int {
	if r.Workers < 1 {
		return DefaultWorkers
	}
	return r.Workers
}

// analyzeOne loads and checks one source. The returned error is non-nil
// only when the record could not be loaded.
func (r *Runner) analyzeOne(ctx context.Context, src mcio.Source) (*RecordOutcome, error) {
	repoID := RepoID(src.Name())
	hooks := observability.Pipeline()
	hooks.OnRecordStart(ctx, repoID)
	start := time.Now()

	rec, err := mcio.Load(src)
	if err != nil {
		r.Logger.Error("skipping record", "repo", repoID, "err", err)
		hooks.OnRecordComplete(ctx, repoID, 0, time.Since(start), err)
		return nil, err
	}

	o := r.Check(ctx, rec, repoID)
	o.Source = src.Name()
	hooks.OnRecordComplete(ctx, repoID, o.Fired(), time.Since(start), nil)
	return o, nil
}

// Check runs every rule against an already-loaded record and builds its
// bundle.
func (r *Runner) Check(ctx context.Context, rec record.Record, repoID string) *RecordOutcome {
	o := &RecordOutcome{
		RepoID:    repoID,
		Languages: record.Languages(rec),
	}
	for _, rule := range r.Registry.Rules() {
		res, err := r.detect(ctx, rule, rec, repoID)
		if err != nil {
			o.Faults++
			r.Logger.Warn("rule failed", "rule", rule.Code, "repo", repoID, "err", err)
			observability.Pipeline().OnDetectorFault(ctx, string(rule.Code), repoID, err)
			continue
		}
		if res == nil {
			continue
		}
		o.Results = append(o.Results, res)
		if res.Fired() {
			r.Logger.Debugf("%s - %s found in %s", rule.Code, rule.Severity.Label(), repoID)
		}
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	o.Bundle = finding.Build(rec, o.Results, now())
	return o
}

// detect runs one detector, converting a panic into a DETECTOR_FAULT error.
func (r *Runner) detect(ctx context.Context, rule rules.Rule, rec record.Record, repoID string) (res rules.Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			res = nil
			err = errors.PanicError(v, "rule %s panicked", rule.Code)
		}
	}()
	return rule.Detector.Detect(ctx, rec, repoID)
}

// EmitStats counts what Emit wrote.
type EmitStats struct {
	BundlesSaved  int
	BundlesFailed int
	SummarySaved  bool
}

// Emit writes every bundle of the report and then the summary to st.
// Write failures are logged and counted, never returned: one unwritable
// bundle does not lose the rest of the run. The summary's count of
// created files is updated to the number of bundles actually saved.
func (r *Runner) Emit(ctx context.Context, report *Report, st store.Store) EmitStats {
	var stats EmitStats
	hooks := observability.Pipeline()

	for _, o := range report.Outcomes {
		if o.Bundle == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			r.Logger.Warn("emit interrupted", "err", err)
			break
		}
		err := st.SaveBundle(ctx, o.RepoID, o.Bundle)
		hooks.OnEmit(ctx, "bundle", o.RepoID, err)
		if err != nil {
			stats.BundlesFailed++
			r.Logger.Error("failed to save findings", "repo", o.RepoID, "err", err)
			continue
		}
		stats.BundlesSaved++
	}

	report.Summary.Totals.FindingsCreated = stats.BundlesSaved
	err := st.SaveSummary(ctx, report.RunID, report.Summary)
	hooks.OnEmit(ctx, "summary", report.RunID, err)
	if err != nil {
		r.Logger.Error("failed to save summary", "run", report.RunID, "err", err)
	} else {
		stats.SummarySaved = true
	}

	r.Logger.Info("findings saved", "bundles", stats.BundlesSaved, "failed", stats.BundlesFailed)
	return stats
}

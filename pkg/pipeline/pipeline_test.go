package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/metacheck/pkg/errors"
	mcio "github.com/matzehuels/metacheck/pkg/io"
	"github.com/matzehuels/metacheck/pkg/record"
	"github.com/matzehuels/metacheck/pkg/rules"
	"github.com/matzehuels/metacheck/pkg/store"
)

// stubDetector fires when the record carries prop.
type stubDetector struct {
	code  rules.Code
	prop  string
	panic bool
}

func (d stubDetector) Code() rules.Code { return d.code }

func (d stubDetector) Detect(_ context.Context, rec record.Record, repoID string) (rules.Result, error) {
	if d.panic {
		panic("boom")
	}
	return rules.Base{Rule: d.code, FileName: repoID, Triggered: rec.Has(d.prop)}, nil
}

type errDetector struct{ code rules.Code }

func (d errDetector) Code() rules.Code { return d.code }

func (d errDetector) Detect(context.Context, record.Record, string) (rules.Result, error) {
	return nil, fmt.Errorf("unreachable host")
}

func testRegistry(t *testing.T, ds ...rules.Detector) *rules.Registry {
	t.Helper()
	if len(ds) == 0 {
		ds = []rules.Detector{
			stubDetector{code: "P001", prop: record.PropVersion},
			stubDetector{code: "W002", prop: record.PropDateUpdated},
		}
	}
	reg, err := rules.NewRegistry(ds...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func testRunner(t *testing.T, ds ...rules.Detector) *Runner {
	t.Helper()
	r := NewRunner(testRegistry(t, ds...), log.New(io.Discard))
	r.Now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

const (
	pythonWithVersion = `{"version":[{"result":{"value":"1.0"}}],"programming_languages":[{"result":{"value":"python"}}]}`
	javaBoth          = `{"version":[{"result":{"value":"1.0"}}],"date_updated":[{"result":{"value":"2020-01-01"}}],"programming_languages":[{"result":{"value":"Java"}},{"result":{"value":"C++"}}]}`
	clean             = `{"name":[{"result":{"value":"x"}}]}`
)

func sources(docs ...string) []mcio.Source {
	out := make([]mcio.Source, len(docs))
	for i, d := range docs {
		out[i] = mcio.BytesSource{ID: fmt.Sprintf("dir/repo%d.json", i), Data: []byte(d)}
	}
	return out
}

func TestValidateWorkers(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{1, false},
		{MaxWorkers, false},
		{0, true},
		{-1, true},
		{MaxWorkers + 1, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			err := ValidateWorkers(tt.n)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWorkers(%d) error = %v, wantErr %v", tt.n, err, tt.wantErr)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{Rules: []string{" p001, w002", "", "P003"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", opts.Workers, DefaultWorkers)
	}
	want := []string{"P001", "W002", "P003"}
	if strings.Join(opts.Rules, ",") != strings.Join(want, ",") {
		t.Errorf("Rules = %v, want %v", opts.Rules, want)
	}

	bad := Options{Rules: []string{"X001"}}
	if err := bad.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeUnknownRule) {
		t.Errorf("bad rule code error = %v, want UNKNOWN_RULE", err)
	}
}

func TestAnalyzeNoInput(t *testing.T) {
	_, err := testRunner(t).Analyze(context.Background(), nil)
	if !errors.Is(err, errors.ErrCodeNoInput) {
		t.Fatalf("Analyze(nil) error = %v, want NO_INPUT", err)
	}
}

func TestAnalyzeSummary(t *testing.T) {
	report, err := testRunner(t).Analyze(context.Background(), sources(pythonWithVersion, javaBoth, clean))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	s := report.Summary
	if s.RunID == "" || s.RunID != report.RunID {
		t.Errorf("RunID = %q, report RunID = %q", s.RunID, report.RunID)
	}

	tot := s.Totals
	if tot.TotalRepositoriesAnalyzed != 3 {
		t.Errorf("analyzed = %d, want 3", tot.TotalRepositoriesAnalyzed)
	}
	if tot.RepositoriesWithTargetLanguages != 2 {
		t.Errorf("with target languages = %d, want 2", tot.RepositoriesWithTargetLanguages)
	}
	if tot.FindingsCreated != 2 {
		t.Errorf("findings created = %d, want 2", tot.FindingsCreated)
	}
	if tot.TotalPitfallsDetected != 2 || tot.TotalWarningsDetected != 1 {
		t.Errorf("pitfalls/warnings = %d/%d, want 2/1", tot.TotalPitfallsDetected, tot.TotalWarningsDetected)
	}

	p001, ok := s.Rule("P001")
	if !ok {
		t.Fatal("P001 missing from summary")
	}
	if p001.Count != 2 || p001.Percentage != 66.67 {
		t.Errorf("P001 = %d (%v%%), want 2 (66.67%%)", p001.Count, p001.Percentage)
	}
	if p001.Languages["Python"] != 1 || p001.Languages["Java"] != 1 || p001.Languages["C++"] != 1 {
		t.Errorf("P001 languages = %v", p001.Languages)
	}
	if p001.PitfallDesc == "" || p001.WarningDesc != "" {
		t.Errorf("P001 descriptions = %q / %q", p001.PitfallDesc, p001.WarningDesc)
	}

	w002, _ := s.Rule("W002")
	if w002.Count != 1 || w002.Percentage != 33.33 {
		t.Errorf("W002 = %d (%v%%), want 1 (33.33%%)", w002.Count, w002.Percentage)
	}
	if w002.WarningDesc == "" || w002.PitfallDesc != "" {
		t.Errorf("W002 descriptions = %q / %q", w002.PitfallDesc, w002.WarningDesc)
	}

	if got := len(report.Bundles()); got != 2 {
		t.Errorf("Bundles() = %d, want 2", got)
	}
	if id := report.Outcomes[0].RepoID; id != "repo0.json" {
		t.Errorf("RepoID = %q, want repo0.json", id)
	}
	if b := report.Outcomes[1].Bundle; b == nil || b.DateCreated != "2024-03-01T12:00:00Z" {
		t.Errorf("bundle = %+v", b)
	}
}

func TestAnalyzeParallelMatchesSequential(t *testing.T) {
	docs := []string{pythonWithVersion, javaBoth, clean, javaBoth, pythonWithVersion, clean, javaBoth}

	seq := testRunner(t)
	want, err := seq.Analyze(context.Background(), sources(docs...))
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}

	par := testRunner(t)
	par.Workers = 4
	var mu sync.Mutex
	var calls []int
	par.Progress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, done)
		if total != len(docs) {
			t.Errorf("progress total = %d, want %d", total, len(docs))
		}
	}
	got, err := par.Analyze(context.Background(), sources(docs...))
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	if len(calls) != len(docs) {
		t.Errorf("progress calls = %d, want %d", len(calls), len(docs))
	}
	if !reflect.DeepEqual(got.Summary.Totals, want.Summary.Totals) {
		t.Errorf("totals differ:\n got %+v\nwant %+v", got.Summary.Totals, want.Summary.Totals)
	}
	for i := range want.Summary.Rules {
		g, w := got.Summary.Rules[i], want.Summary.Rules[i]
		if g.Code != w.Code || g.Count != w.Count || g.Percentage != w.Percentage {
			t.Errorf("rule %d: got %+v, want %+v", i, g, w)
		}
	}
	for i := range want.Outcomes {
		if got.Outcomes[i].RepoID != want.Outcomes[i].RepoID {
			t.Errorf("outcome %d: got %s, want %s", i, got.Outcomes[i].RepoID, want.Outcomes[i].RepoID)
		}
	}
}

func TestAnalyzeSkipsBadRecords(t *testing.T) {
	srcs := append(sources(pythonWithVersion), mcio.BytesSource{ID: "broken.json", Data: []byte("{not json")})
	srcs = append(srcs, mcio.BytesSource{ID: "list.json", Data: []byte("[]")})

	report, err := testRunner(t).Analyze(context.Background(), srcs)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if n := report.Summary.Totals.TotalRepositoriesAnalyzed; n != 1 {
		t.Errorf("analyzed = %d, want 1", n)
	}
	if n := report.Summary.Totals.FailedRecords; n != 2 {
		t.Errorf("failed = %d, want 2", n)
	}
	if len(report.Failures) != 2 || report.Failures[0].Source != "broken.json" {
		t.Errorf("failures = %+v", report.Failures)
	}
	if p, _ := report.Summary.Rule("P001"); p.Percentage != 100 {
		t.Errorf("P001 percentage = %v, want 100", p.Percentage)
	}
}

func TestAnalyzeReportsDuplicateRepoIDs(t *testing.T) {
	srcs := []mcio.Source{
		mcio.BytesSource{ID: "a/repo.json", Data: []byte(pythonWithVersion)},
		mcio.BytesSource{ID: "other.json", Data: []byte(clean)},
		mcio.BytesSource{ID: "b/repo.json", Data: []byte(javaBoth)},
	}
	report, err := testRunner(t).Analyze(context.Background(), srcs)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := []Duplicate{{RepoID: "repo.json", Sources: []string{"a/repo.json", "b/repo.json"}}}
	if !reflect.DeepEqual(report.Duplicates, want) {
		t.Errorf("Duplicates = %+v, want %+v", report.Duplicates, want)
	}
	if n := report.Summary.Totals.TotalRepositoriesAnalyzed; n != 3 {
		t.Errorf("analyzed = %d, want 3", n)
	}

	unique, err := testRunner(t).Analyze(context.Background(), sources(pythonWithVersion, clean))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(unique.Duplicates) != 0 {
		t.Errorf("Duplicates = %+v, want none", unique.Duplicates)
	}
}

func TestAnalyzeContainsDetectorFaults(t *testing.T) {
	r := testRunner(t,
		stubDetector{code: "P001", panic: true},
		errDetector{code: "P002"},
		stubDetector{code: "W002", prop: record.PropDateUpdated},
	)
	report, err := r.Analyze(context.Background(), sources(javaBoth))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	o := report.Outcomes[0]
	if o.Faults != 2 || report.Stats.Faults != 2 {
		t.Errorf("faults = %d / %d, want 2", o.Faults, report.Stats.Faults)
	}
	if len(o.Results) != 1 || o.Results[0].Code() != "W002" {
		t.Errorf("results = %+v", o.Results)
	}
	if p, _ := report.Summary.Rule("P001"); p.Count != 0 {
		t.Errorf("faulting rule counted %d times", p.Count)
	}
	if w, _ := report.Summary.Rule("W002"); w.Count != 1 {
		t.Errorf("W002 count = %d, want 1", w.Count)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := testRunner(t).Analyze(ctx, sources(pythonWithVersion, clean))
	if err != context.Canceled {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if report == nil {
		t.Fatal("partial report is nil")
	}
	if n := report.Summary.Totals.TotalRepositoriesAnalyzed; n != 0 {
		t.Errorf("analyzed = %d after cancellation, want 0", n)
	}
}

func TestSummaryPercentageWithoutRecords(t *testing.T) {
	s := NewSummary("run", testRegistry(t))
	s.Finish()
	for _, r := range s.Rules {
		if r.Percentage != 0 {
			t.Errorf("%s percentage = %v, want 0", r.Code, r.Percentage)
		}
	}
	if len(s.Totals.TargetLanguages) != len(record.TargetLanguages) {
		t.Errorf("target languages = %v", s.Totals.TargetLanguages)
	}
}

func TestSummaryEcho(t *testing.T) {
	report, err := testRunner(t).Analyze(context.Background(), sources(pythonWithVersion, javaBoth, clean))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	var buf bytes.Buffer
	if err := report.Summary.Echo(&buf); err != nil {
		t.Fatalf("Echo: %v", err)
	}
	want := "P001: 2 (66.67%)\nW002: 1 (33.33%)\n"
	if buf.String() != want {
		t.Errorf("Echo =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestFormatPercent(t *testing.T) {
	tests := map[float64]string{
		0:     "0.0",
		12.5:  "12.5",
		33.33: "33.33",
		100:   "100.0",
	}
	for in, want := range tests {
		if got := formatPercent(in); got != want {
			t.Errorf("formatPercent(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestEmit(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewFileStore(filepath.Join(dir, "out"), filepath.Join(dir, "summary.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	r := testRunner(t)
	report, err := r.Analyze(context.Background(), sources(pythonWithVersion, clean))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	stats := r.Emit(context.Background(), report, st)
	if stats.BundlesSaved != 1 || stats.BundlesFailed != 0 || !stats.SummarySaved {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := os.Stat(st.BundlePath("repo0.json")); err != nil {
		t.Errorf("bundle not written: %v", err)
	}
	got, err := LoadSummary(st.SummaryPath())
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if got.RunID != report.RunID || got.Totals.FindingsCreated != 1 {
		t.Errorf("loaded summary = %+v", got.Totals)
	}
	if p, _ := got.Rule("P001"); p.Count != 1 || p.Languages["Python"] != 1 {
		t.Errorf("loaded P001 = %+v", p)
	}
}

func TestLoadSummaryMissing(t *testing.T) {
	_, err := LoadSummary(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

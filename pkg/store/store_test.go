package store

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/finding"
)

func testBundle(id string) *finding.Bundle {
	return &finding.Bundle{
		Context:     finding.Context,
		Type:        finding.TypeAssessment,
		ID:          id,
		Name:        "Quality Assessment for owner/repo",
		DateCreated: "2024-01-02T03:04:05Z",
		Checks: []finding.CheckResult{
			{
				Type:              finding.TypeCheckResult,
				AssessesIndicator: finding.Ref{ID: finding.IndicatorIRI + "codemeta"},
				CheckID:           "P004",
				Severity:          "pitfall",
				Evidence:          "P004 detected: codemeta.json README property points to homepage/wiki instead of README file: https://x.org",
			},
			{
				Type:              finding.TypeCheckResult,
				AssessesIndicator: finding.Ref{ID: finding.IndicatorIRI + "license"},
				CheckID:           "W003",
				Severity:          "warning",
			},
		},
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindFile, false},
		{"SQLite", KindSQLite, false},
		{" mongo ", KindMongo, false},
		{"postgres", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
		if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("ParseKind(%q) error code = %v", tt.in, errors.GetCode(err))
		}
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "pitfalls"), filepath.Join(dir, "analysis.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.SaveBundle(ctx, "somef/owner_repo.json", testBundle("urn:uuid:1")); err != nil {
		t.Fatalf("SaveBundle: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pitfalls", "owner_repo_pitfalls.jsonld")); err != nil {
		t.Errorf("bundle file: %v", err)
	}
	if err := s.SaveSummary(ctx, "run-1", map[string]int{"total_repositories_analyzed": 1}); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "analysis.json")); err != nil {
		t.Errorf("summary file: %v", err)
	}

	got, err := ReadBundles(s.Dir())
	if err != nil {
		t.Fatalf("ReadBundles: %v", err)
	}
	if len(got) != 1 || got[0].Bundle.ID != "urn:uuid:1" || len(got[0].Bundle.Checks) != 2 {
		t.Errorf("ReadBundles = %+v", got)
	}
}

func TestReadBundlesReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad"+finding.FileSuffix), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBundles(dir)
	if err == nil || len(got) != 0 {
		t.Errorf("ReadBundles = %v, %v", got, err)
	}

	_, err = ReadBundles(filepath.Join(dir, "missing"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing dir error = %v", err)
	}
}

type failingStore struct{ err error }

func (f failingStore) SaveBundle(context.Context, string, *finding.Bundle) error { return f.err }
func (f failingStore) SaveSummary(context.Context, string, any) error           { return f.err }
func (f failingStore) Close() error                                             { return nil }

func TestMultiContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	files, err := NewFileStore(dir, filepath.Join(dir, "summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	boom := stderrors.New("boom")
	m := NewMulti(failingStore{err: boom}, files)

	err = m.SaveBundle(context.Background(), "r.json", testBundle("urn:uuid:2"))
	if !stderrors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if _, err := os.Stat(files.BundlePath("r.json")); err != nil {
		t.Errorf("second store not written: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(context.Background(), Options{
		Kind:        KindSQLite,
		PitfallsDir: filepath.Join(dir, "p"),
		SummaryPath: filepath.Join(dir, "s.json"),
	})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "metacheck.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	if err := s.SaveBundle(ctx, "a.json", testBundle("urn:uuid:a")); err != nil {
		t.Fatalf("SaveBundle: %v", err)
	}
	// Saving the same bundle again replaces its checks.
	if err := s.SaveBundle(ctx, "a.json", testBundle("urn:uuid:a")); err != nil {
		t.Fatalf("SaveBundle again: %v", err)
	}
	if err := s.SaveBundle(ctx, "b.json", testBundle("urn:uuid:b")); err != nil {
		t.Fatalf("SaveBundle: %v", err)
	}

	counts, err := s.CheckCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []CheckCount{{"P004", 2}, {"W003", 2}}
	if len(counts) != len(want) {
		t.Fatalf("CheckCounts = %v, want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("CheckCounts[%d] = %v, want %v", i, counts[i], want[i])
		}
	}

	if err := s.SaveSummary(ctx, "run-1", map[string]any{"findings_created": 2}); err != nil {
		t.Fatal(err)
	}
	raw, ok, err := s.Summary(ctx, "run-1")
	if err != nil || !ok || string(raw) != `{"findings_created":2}` {
		t.Errorf("Summary = %s, %v, %v", raw, ok, err)
	}
	if _, ok, _ := s.Summary(ctx, "run-2"); ok {
		t.Error("unknown run found")
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("METACHECK_TEST_MONGO")
	if uri == "" {
		t.Skip("METACHECK_TEST_MONGO not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri)
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer s.Close()

	if err := s.SaveBundle(ctx, "a.json", testBundle("urn:uuid:a")); err != nil {
		t.Errorf("SaveBundle: %v", err)
	}
	if err := s.SaveSummary(ctx, "run-1", map[string]any{"findings_created": 1}); err != nil {
		t.Errorf("SaveSummary: %v", err)
	}
}

func TestMongoDatabase(t *testing.T) {
	tests := []struct{ uri, want string }{
		{"mongodb://localhost:27017", DefaultMongoDatabase},
		{"mongodb://localhost:27017/", DefaultMongoDatabase},
		{"mongodb://u:p@host:27017/quality?authSource=admin", "quality"},
	}
	for _, tt := range tests {
		if got := mongoDatabase(tt.uri); got != tt.want {
			t.Errorf("mongoDatabase(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

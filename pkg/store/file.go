package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/finding"
	mcio "github.com/matzehuels/metacheck/pkg/io"
)

// Default output locations.
const (
	DefaultPitfallsDir = "pitfalls_outputs"
	DefaultSummaryPath = "analysis_results.json"
)

// FileStore writes each bundle to <dir>/<stem>_pitfalls.jsonld and the
// summary to a single JSON file. Files are replaced atomically.
type FileStore struct {
	mu          sync.Mutex
	dir         string
	summaryPath string
}

// NewFileStore creates the bundle directory if needed. Empty arguments
// select the defaults.
func NewFileStore(dir, summaryPath string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultPitfallsDir
	}
	if summaryPath == "" {
		summaryPath = DefaultSummaryPath
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storeErr(err, "create %s", dir)
	}
	return &FileStore{dir: dir, summaryPath: summaryPath}, nil
}

// Dir returns the bundle directory.
func (s *FileStore) Dir() string { return s.dir }

// SummaryPath returns the summary file path.
func (s *FileStore) SummaryPath() string { return s.summaryPath }

// BundlePath returns where the bundle of repoID is written.
func (s *FileStore) BundlePath(repoID string) string {
	return filepath.Join(s.dir, finding.FileName(repoID))
}

// SaveBundle writes the bundle file.
func (s *FileStore) SaveBundle(ctx context.Context, repoID string, b *finding.Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := mcio.ExportJSON(b, s.BundlePath(repoID)); err != nil {
		return storeErr(err, "save bundle for %s", repoID)
	}
	return nil
}

// SaveSummary writes the summary file. Only one summary is kept; runID is
// carried by the summary itself.
func (s *FileStore) SaveSummary(ctx context.Context, runID string, summary any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := mcio.ExportJSON(summary, s.summaryPath); err != nil {
		return storeErr(err, "save summary of run %s", runID)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// StoredBundle is a bundle read back from disk.
type StoredBundle struct {
	Path   string
	Bundle finding.Bundle
}

// ReadBundles loads every bundle file in dir, sorted by file name. Files
// that fail to decode are reported in the returned error but do not stop
// the scan.
func ReadBundles(dir string) ([]StoredBundle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", dir)
		}
		return nil, storeErr(err, "read %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), finding.FileSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []StoredBundle
	var bad []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			bad = append(bad, name)
			continue
		}
		var b finding.Bundle
		if err := json.Unmarshal(mcio.StripBOM(data), &b); err != nil {
			bad = append(bad, name)
			continue
		}
		out = append(out, StoredBundle{Path: path, Bundle: b})
	}
	if len(bad) > 0 {
		return out, errors.New(errors.ErrCodeInvalidInput, "unreadable bundles: %s", strings.Join(bad, ", "))
	}
	return out, nil
}

var _ Store = (*FileStore)(nil)

// Package store persists analysis output: one assessment bundle per
// repository and one summary per run.
//
// # Backends
//
//   - [FileStore]: JSON-LD files in a directory plus a summary JSON file,
//     matching the layout downstream tooling expects
//   - [SQLiteStore]: a local SQLite database, for querying checks across
//     runs
//   - [MongoStore]: a MongoDB database, for shared deployments
//
// [Multi] fans writes out to several stores. [Open] builds a store from a
// backend name and a DSN, as given on the command line.
//
// Stores never see the pipeline types: the summary is any value that
// marshals to JSON.
package store

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/finding"
)

// Store persists bundles and summaries. Implementations are safe for
// concurrent use.
type Store interface {
	// SaveBundle stores the bundle of the record identified by repoID.
	SaveBundle(ctx context.Context, repoID string, b *finding.Bundle) error
	// SaveSummary stores the summary of a run.
	SaveSummary(ctx context.Context, runID string, summary any) error
	Close() error
}

// Kind names a storage backend.
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindMongo  Kind = "mongo"
)

// Kinds lists the supported backends.
var Kinds = []Kind{KindFile, KindSQLite, KindMongo}

// ParseKind validates a backend name. An empty name selects KindFile.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindFile, nil
	}
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "unknown store %q (expected file, sqlite or mongo)", s)
}

// Options configures [Open].
type Options struct {
	Kind Kind
	// DSN is the SQLite database path or the MongoDB URI.
	DSN string
	// PitfallsDir and SummaryPath locate the file output. The file store is
	// always opened as well, so the JSON-LD files exist whatever the
	// database.
	PitfallsDir string
	SummaryPath string
}

// Open builds the store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	files, err := NewFileStore(opts.PitfallsDir, opts.SummaryPath)
	if err != nil {
		return nil, err
	}

	switch opts.Kind {
	case KindFile, "":
		return files, nil
	case KindSQLite:
		db, err := NewSQLiteStore(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		return NewMulti(files, db), nil
	case KindMongo:
		db, err := NewMongoStore(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		return NewMulti(files, db), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store %q", opts.Kind)
}

// Multi writes to every store it holds.
type Multi struct {
	stores []Store
}

// NewMulti combines stores. Writes go to each in order.
func NewMulti(stores ...Store) *Multi {
	return &Multi{stores: stores}
}

// SaveBundle saves to every store and joins their errors.
func (m *Multi) SaveBundle(ctx context.Context, repoID string, b *finding.Bundle) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.SaveBundle(ctx, repoID, b); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// SaveSummary saves to every store and joins their errors.
func (m *Multi) SaveSummary(ctx context.Context, runID string, summary any) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.SaveSummary(ctx, runID, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Close closes every store.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func storeErr(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeStore, err, format, args...)
}

func requireDSN(kind Kind, dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "%s store needs a DSN", kind)
	}
	return nil
}

var _ Store = (*Multi)(nil)

package io

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/record"
)

// Source is one extraction record to analyze.
type Source interface {
	// Name identifies the record, typically its file name.
	Name() string
	// Open returns the record bytes. The caller closes the reader.
	Open() (io.ReadCloser, error)
}

// FileSource reads a record from a file.
type FileSource struct {
	Path string
}

// Name returns the path as given.
func (s FileSource) Name() string { return s.Path }

// Open opens the file.
func (s FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", s.Path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", s.Path)
	}
	return f, nil
}

// BytesSource serves a record held in memory.
type BytesSource struct {
	ID   string
	Data []byte
}

// Name returns the identifier.
func (s BytesSource) Name() string { return s.ID }

// Open returns a reader over the data.
func (s BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

// RecordExt is the extension of record files picked up from directories.
const RecordExt = ".json"

// Discover turns paths into sources. A directory contributes the *.json
// files directly inside it, sorted by name. Paths that do not exist are
// returned in missing and otherwise ignored.
func Discover(paths []string) (sources []Source, missing []string) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			missing = append(missing, p)
			continue
		}
		if !info.IsDir() {
			sources = append(sources, FileSource{Path: p})
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			missing = append(missing, p)
			continue
		}
		var names []string
		for _, e := range entries {
			if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), RecordExt) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			sources = append(sources, FileSource{Path: filepath.Join(p, name)})
		}
	}
	return sources, missing
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// ReadRecord decodes an extraction record from r. ReadRecord does not
// close r.
func ReadRecord(r io.Reader) (record.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return record.Record{}, errors.Wrap(errors.ErrCodeInvalidRecord, err, "read record")
	}
	return record.Parse(StripBOM(data))
}

// Load opens a source and decodes its record.
func Load(s Source) (record.Record, error) {
	rc, err := s.Open()
	if err != nil {
		return record.Record{}, err
	}
	defer rc.Close()

	rec, err := ReadRecord(rc)
	if err != nil {
		return record.Record{}, errors.Wrap(errors.ErrCodeInvalidRecord, err, "load %s", s.Name())
	}
	return rec, nil
}

// ImportRecord reads the record file at path.
func ImportRecord(path string) (record.Record, error) {
	return Load(FileSource{Path: path})
}

package rules

import (
	"github.com/matzehuels/metacheck/pkg/record"
)

// scalarText returns the text of a string or number value. Other shapes
// yield ok=false.
func scalarText(v record.Value) (string, bool) {
	switch v.Kind() {
	case record.KindString, record.KindNumber:
		return v.Text(), true
	}
	return "", false
}

// sourceLabel returns the entry's source, or names the technique when the
// source is empty.
func sourceLabel(e record.Entry) string {
	if e.Source != "" {
		return e.Source
	}
	return "technique: " + e.Technique
}

// codemeta selects entries attributed to codemeta.json.
func codemeta(e record.Entry) bool { return e.IsCodemeta() }

// parsedMetadata selects code_parser entries from a metadata file, matching
// file names case-insensitively.
func parsedMetadata(e record.Entry) bool {
	return e.IsCodeParser() && record.HasMetadataFileFold(e.Source)
}

// parsedMetadataExact is parsedMetadata with case-sensitive file names.
func parsedMetadataExact(e record.Entry) bool {
	return e.IsCodeParser() && record.HasMetadataFile(e.Source)
}

// parserOrMetadata selects code_parser entries and entries from a metadata
// file, matching file names case-insensitively.
func parserOrMetadata(e record.Entry) bool {
	return e.IsCodeParser() || record.HasMetadataFileFold(e.Source)
}

// firstFiring scans the entries of prop that satisfy qualify and carry a
// value, and returns the first one for which check reports a problem.
func firstFiring(rec record.Record, prop string, qualify record.Predicate, check func(record.Entry) bool) (record.Entry, bool) {
	for _, e := range record.All(rec, prop, qualify) {
		if check(e) {
			return e, true
		}
	}
	return record.Entry{}, false
}

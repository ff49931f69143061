package rules

import (
	"regexp"
	"sort"
	"strings"

	"github.com/matzehuels/metacheck/pkg/record"
)

// MultipleAuthors (P003) reports several authors packed into one string.
type MultipleAuthors struct {
	Base
	AuthorValue             string `json:"author_value,omitempty"`
	Source                  string `json:"source,omitempty"`
	MetadataSourceFile      string `json:"metadata_source_file,omitempty"`
	MultipleAuthorsDetected bool   `json:"multiple_authors_detected"`
}

var authorSeparators = []string{" and ", " & ", ";", "\n"}

// HasMultipleAuthors reports whether a single author field names more than
// one person: it contains " and ", " & ", a semicolon, a newline, or a
// comma that does not introduce a "Jr." suffix.
func HasMultipleAuthors(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	lower := strings.ToLower(v)
	for _, sep := range authorSeparators {
		if strings.Contains(lower, sep) {
			return true
		}
	}
	for i := 0; i < len(lower); i++ {
		if lower[i] != ',' {
			continue
		}
		rest := lower[i+1:]
		trimmed := strings.TrimLeft(rest, " \t\n\r\f\v")
		if len(trimmed) < len(rest) && strings.HasPrefix(trimmed, "jr") {
			continue
		}
		return true
	}
	return false
}

// authorName returns the author string of an entry: the value itself, or
// the "name" member of a structured value.
func authorName(e record.Entry) (string, bool) {
	v := e.Value()
	if s, ok := v.Str(); ok {
		return s, true
	}
	return v.Field("name").Str()
}

// DetectMultipleAuthors checks code_parser author entries from a metadata
// file.
func DetectMultipleAuthors(rec record.Record, b Base) MultipleAuthors {
	res := MultipleAuthors{Base: b}

	entry, ok := firstFiring(rec, record.PropAuthors, parsedMetadata, func(e record.Entry) bool {
		name, ok := authorName(e)
		return ok && HasMultipleAuthors(name)
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.MultipleAuthorsDetected = true
	res.AuthorValue, _ = authorName(entry)
	res.Source = entry.Source
	res.MetadataSourceFile = record.ResolveMetadataFilename(entry.Source)
	return res
}

// AuthorSource is the author list found in one source.
type AuthorSource struct {
	Source      string   `json:"source"`
	SourceFile  string   `json:"source_file"`
	AuthorCount int      `json:"author_count"`
	Authors     []string `json:"authors"`
}

// AuthorCountInconsistency pairs two sources that list different numbers
// of authors.
type AuthorCountInconsistency struct {
	SourceWithFewer     string   `json:"source_with_fewer"`
	SourceWithFewerFull string   `json:"source_with_fewer_full"`
	FewerCount          int      `json:"fewer_count"`
	FewerAuthors        []string `json:"fewer_authors"`
	SourceWithMore      string   `json:"source_with_more"`
	SourceWithMoreFull  string   `json:"source_with_more_full"`
	MoreCount           int      `json:"more_count"`
	MoreAuthors         []string `json:"more_authors"`
	Difference          int      `json:"difference"`
}

// AuthorCount (P019) reports sources that disagree on the number of
// authors.
type AuthorCount struct {
	Base
	AuthorSources   []AuthorSource             `json:"author_sources,omitempty"`
	Inconsistencies []AuthorCountInconsistency `json:"inconsistencies,omitempty"`
	TotalSources    int                        `json:"total_sources"`
	MinAuthorCount  int                        `json:"min_author_count"`
	MaxAuthorCount  int                        `json:"max_author_count"`
}

// AuthorIdentifier renders one author for display: a trimmed string, or
// the name, value or email member of a structured author, in that order.
func AuthorIdentifier(v record.Value) string {
	if s, ok := v.Str(); ok {
		return strings.TrimSpace(s)
	}
	if v.Kind() == record.KindMap {
		for _, key := range []string{"name", "value", "email"} {
			if v.Has(key) {
				return strings.TrimSpace(v.Field(key).Text())
			}
		}
	}
	return v.Text()
}

// AuthorSources collects the author list of every "author" entry that
// names its source. A list result counts each element; an object or
// string result counts as one author.
func AuthorSources(rec record.Record) []AuthorSource {
	var out []AuthorSource
	for _, e := range rec.Entries(record.PropAuthor) {
		if !e.HasSource() || e.Result.IsAbsent() {
			continue
		}
		var authors []string
		switch e.Result.Kind() {
		case record.KindList:
			items, _ := e.Result.List()
			for _, item := range items {
				authors = append(authors, AuthorIdentifier(item))
			}
		case record.KindMap, record.KindString:
			authors = []string{AuthorIdentifier(e.Result)}
		}
		if len(authors) == 0 {
			continue
		}
		out = append(out, AuthorSource{
			Source:      e.Source,
			SourceFile:  record.Basename(e.Source),
			AuthorCount: len(authors),
			Authors:     authors,
		})
	}
	return out
}

// AuthorCountInconsistencies pairs every source with every other source
// that lists more authors. Sources are grouped by count; groups are paired
// in ascending count order, and sources within a group keep record order.
func AuthorCountInconsistencies(sources []AuthorSource) []AuthorCountInconsistency {
	if len(sources) < 2 {
		return nil
	}
	byCount := map[int][]AuthorSource{}
	for _, s := range sources {
		byCount[s.AuthorCount] = append(byCount[s.AuthorCount], s)
	}
	if len(byCount) < 2 {
		return nil
	}
	counts := make([]int, 0, len(byCount))
	for c := range byCount {
		counts = append(counts, c)
	}
	sort.Ints(counts)

	var out []AuthorCountInconsistency
	for i, lo := range counts {
		for _, hi := range counts[i+1:] {
			for _, fewer := range byCount[lo] {
				for _, more := range byCount[hi] {
					out = append(out, AuthorCountInconsistency{
						SourceWithFewer:     fewer.SourceFile,
						SourceWithFewerFull: fewer.Source,
						FewerCount:          lo,
						FewerAuthors:        fewer.Authors,
						SourceWithMore:      more.SourceFile,
						SourceWithMoreFull:  more.Source,
						MoreCount:           hi,
						MoreAuthors:         more.Authors,
						Difference:          hi - lo,
					})
				}
			}
		}
	}
	return out
}

// DetectAuthorCount compares author counts across all sources. Unlike the
// other rules it scans every entry and reports every disagreeing pair.
func DetectAuthorCount(rec record.Record, b Base) AuthorCount {
	res := AuthorCount{Base: b}

	sources := AuthorSources(rec)
	if len(sources) == 0 {
		return res
	}
	res.AuthorSources = sources
	res.TotalSources = len(sources)
	res.MinAuthorCount = sources[0].AuthorCount
	res.MaxAuthorCount = sources[0].AuthorCount
	for _, s := range sources[1:] {
		res.MinAuthorCount = min(res.MinAuthorCount, s.AuthorCount)
		res.MaxAuthorCount = max(res.MaxAuthorCount, s.AuthorCount)
	}

	res.Inconsistencies = AuthorCountInconsistencies(sources)
	res.Triggered = len(res.Inconsistencies) > 0
	return res
}

// GivenNameList (W008) reports an author string containing a list literal,
// as produced when a givenName array is flattened to text.
type GivenNameList struct {
	Base
	AuthorValue        string `json:"author_value,omitempty"`
	Source             string `json:"source,omitempty"`
	MetadataSourceFile string `json:"metadata_source_file,omitempty"`
}

var bracketed = regexp.MustCompile(`\[(.*?)\]`)

// HasNameList reports whether v contains a bracketed, comma-separated
// list such as "['William', 'Michael'] Landau".
func HasNameList(v string) bool {
	for _, m := range bracketed.FindAllStringSubmatch(v, -1) {
		if strings.Contains(m[1], ",") {
			return true
		}
	}
	return false
}

// DetectGivenNameList checks code_parser author strings from a metadata
// file (case-sensitive names).
func DetectGivenNameList(rec record.Record, b Base) GivenNameList {
	res := GivenNameList{Base: b}

	entry, ok := firstFiring(rec, record.PropAuthors, parsedMetadataExact, func(e record.Entry) bool {
		v, ok := e.StringValue()
		return ok && HasNameList(v)
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.AuthorValue, _ = entry.StringValue()
	res.Source = entry.Source
	res.MetadataSourceFile = record.ResolveMetadataFilename(entry.Source)
	return res
}

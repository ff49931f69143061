// Package record reads and navigates metadata extraction records.
//
// An extraction record maps a property name ("version", "license",
// "authors", ...) to an ordered list of evidence entries. Each entry says
// where a datum came from (Source), how it was extracted (Technique), and
// what was found (Result). The record format is produced by an external
// metadata extractor; this package only consumes it.
//
// # Value Shapes
//
// The payload of an entry is polymorphic: depending on the property and the
// extractor, result.value may be a string, an object, a list, or missing
// altogether. Records are decoded once into [Value] trees whose [Kind] is
// fixed at decode time, so rule code asks "is this a string?" through typed
// accessors rather than interface{} assertions.
//
// # Tolerance
//
// Decoding never fails on unexpected shapes inside a well-formed JSON
// object. A property whose value is not an array is treated as having no
// entries, and an array element that is not an object becomes an empty
// [Entry]. Only syntactically invalid JSON, or a top-level value that is not
// an object, is an error.
package record

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/matzehuels/metacheck/pkg/errors"
)

// Property names inspected by the rules.
const (
	PropVersion               = "version"
	PropLicense               = "license"
	PropAuthors               = "authors"
	PropAuthor                = "author"
	PropReadmeURL             = "readme_url"
	PropReferencePublication  = "reference_publication"
	PropCodeRepository        = "code_repository"
	PropIssueTracker          = "issue_tracker"
	PropDownloadURL           = "download_url"
	PropIdentifier            = "identifier"
	PropReleases              = "releases"
	PropDateUpdated           = "date_updated"
	PropRequirements          = "requirements"
	PropProgrammingLanguages  = "programming_languages"
	PropDevelopmentStatus     = "development_status"
	PropContinuousIntegration = "continuous_integration"
	PropCitation              = "citation"
	PropFullName              = "full_name"
	PropDescription           = "description"
	PropTitle                 = "title"
)

// Extraction techniques with special meaning.
const (
	TechniqueCodeParser = "code_parser"
	TechniqueGitHubAPI  = "GitHub_API"
)

// Record is a decoded extraction record. It is read-only once decoded; the
// rules never modify it, so a single Record may be shared between
// goroutines.
type Record struct {
	props map[string][]Entry
}

// Entry is one piece of evidence for a property.
type Entry struct {
	// Source is where the datum came from, typically a file path or URL.
	// Empty when the member was missing or not a string.
	Source string

	// Technique names the extraction method (e.g. "code_parser").
	Technique string

	// Result is the raw "result" member. It is usually an object carrying
	// "value", but some properties store a list or a bare string here.
	Result Value

	fields map[string]Value
}

// New builds a Record from already-constructed entries. It is mainly
// useful in tests.
func New(props map[string][]Entry) Record {
	cp := make(map[string][]Entry, len(props))
	for k, v := range props {
		cp[k] = append([]Entry(nil), v...)
	}
	return Record{props: cp}
}

// Parse decodes an extraction record from JSON.
func Parse(data []byte) (Record, error) {
	var rec Record
	if err := rec.UnmarshalJSON(data); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Read decodes an extraction record from r.
func Read(r io.Reader) (Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeInvalidRecord, err, "read record")
	}
	return Parse(data)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var top Value
	if err := top.UnmarshalJSON(bytes.TrimSpace(data)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecord, err, "decode record")
	}
	members, ok := top.Map()
	if !ok {
		return errors.New(errors.ErrCodeInvalidRecord, "record must be a JSON object, got %s", top.Kind())
	}

	props := make(map[string][]Entry, len(members))
	for name, v := range members {
		items, ok := v.List()
		if !ok {
			continue
		}
		entries := make([]Entry, len(items))
		for i, item := range items {
			entries[i] = entryFrom(item)
		}
		props[name] = entries
	}
	r.props = props
	return nil
}

// MarshalJSON encodes the record back to its JSON form.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string][]map[string]Value, len(r.props))
	for name, entries := range r.props {
		list := make([]map[string]Value, len(entries))
		for i, e := range entries {
			list[i] = e.fields
			if list[i] == nil {
				list[i] = e.toFields()
			}
		}
		out[name] = list
	}
	return json.Marshal(out)
}

func entryFrom(v Value) Entry {
	m, ok := v.Map()
	if !ok {
		return Entry{}
	}
	e := Entry{Result: m["result"], fields: m}
	e.Source, _ = m["source"].Str()
	e.Technique, _ = m["technique"].Str()
	return e
}

func (e Entry) toFields() map[string]Value {
	m := map[string]Value{}
	if e.Source != "" {
		m["source"] = String(e.Source)
	}
	if e.Technique != "" {
		m["technique"] = String(e.Technique)
	}
	if !e.Result.IsAbsent() {
		m["result"] = e.Result
	}
	return m
}

// Entries returns the evidence entries for a property in record order.
// A missing or malformed property yields nil.
func (r Record) Entries(prop string) []Entry {
	return r.props[prop]
}

// Has reports whether the record carries a usable list for prop.
func (r Record) Has(prop string) bool {
	_, ok := r.props[prop]
	return ok
}

// Properties returns the number of usable properties.
func (r Record) Properties() int {
	return len(r.props)
}

// Field returns a top-level member of the entry, such as a release "tag".
func (e Entry) Field(key string) Value {
	if e.fields == nil {
		return e.toFields()[key]
	}
	return e.fields[key]
}

// HasValue reports whether the entry carries result.value.
func (e Entry) HasValue() bool {
	return e.Result.Has("value")
}

// Value returns result.value, or an absent Value.
func (e Entry) Value() Value {
	return e.Result.Field("value")
}

// StringValue returns result.value when it is a string.
func (e Entry) StringValue() (string, bool) {
	return e.Value().Str()
}

// ResultSource returns result.source when it is a string.
func (e Entry) ResultSource() string {
	s, _ := e.Result.Field("source").Str()
	return s
}

// HasSource reports whether the entry carried a "source" member at all.
func (e Entry) HasSource() bool {
	if e.fields == nil {
		return e.Source != ""
	}
	_, ok := e.fields["source"]
	return ok
}

// Tag returns the release tag of the entry, honouring a top-level "tag"
// before result.tag.
func (e Entry) Tag() (string, bool) {
	if t := e.Field("tag"); !t.IsAbsent() {
		return t.Str()
	}
	return e.Result.Field("tag").Str()
}

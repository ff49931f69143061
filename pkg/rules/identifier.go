package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/matzehuels/metacheck/pkg/record"
)

// BareDOI (P014) reports a codemeta identifier written as a bare DOI
// ("10.1234/x" or "doi:10.1234/x") instead of a https://doi.org/ URL.
type BareDOI struct {
	Base
	IdentifierValue string `json:"identifier_value,omitempty"`
	Source          string `json:"source,omitempty"`
	IsBareDOI       bool   `json:"is_bare_doi"`
}

var bareDOIPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^doi:10\.\d+/`),
	regexp.MustCompile(`^10\.\d+/`),
}

// IsBareDOI reports whether v is a DOI that is not a resolvable URL.
//
//	IsBareDOI("10.5281/zenodo.1234")                 // true
//	IsBareDOI("doi:10.5281/zenodo.1234")             // true
//	IsBareDOI("https://doi.org/10.5281/zenodo.1234") // false
func IsBareDOI(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "https://doi.org/") {
		return false
	}
	return matchesAny(bareDOIPatterns, v)
}

// DetectBareDOI checks codemeta identifier entries.
func DetectBareDOI(rec record.Record, b Base) BareDOI {
	res := BareDOI{Base: b}

	entry, ok := firstFiring(rec, record.PropIdentifier, codemeta, func(e record.Entry) bool {
		v, ok := e.StringValue()
		return ok && IsBareDOI(v)
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.IsBareDOI = true
	res.IdentifierValue, _ = entry.StringValue()
	res.Source = entry.Source
	return res
}

// RawSWHID (P018) reports a codemeta identifier given as a raw Software
// Heritage identifier that no resolver URL wraps.
type RawSWHID struct {
	Base
	IdentifierValue string `json:"identifier_value,omitempty"`
	Source          string `json:"source,omitempty"`
	IsRawSWHID      bool   `json:"is_raw_swhid"`
}

var swhid = regexp.MustCompile(`^swh:1:[a-z]+:[a-f0-9]{40}$`)

// IsRawSWHID reports whether v is a bare "swh:1:<type>:<sha1>" identifier.
func IsRawSWHID(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return false
	}
	return swhid.MatchString(v)
}

// DetectRawSWHID checks codemeta identifier entries.
func DetectRawSWHID(rec record.Record, b Base) RawSWHID {
	res := RawSWHID{Base: b}

	entry, ok := firstFiring(rec, record.PropIdentifier, codemeta, func(e record.Entry) bool {
		v, ok := e.StringValue()
		return ok && IsRawSWHID(v)
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.IsRawSWHID = true
	res.IdentifierValue, _ = entry.StringValue()
	res.Source = entry.Source
	return res
}

// IdentifierName (W006) reports a codemeta identifier that is a plain name
// while a proper identifier exists in another source.
type IdentifierName struct {
	Base
	CodemetaIdentifier record.Value `json:"codemeta_identifier"`
	OtherIdentifier    record.Value `json:"other_identifier"`
	CodemetaSource     string       `json:"codemeta_source,omitempty"`
	OtherSource        string       `json:"other_source,omitempty"`
}

var (
	doiIdentifier = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^doi:10\.\d+/.+`),
		regexp.MustCompile(`(?i)^10\.\d+/.+`),
	}
	httpIdentifier = regexp.MustCompile(`(?i)^https?://.+`)
)

// IsValidIdentifier reports whether v looks like a unique identifier (a
// DOI or an http URL) rather than a name. Strings made only of letters,
// spaces, hyphens and underscores are names, as are strings with spaces
// and no "/", ":" or ".".
func IsValidIdentifier(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if matchesAny(doiIdentifier, v) {
		return true
	}
	if lower := strings.ToLower(v); lower == "doi:" || lower == "10." {
		return false
	}
	if httpIdentifier.MatchString(v) {
		return true
	}
	if strings.Contains(v, " ") && !strings.ContainsAny(v, "/:.") {
		return false
	}
	return !isAlpha(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(v))
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func validIdentifierValue(v record.Value) bool {
	s, ok := v.Str()
	return ok && IsValidIdentifier(s)
}

func codemetaIdentifier(e record.Entry) bool {
	return e.IsCodeParser() && strings.Contains(strings.ToLower(e.Source), record.CodemetaFile)
}

// DetectIdentifierName compares the first code_parser codemeta identifier
// with the first valid identifier from any other source.
func DetectIdentifierName(rec record.Record, b Base) IdentifierName {
	res := IdentifierName{Base: b}

	cm, ok := record.First(rec, record.PropIdentifier, codemetaIdentifier)
	if ok {
		res.CodemetaIdentifier = cm.Value()
		res.CodemetaSource = cm.Source
	}
	other, ok := record.First(rec, record.PropIdentifier, func(e record.Entry) bool {
		return !codemetaIdentifier(e) && validIdentifierValue(e.Value())
	})
	if ok {
		res.OtherIdentifier = other.Value()
		res.OtherSource = other.Source
	}

	res.Triggered = res.CodemetaIdentifier.Truthy() &&
		!validIdentifierValue(res.CodemetaIdentifier) &&
		res.OtherIdentifier.Truthy()
	return res
}

// EmptyIdentifier (W007) reports a codemeta identifier that is empty.
type EmptyIdentifier struct {
	Base
	IdentifierValue record.Value `json:"identifier_value"`
	Source          string       `json:"source,omitempty"`
}

// IsEmptyValue reports whether v is missing, null, false, zero, an empty
// container, or a string of only whitespace.
func IsEmptyValue(v record.Value) bool {
	if !v.Truthy() {
		return true
	}
	s, ok := v.Str()
	return ok && strings.TrimSpace(s) == ""
}

// DetectEmptyIdentifier checks codemeta identifier entries. Only entries
// that carry result.value are considered; a missing identifier property
// does not fire.
func DetectEmptyIdentifier(rec record.Record, b Base) EmptyIdentifier {
	res := EmptyIdentifier{Base: b}

	entry, ok := firstFiring(rec, record.PropIdentifier, codemeta, func(e record.Entry) bool {
		return IsEmptyValue(e.Value())
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.IdentifierValue = entry.Value()
	res.Source = entry.Source
	return res
}

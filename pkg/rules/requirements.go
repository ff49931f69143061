package rules

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/matzehuels/metacheck/pkg/record"
)

// UnversionedRequirements (W001) reports software requirements in a
// metadata file that do not pin a version.
type UnversionedRequirements struct {
	Base
	MetadataSource          string   `json:"metadata_source,omitempty"`
	MetadataSourceFile      string   `json:"metadata_source_file,omitempty"`
	TotalRequirements       int      `json:"total_requirements"`
	UnversionedCount        int      `json:"unversioned_count"`
	UnversionedRequirements []string `json:"unversioned_requirements,omitempty"`
	PercentageUnversioned   float64  `json:"percentage_unversioned"`
}

var versionOperators = []string{"==", ">=", "<=", ">", "<", "~=", "!=", "^", "~"}

// RequirementHasVersion reports whether a structured requirement carries
// version information: a non-blank "version" member, or a "value" string
// containing a version operator such as ">=" or "~".
func RequirementHasVersion(req record.Value) bool {
	if v, ok := req.Field("version").Str(); ok && strings.TrimSpace(v) != "" {
		return true
	}
	if v, ok := req.Field("value").Str(); ok {
		return containsAny(v, versionOperators...)
	}
	return false
}

// namedResult reports whether v is an object naming something through a
// "name" or "value" member. Other objects carry no requirement.
func namedResult(v record.Value) bool {
	return v.Has("name") || v.Has("value")
}

func requirementName(req record.Value) string {
	switch {
	case req.Has("name"):
		return req.Field("name").Text()
	case req.Has("value"):
		return req.Field("value").Text()
	}
	return "unknown"
}

// round2 rounds to two decimals, as reported percentages are.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// DetectUnversionedRequirements analyzes the result of the first
// requirements entry whose source names a metadata file. A result object
// counts as one requirement; a list counts each element, although only
// object elements can be judged unversioned. Objects with neither a name
// nor a value are ignored.
func DetectUnversionedRequirements(rec record.Record, b Base) UnversionedRequirements {
	res := UnversionedRequirements{Base: b}

	var entry record.Entry
	var found bool
	for _, e := range rec.Entries(record.PropRequirements) {
		if e.HasSource() && record.HasMetadataFile(e.Source) && !e.Result.IsAbsent() {
			entry, found = e, true
			break
		}
	}
	if !found {
		return res
	}
	res.MetadataSource = entry.Source
	res.MetadataSourceFile = record.ResolveMetadataFilename(entry.Source)

	var reqs []record.Value
	switch entry.Result.Kind() {
	case record.KindMap:
		reqs = []record.Value{entry.Result}
	case record.KindList:
		reqs, _ = entry.Result.List()
	default:
		return res
	}

	for _, req := range reqs {
		if req.Kind() == record.KindMap && !namedResult(req) {
			continue
		}
		res.TotalRequirements++
		if req.Kind() != record.KindMap || RequirementHasVersion(req) {
			continue
		}
		res.UnversionedCount++
		res.UnversionedRequirements = append(res.UnversionedRequirements, requirementName(req))
	}
	if res.TotalRequirements > 0 {
		res.PercentageUnversioned = round2(float64(res.UnversionedCount) / float64(res.TotalRequirements) * 100)
		res.Triggered = res.UnversionedCount > 0
	}
	return res
}

// LanguageNoVersion (W004) reports programming languages and requirements
// in codemeta.json whose version is missing or null.
type LanguageNoVersion struct {
	Base
	LanguagesWithoutVersion    []string `json:"programming_languages_without_version,omitempty"`
	RequirementsWithoutVersion []string `json:"requirements_without_version,omitempty"`
	Source                     string   `json:"source,omitempty"`
}

func unversionedResult(e record.Entry) bool {
	if !e.IsCodemetaParsed() || !namedResult(e.Result) {
		return false
	}
	v := e.Result.Field("version")
	return v.IsAbsent() || v.IsNull()
}

// DetectLanguageNoVersion scans every code_parser codemeta.json entry of
// programming_languages and requirements. All unversioned names are
// collected; the reported source is the last one seen.
func DetectLanguageNoVersion(rec record.Record, b Base) LanguageNoVersion {
	res := LanguageNoVersion{Base: b}

	for _, e := range rec.Entries(record.PropProgrammingLanguages) {
		if !unversionedResult(e) {
			continue
		}
		name := "Unknown"
		if e.Result.Has("name") {
			name = e.Result.Field("name").Text()
		}
		res.LanguagesWithoutVersion = append(res.LanguagesWithoutVersion, name)
		res.Source = e.Source
		res.Triggered = true
	}
	for _, e := range rec.Entries(record.PropRequirements) {
		if !unversionedResult(e) {
			continue
		}
		res.RequirementsWithoutVersion = append(res.RequirementsWithoutVersion, requirementName(e.Result))
		res.Source = e.Source
		res.Triggered = true
	}
	return res
}

// MultipleRequirements (W005) reports several requirements written as one
// string, such as "numpy  pandas" or "Flask Django".
type MultipleRequirements struct {
	Base
	RequirementString    string   `json:"requirement_string,omitempty"`
	DetectedRequirements []string `json:"detected_requirements,omitempty"`
	Source               string   `json:"source,omitempty"`
	MetadataSourceFile   string   `json:"metadata_source_file,omitempty"`
	CountDetected        int      `json:"count_detected"`
}

var (
	wideSpace     = regexp.MustCompile(`\s{2,}`)
	capitalizedID = regexp.MustCompile(`\s+[A-Z][A-Za-z]`)
)

// SplitRequirements splits a requirement string that packs several
// requirements together. Runs of two or more spaces separate requirements;
// failing that, whitespace followed by a capital letter does. It returns
// nil when the string holds a single requirement.
func SplitRequirements(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var parts []string
	if wideSpace.MatchString(s) {
		parts = nonBlank(wideSpace.Split(s, -1))
	}
	if len(parts) == 0 && capitalizedID.MatchString(s) {
		parts = nonBlank(splitBeforeCapitals(s))
	}
	if len(parts) > 1 {
		return parts
	}
	return nil
}

// splitBeforeCapitals splits s at every whitespace run that is followed by
// an ASCII capital letter. The whitespace is dropped.
func splitBeforeCapitals(s string) []string {
	var parts []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes); {
		if !unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j < len(runes) && runes[j] >= 'A' && runes[j] <= 'Z' {
			parts = append(parts, string(runes[start:i]))
			start = j
		}
		i = j
	}
	return append(parts, string(runes[start:]))
}

func nonBlank(parts []string) []string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// requirementString returns the requirement text of an entry: a string
// value, or the sole string of a one-element list.
func requirementString(e record.Entry) (string, bool) {
	v := e.Value()
	if s, ok := v.Str(); ok {
		return s, true
	}
	if items, ok := v.List(); ok && len(items) == 1 {
		return items[0].Str()
	}
	return "", false
}

// DetectMultipleRequirements checks requirements from metadata techniques
// and from codemeta.json, setup.py and pom.xml sources.
func DetectMultipleRequirements(rec record.Record, b Base) MultipleRequirements {
	res := MultipleRequirements{Base: b}

	qualify := func(e record.Entry) bool {
		return record.IsMetadataTechnique(e.Technique) ||
			containsAny(strings.ToLower(e.Source), "codemeta.json", "setup.py", "pom.xml")
	}
	var parts []string
	entry, ok := firstFiring(rec, record.PropRequirements, qualify, func(e record.Entry) bool {
		s, ok := requirementString(e)
		if !ok {
			return false
		}
		parts = SplitRequirements(s)
		return len(parts) > 0
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.RequirementString, _ = requirementString(entry)
	res.DetectedRequirements = parts
	res.CountDetected = len(parts)
	res.Source = sourceLabel(entry)
	res.MetadataSourceFile = record.ResolveMetadataFilename(entry.Source)
	return res
}

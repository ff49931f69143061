package rules

import (
	"regexp"
	"strings"

	"github.com/matzehuels/metacheck/pkg/record"
)

// LicensePlaceholders (P002) reports a LICENSE.md that still contains
// template placeholders such as "<year>".
type LicensePlaceholders struct {
	Base
	LicenseSource     string   `json:"license_source,omitempty"`
	PlaceholdersFound bool     `json:"placeholders_found"`
	Placeholders      []string `json:"placeholders,omitempty"`
}

var licensePlaceholders = []*regexp.Regexp{
	regexp.MustCompile(`<program>`),
	regexp.MustCompile(`<year>`),
	regexp.MustCompile(`<name of author>`),
	regexp.MustCompile(`<name>`),
	regexp.MustCompile(`<copyright holders?>`),
	regexp.MustCompile(`<owner>`),
	regexp.MustCompile(`<author>`),
	regexp.MustCompile(`\[year\]`),
	regexp.MustCompile(`\[fullname\]`),
	regexp.MustCompile(`\[name\]`),
	regexp.MustCompile(`\[copyright holder\]`),
	regexp.MustCompile(`<yyyy>`),
	regexp.MustCompile(`<name of copyright owner>`),
}

// LicenseTemplatePlaceholders returns the placeholders found in license
// text, compared case-insensitively, in pattern order.
func LicenseTemplatePlaceholders(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, re := range licensePlaceholders {
		if m := re.FindString(lower); m != "" {
			found = append(found, m)
		}
	}
	return found
}

// DetectLicensePlaceholders reads the first license entry whose source
// names LICENSE.md.
func DetectLicensePlaceholders(rec record.Record, b Base) LicensePlaceholders {
	res := LicensePlaceholders{Base: b}

	entry, ok := record.First(rec, record.PropLicense, func(e record.Entry) bool {
		return e.HasSource() && strings.Contains(e.Source, "LICENSE.md")
	})
	if !ok {
		return res
	}
	res.LicenseSource = entry.Source

	text, ok := entry.StringValue()
	if !ok {
		return res
	}
	if found := LicenseTemplatePlaceholders(text); len(found) > 0 {
		res.Triggered = true
		res.PlaceholdersFound = true
		res.Placeholders = found
	}
	return res
}

// LocalFileLicense (P006) reports a license value that names a local file
// rather than a license.
type LocalFileLicense struct {
	Base
	LicenseValue       string `json:"license_value,omitempty"`
	Source             string `json:"source,omitempty"`
	MetadataSourceFile string `json:"metadata_source_file,omitempty"`
	IsLocalFile        bool   `json:"is_local_file"`
}

var licenseFileNames = map[string]bool{
	"license": true, "license.md": true, "license.txt": true, "license.rst": true,
	"copying": true, "copying.md": true, "copying.txt": true,
	"copyright": true, "copyright.md": true, "copyright.txt": true,
	"licence": true, "licence.md": true, "licence.txt": true,
	"readme.md": true, "doc.txt": true, "file.rst": true,
}

// IsLocalFileLicense reports whether a license value points at a file: a
// relative path, any path with a separator, a well-known license file name,
// or a text document extension. URLs never count.
func IsLocalFileLicense(v string) bool {
	if v == "" {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(v))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return false
	}
	if strings.HasPrefix(v, "./") || strings.HasPrefix(v, "../") {
		return true
	}
	if strings.ContainsAny(v, `/\`) {
		return true
	}
	if licenseFileNames[lower] {
		return true
	}
	for _, ext := range []string{".md", ".txt", ".rst"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// DetectLocalFileLicense checks license entries from code_parser or a
// metadata file.
func DetectLocalFileLicense(rec record.Record, b Base) LocalFileLicense {
	res := LocalFileLicense{Base: b}

	entry, ok := firstFiring(rec, record.PropLicense, parserOrMetadata, func(e record.Entry) bool {
		v, ok := e.StringValue()
		return ok && IsLocalFileLicense(v)
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.IsLocalFile = true
	res.LicenseValue, _ = entry.StringValue()
	res.Source = sourceLabel(entry)
	res.MetadataSourceFile = record.ResolveMetadataFilename(entry.Source)
	return res
}

// CopyrightOnlyLicense (P010) reports a LICENSE file that holds a copyright
// notice but no license terms.
type CopyrightOnlyLicense struct {
	Base
	LicenseSource   string `json:"license_source,omitempty"`
	IsCopyrightOnly bool   `json:"is_copyright_only"`
}

var (
	copyrightPatterns = []*regexp.Regexp{
		regexp.MustCompile(`year\s*:\s*\d{4}`),
		regexp.MustCompile(`copyright\s+holder\s*:\s*[a-zA-Z]`),
		regexp.MustCompile(`author\s*:\s*[a-zA-Z]`),
		regexp.MustCompile(`copyright\s*©?\s*\d{4}`),
		regexp.MustCompile(`\(c\)\s*\d{4}`),
	}
	licenseTermPatterns = []*regexp.Regexp{
		regexp.MustCompile(`permission\s+is\s+hereby\s+granted`),
		regexp.MustCompile(`subject\s+to\s+the\s+following\s+conditions`),
		regexp.MustCompile(`redistribution\s+and\s+use`),
		regexp.MustCompile(`without\s+restriction`),
		regexp.MustCompile(`without\s+warranty`),
		regexp.MustCompile(`liability`),
		regexp.MustCompile(`terms\s+and\s+conditions`),
		regexp.MustCompile(`licensed\s+under`),
		regexp.MustCompile(`mit\s+license`),
		regexp.MustCompile(`apache\s+license`),
		regexp.MustCompile(`gnu\s+general\s+public\s+license`),
		regexp.MustCompile(`bsd\s+license`),
		regexp.MustCompile(`creative\s+commons`),
	}
	yearField   = regexp.MustCompile(`year\s*:\s*\d{4}`)
	holderField = regexp.MustCompile(`copyright\s+holder\s*:`)
)

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// IsCopyrightOnlyLicense reports whether license text is only a copyright
// notice. It holds when any of these is true:
//   - copyright phrases are present, license terms are absent, and the
//     text has at most 10 non-blank lines
//   - the text has both a "YEAR:" and a "COPYRIGHT HOLDER:" field
//   - the text has at most 5 non-blank lines, copyright phrases are
//     present, and at most one line is neither copyright nor decoration
func IsCopyrightOnlyLicense(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(text))

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	hasCopyright := matchesAny(copyrightPatterns, lower)
	hasTerms := matchesAny(licenseTermPatterns, lower)

	if hasCopyright && !hasTerms && len(lines) <= 10 {
		return true
	}
	if yearField.MatchString(lower) && holderField.MatchString(lower) {
		return true
	}
	if len(lines) <= 5 && hasCopyright {
		meaningful := 0
		for _, line := range lines {
			if matchesAny(copyrightPatterns, strings.ToLower(line)) {
				continue
			}
			if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
				continue
			}
			switch line {
			case "-", "=", "*":
				continue
			}
			meaningful++
		}
		if meaningful <= 1 {
			return true
		}
	}
	return false
}

// DetectCopyrightOnlyLicense reads the first license entry whose source
// contains "license" in any case.
func DetectCopyrightOnlyLicense(rec record.Record, b Base) CopyrightOnlyLicense {
	res := CopyrightOnlyLicense{Base: b}

	entry, ok := record.First(rec, record.PropLicense, func(e record.Entry) bool {
		return e.HasSource() && strings.Contains(strings.ToUpper(e.Source), "LICENSE")
	})
	if !ok {
		return res
	}
	res.LicenseSource = entry.Source

	text, ok := entry.StringValue()
	if ok && IsCopyrightOnlyLicense(text) {
		res.Triggered = true
		res.IsCopyrightOnly = true
	}
	return res
}

// UnversionedLicense (P013) reports a versioned license family named
// without its version, e.g. "GPL" instead of "GPL-3.0-only".
type UnversionedLicense struct {
	Base
	LicenseValue       string `json:"license_value,omitempty"`
	Family             string `json:"family,omitempty"`
	Source             string `json:"source,omitempty"`
	MetadataSourceFile string `json:"metadata_source_file,omitempty"`
}

// licenseFamilies are matched against the uppercased license value. A
// family is present when its name appears as a word, and versioned when
// the version pattern also matches. CC0 and 0BSD are not families here.
var licenseFamilies = []struct {
	name      string
	present   *regexp.Regexp
	versioned *regexp.Regexp
}{
	{"GPL", regexp.MustCompile(`\b[LA]?GPL`), regexp.MustCompile(`GPL[- ]?V?\d+(\.\d+)?`)},
	{"Apache", regexp.MustCompile(`\bAPACHE\b`), regexp.MustCompile(`APACHE(?:[- ]LICENSE)?,?(?:[- ]VERSION)?[- ]?V?\d+(\.\d+)?`)},
	{"CC", regexp.MustCompile(`\bCC[- ]BY\b`), regexp.MustCompile(`CC[- ]BY(?:[- ](?:SA|NC|ND))*[- ]?\d+(\.\d+)?`)},
	{"BSD", regexp.MustCompile(`\bBSD\b`), regexp.MustCompile(`BSD-?\d+[- ]CLAUSE`)},
}

// UnversionedLicenseFamily returns the first versioned license family named
// in v without a version, or "".
func UnversionedLicenseFamily(v string) string {
	upper := strings.ToUpper(v)
	for _, f := range licenseFamilies {
		if f.present.MatchString(upper) && !f.versioned.MatchString(upper) {
			return f.name
		}
	}
	return ""
}

// DetectUnversionedLicense checks code_parser license entries from a
// metadata file (case-sensitive names).
func DetectUnversionedLicense(rec record.Record, b Base) UnversionedLicense {
	res := UnversionedLicense{Base: b}

	entry, ok := firstFiring(rec, record.PropLicense, parsedMetadataExact, func(e record.Entry) bool {
		v, ok := e.StringValue()
		return ok && UnversionedLicenseFamily(v) != ""
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.LicenseValue, _ = entry.StringValue()
	res.Family = UnversionedLicenseFamily(res.LicenseValue)
	res.Source = entry.Source
	res.MetadataSourceFile = record.ResolveMetadataFilename(entry.Source)
	return res
}

// DualLicense (W003) reports license text that announces several licenses
// while codemeta.json lists at most one.
type DualLicense struct {
	Base
	HasDualLicenseIndicator bool   `json:"has_dual_license_indicator"`
	CodemetaLicenseCount    int    `json:"codemeta_license_count"`
	DualLicenseSource       string `json:"dual_license_source,omitempty"`
}

var dualLicensePatterns = []*regexp.Regexp{
	regexp.MustCompile(`dual[\s-]?licen[cs]ed?`),
	regexp.MustCompile(`multiple[\s-]?licen[cs]es?`),
	regexp.MustCompile(`licen[cs]ed?\s+under.*(?:and|or)`),
	regexp.MustCompile(`choose.*licen[cs]e`),
	regexp.MustCompile(`either.*licen[cs]e`),
	regexp.MustCompile(`(?:\d+\..*licen[cs]e.*){2,}`),
	regexp.MustCompile(`licen[cs]e.*options?`),
	regexp.MustCompile(`available\s+under.*licen[cs]es?`),
}

// HasDualLicenseIndicator reports whether license text suggests more than
// one license applies.
func HasDualLicenseIndicator(text string) bool {
	return matchesAny(dualLicensePatterns, strings.ToLower(text))
}

// DetectDualLicense counts code_parser codemeta.json license entries and
// scans every other license text. It scans all entries; the reported source
// is the last one with an indicator.
func DetectDualLicense(rec record.Record, b Base) DualLicense {
	res := DualLicense{Base: b}

	for _, e := range rec.Entries(record.PropLicense) {
		if e.IsCodemetaParsed() {
			res.CodemetaLicenseCount++
			continue
		}
		if text, ok := e.StringValue(); ok && HasDualLicenseIndicator(text) {
			res.HasDualLicenseIndicator = true
			res.DualLicenseSource = e.Source
		}
	}
	res.Triggered = res.HasDualLicenseIndicator && res.CodemetaLicenseCount <= 1
	return res
}

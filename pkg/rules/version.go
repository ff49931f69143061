package rules

import (
	"regexp"
	"strings"
	"time"

	"github.com/matzehuels/metacheck/pkg/record"
)

// VersionMismatch (P001) reports a metadata file version that differs from
// the latest release tag.
type VersionMismatch struct {
	Base
	MetadataVersion    string `json:"metadata_version,omitempty"`
	ReleaseVersion     string `json:"release_version,omitempty"`
	MetadataSource     string `json:"metadata_source,omitempty"`
	MetadataSourceFile string `json:"metadata_source_file,omitempty"`
}

// DetectVersionMismatch compares the first metadata-file version with the
// tag of the first listed release, after stripping a leading "v".
//
// An entry without a top-level source is attributed through result.source.
func DetectVersionMismatch(rec record.Record, b Base) VersionMismatch {
	res := VersionMismatch{Base: b}

	version, source, ok := metadataVersion(rec)
	if !ok {
		return res
	}
	latest, ok := record.LatestRelease(rec)
	if !ok {
		return res
	}
	tag, ok := latest.Tag()
	if !ok || tag == "" {
		return res
	}

	res.MetadataVersion = record.NormalizeVersion(version)
	res.ReleaseVersion = record.NormalizeVersion(tag)
	res.MetadataSource = source
	res.MetadataSourceFile = record.ResolveMetadataFilename(source)
	res.Triggered = res.MetadataVersion != res.ReleaseVersion
	return res
}

func metadataVersion(rec record.Record) (version, source string, ok bool) {
	for _, e := range rec.Entries(record.PropVersion) {
		src := e.Source
		if !e.HasSource() {
			src = e.ResultSource()
		}
		if !record.HasMetadataFile(src) || !e.HasValue() {
			continue
		}
		v, ok := scalarText(e.Value())
		return v, src, ok
	}
	return "", "", false
}

// OutdatedDownloadURL (P012) reports a codemeta downloadURL that embeds a
// version other than the latest release.
type OutdatedDownloadURL struct {
	Base
	DownloadURL          string `json:"download_url,omitempty"`
	DownloadVersion      string `json:"download_version,omitempty"`
	LatestReleaseVersion string `json:"latest_release_version,omitempty"`
	Source               string `json:"source,omitempty"`
}

var (
	downloadVersionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/archive/(?:v)?(\d+\.\d+(?:\.\d+)?(?:[a-zA-Z0-9\-\.]*)?)`),
		regexp.MustCompile(`[-_](?:v)?(\d+\.\d+(?:\.\d+)?(?:[a-zA-Z0-9\-\.]*)?)\.`),
		regexp.MustCompile(`/(?:v)?(\d+\.\d+(?:\.\d+)?(?:[a-zA-Z0-9\-\.]*)?)/[^/]*$`),
		regexp.MustCompile(`[-_/](?:v)?(\d+\.\d+(?:\.\d+)?(?:[a-zA-Z0-9\-\.]*)?)(?:\.tar\.gz|\.zip|$)`),
	}
	releaseNameVersion = regexp.MustCompile(`(?:v)?(\d+\.\d+(?:\.\d+)?(?:[a-zA-Z0-9\-\.]*)?)`)
)

var archiveSuffixes = []string{".tar.gz", ".tar.bz2", ".tar.xz", ".tgz", ".zip", ".whl", ".jar", ".tar"}

// DownloadURLVersion extracts the version embedded in a download URL, such
// as "1.2.3" from ".../archive/v1.2.3.tar.gz". It returns "" when the URL
// carries no recognizable version.
func DownloadURLVersion(url string) string {
	for _, re := range downloadVersionPatterns {
		m := re.FindStringSubmatch(url)
		if m == nil {
			continue
		}
		v := m[1]
		for _, suffix := range archiveSuffixes {
			v = strings.TrimSuffix(v, suffix)
		}
		return strings.TrimRight(v, ".-")
	}
	return ""
}

// lowerVersion lowercases before stripping the "v", so "V1.0-RC" and
// "1.0-rc" compare equal.
func lowerVersion(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.TrimPrefix(v, "v")
}

// releaseVersion reads result.tag of the first release, falling back to a
// version found in result.name.
func releaseVersion(rec record.Record) string {
	latest, ok := record.LatestRelease(rec)
	if !ok {
		return ""
	}
	if tag, ok := latest.Result.Field("tag").Str(); ok {
		if tag = strings.TrimSpace(tag); tag != "" {
			return lowerVersion(tag)
		}
	}
	if name, ok := latest.Result.Field("name").Str(); ok && name != "" {
		if m := releaseNameVersion.FindStringSubmatch(name); m != nil {
			return lowerVersion(m[1])
		}
	}
	return ""
}

// DetectOutdatedDownloadURL compares the version in the first codemeta
// downloadURL with the latest release. Matching is case-insensitive on the
// source; unlike most codemeta rules, "CODEMETA.JSON" qualifies.
func DetectOutdatedDownloadURL(rec record.Record, b Base) OutdatedDownloadURL {
	res := OutdatedDownloadURL{Base: b}

	entry, ok := record.First(rec, record.PropDownloadURL, func(e record.Entry) bool {
		return strings.Contains(strings.ToLower(e.Source), record.CodemetaFile) || e.IsCodemeta()
	})
	if !ok {
		return res
	}
	url, ok := entry.StringValue()
	if !ok || url == "" {
		return res
	}
	downloadVersion := DownloadURLVersion(url)
	if downloadVersion == "" {
		return res
	}
	latest := releaseVersion(rec)
	if latest == "" {
		return res
	}

	if lowerVersion(downloadVersion) != latest {
		res.Triggered = true
		res.DownloadURL = url
		res.DownloadVersion = downloadVersion
		res.LatestReleaseVersion = latest
		res.Source = entry.Source
	}
	return res
}

// VersionSource is a version found in one metadata source.
type VersionSource struct {
	Version   string `json:"version"`
	Source    string `json:"source"`
	Technique string `json:"technique"`
}

// CodemetaVersionMismatch (P017) reports a codemeta.json version that
// differs from versions in other package metadata.
type CodemetaVersionMismatch struct {
	Base
	CodemetaVersion    string          `json:"codemeta_version,omitempty"`
	MetadataSourceFile string          `json:"metadata_source_file,omitempty"`
	OtherVersions      []VersionSource `json:"other_versions,omitempty"`
	MismatchedVersions []VersionSource `json:"mismatched_versions,omitempty"`
}

// DetectCodemetaVersionMismatch compares the first codemeta.json version
// against every version from another metadata source. All mismatches are
// reported.
func DetectCodemetaVersionMismatch(rec record.Record, b Base) CodemetaVersionMismatch {
	res := CodemetaVersionMismatch{Base: b}

	entry, ok := record.First(rec, record.PropVersion, codemeta)
	if !ok {
		return res
	}
	cm, ok := scalarText(entry.Value())
	if !ok || cm == "" {
		return res
	}

	var others []VersionSource
	for _, e := range record.All(rec, record.PropVersion, parserOrMetadata) {
		if strings.Contains(e.Source, record.CodemetaFile) {
			continue
		}
		v, ok := scalarText(e.Value())
		if !ok {
			continue
		}
		others = append(others, VersionSource{Version: v, Source: e.Source, Technique: e.Technique})
	}

	var mismatched []VersionSource
	for _, o := range others {
		if strings.TrimSpace(cm) != strings.TrimSpace(o.Version) {
			mismatched = append(mismatched, o)
		}
	}
	if len(mismatched) == 0 {
		return res
	}

	res.Triggered = true
	res.CodemetaVersion = cm
	res.OtherVersions = others
	res.MismatchedVersions = mismatched
	res.MetadataSourceFile = record.CodemetaFile
	return res
}

// OutdatedDateModified (W002) reports a codemeta dateModified older than
// the repository's last update on the hosting platform.
type OutdatedDateModified struct {
	Base
	GitHubAPIDate       string `json:"github_api_date,omitempty"`
	CodemetaDate        string `json:"codemeta_date,omitempty"`
	CodemetaSource      string `json:"codemeta_source,omitempty"`
	DifferenceDays      int    `json:"difference_days"`
	GitHubAPIDateParsed string `json:"github_api_date_parsed,omitempty"`
	CodemetaDateParsed  string `json:"codemeta_date_parsed,omitempty"`
}

const codemetaParserSource = "codemeta.json (code_parser)"

// DetectOutdatedDateModified fires when the GitHub API date is newer than
// the codemeta date by more than one full day. Smaller differences are
// tolerated as clock skew between the two sources.
func DetectOutdatedDateModified(rec record.Record, b Base) OutdatedDateModified {
	res := OutdatedDateModified{Base: b}

	api, ok := record.First(rec, record.PropDateUpdated, func(e record.Entry) bool {
		return e.Technique == record.TechniqueGitHubAPI
	})
	if !ok {
		return res
	}
	apiDate, _ := api.StringValue()
	cmDate, cmSource, ok := codemetaDate(rec)
	if apiDate == "" || !ok {
		return res
	}

	res.GitHubAPIDate = apiDate
	res.CodemetaDate = cmDate
	res.CodemetaSource = cmSource

	apiTime, ok1 := record.ParseDate(apiDate)
	cmTime, ok2 := record.ParseDate(cmDate)
	if !ok1 || !ok2 {
		return res
	}
	res.GitHubAPIDateParsed = isoformat(apiTime)
	res.CodemetaDateParsed = isoformat(cmTime)
	res.DifferenceDays = wholeDays(apiTime.Sub(cmTime))
	res.Triggered = apiTime.After(cmTime) && res.DifferenceDays > 1
	return res
}

// codemetaDate finds the codemeta dateModified. An entry without a source
// member counts when it was produced by code_parser.
func codemetaDate(rec record.Record) (date, source string, ok bool) {
	for _, e := range rec.Entries(record.PropDateUpdated) {
		switch {
		case e.HasSource():
			if !strings.Contains(e.Source, record.CodemetaFile) || !e.HasValue() {
				continue
			}
			source = e.Source
		case e.IsCodeParser():
			if !e.HasValue() {
				continue
			}
			source = codemetaParserSource
		default:
			continue
		}
		date, _ = e.StringValue()
		return date, source, true
	}
	return "", "", false
}

// wholeDays returns the absolute number of days in d, where a negative
// duration is floored before taking the magnitude.
func wholeDays(d time.Duration) int {
	days := d / (24 * time.Hour)
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	if days < 0 {
		days = -days
	}
	return int(days)
}

func isoformat(t time.Time) string {
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02T15:04:05.000000")
	}
	return t.Format("2006-01-02T15:04:05")
}

package rules

import (
	"regexp"
	"strings"

	"github.com/matzehuels/metacheck/pkg/record"
)

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ReadmeHomepage (P004) reports a codemeta readme property that points at
// a project homepage or wiki instead of the README file.
type ReadmeHomepage struct {
	Base
	ReadmeURL  string `json:"readme_url,omitempty"`
	Source     string `json:"source,omitempty"`
	IsHomepage bool   `json:"is_homepage"`
}

// IsHomepageURL reports whether url looks like a homepage, wiki or
// documentation site rather than a README file.
//
// Raw GitHub content is always a file. A GitHub or GitLab URL is a file
// only when it names a README or a blob; otherwise it is the project page.
// Documentation hosts are homepages. Any other .org, .com or .net URL is a
// homepage unless it ends in a document.
func IsHomepageURL(url string) bool {
	if url == "" {
		return false
	}
	lower := strings.ToLower(url)

	if strings.Contains(lower, "raw.githubusercontent.com") {
		return false
	}
	if containsAny(lower, "github.com", "gitlab.com") {
		return !containsAny(lower, "readme", "blob/")
	}
	if containsAny(lower, ".readthedocs.io", ".github.io", "wiki", "docs.", "documentation") {
		return true
	}
	if containsAny(lower, ".org", ".com", ".net") {
		return !containsAny(lower, ".md", ".txt", ".rst", ".html", "readme")
	}
	return false
}

// DetectReadmeHomepage checks code_parser readme_url entries from
// codemeta.json.
func DetectReadmeHomepage(rec record.Record, b Base) ReadmeHomepage {
	res := ReadmeHomepage{Base: b}

	qualify := func(e record.Entry) bool { return e.IsCodemetaParsed() }
	entry, ok := firstFiring(rec, record.PropReadmeURL, qualify, func(e record.Entry) bool {
		v, ok := e.StringValue()
		return ok && IsHomepageURL(v)
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.IsHomepage = true
	res.ReadmeURL, _ = entry.StringValue()
	res.Source = entry.Source
	return res
}

// ReferenceArchive (P005) reports a codemeta referencePublication that
// points at a software archive instead of a paper.
type ReferenceArchive struct {
	Base
	ReferenceURL      string `json:"reference_url,omitempty"`
	Source            string `json:"source,omitempty"`
	IsSoftwareArchive bool   `json:"is_software_archive"`
}

var softwareArchivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`zenodo\.org`),
	regexp.MustCompile(`figshare\.com`),
	regexp.MustCompile(`github\.com/.*/releases`),
	regexp.MustCompile(`sourceforge\.net`),
	regexp.MustCompile(`archive\.org`),
	regexp.MustCompile(`codeocean\.com`),
	regexp.MustCompile(`osf\.io`),
	regexp.MustCompile(`doi\.org/10\.5281`),
}

// IsSoftwareArchiveURL reports whether url points into a software archive
// such as Zenodo, Figshare or a GitHub releases page. Zenodo DOIs
// (10.5281) count as archives too.
func IsSoftwareArchiveURL(url string) bool {
	lower := strings.ToLower(strings.TrimSpace(url))
	if lower == "" {
		return false
	}
	return matchesAny(softwareArchivePatterns, lower)
}

// DetectReferenceArchive checks codemeta reference_publication entries.
func DetectReferenceArchive(rec record.Record, b Base) ReferenceArchive {
	res := ReferenceArchive{Base: b}

	entry, ok := firstFiring(rec, record.PropReferencePublication, codemeta, func(e record.Entry) bool {
		v, ok := e.StringValue()
		return ok && IsSoftwareArchiveURL(v)
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.IsSoftwareArchive = true
	res.ReferenceURL, _ = entry.StringValue()
	res.Source = entry.Source
	return res
}

// RepositoryHomepage (P009) reports a codeRepository that points at a
// homepage instead of a repository.
type RepositoryHomepage struct {
	Base
	RepositoryURL      string `json:"repository_url,omitempty"`
	Source             string `json:"source,omitempty"`
	MetadataSourceFile string `json:"metadata_source_file,omitempty"`
	IsHomepage         bool   `json:"is_homepage"`
}

// IsRepositoryURL reports whether url names a known code host or a git
// endpoint.
func IsRepositoryURL(url string) bool {
	if url == "" {
		return false
	}
	return containsAny(strings.ToLower(url),
		"github.com/", "gitlab.com/", "bitbucket.org/", "sourceforge.net/projects/", "git.", ".git")
}

// IsRepositoryHomepage reports whether a code repository url is really a
// homepage: it is not recognizably a repository and carries a website
// indicator such as a top-level domain path or a docs host.
func IsRepositoryHomepage(url string) bool {
	if url == "" || IsRepositoryURL(url) {
		return false
	}
	return containsAny(strings.ToLower(url),
		".org/", ".com/", ".net/", ".io/", "www.", "docs.", "documentation", "readthedocs", "github.io")
}

// DetectRepositoryHomepage checks code_repository entries from metadata
// files. An entry qualifies through its source, or through a technique
// spelled like a metadata file.
func DetectRepositoryHomepage(rec record.Record, b Base) RepositoryHomepage {
	res := RepositoryHomepage{Base: b}

	qualify := func(e record.Entry) bool {
		return record.IsMetadataTechnique(e.Technique) || record.HasMetadataFileFold(e.Source)
	}
	entry, ok := firstFiring(rec, record.PropCodeRepository, qualify, func(e record.Entry) bool {
		v, ok := e.StringValue()
		return ok && IsRepositoryHomepage(v)
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.IsHomepage = true
	res.RepositoryURL, _ = entry.StringValue()
	res.Source = sourceLabel(entry)
	res.MetadataSourceFile = record.ResolveMetadataFilename(entry.Source)
	return res
}

// RepositoryURL is a code repository URL found in one source.
type RepositoryURL struct {
	URL       string `json:"url"`
	Source    string `json:"source"`
	Technique string `json:"technique"`
}

// DifferentRepository (P016) reports a codemeta codeRepository that names
// a different repository than the one the record was extracted from.
type DifferentRepository struct {
	Base
	GitHubAPIURL  string          `json:"github_api_url,omitempty"`
	MetadataURLs  []RepositoryURL `json:"metadata_urls,omitempty"`
	DifferentURLs []RepositoryURL `json:"different_urls,omitempty"`
}

// DetectDifferentRepository compares every codemeta code_repository entry
// with the repository reported by the GitHub API, after normalizing both
// with record.NormalizeRepoURL. When the API reports more than one URL
// the last one is used. Entries whose value is not a string are skipped.
// All differing entries are reported.
func DetectDifferentRepository(rec record.Record, b Base) DifferentRepository {
	res := DifferentRepository{Base: b}

	var apiURL string
	var metadata []RepositoryURL
	for _, e := range record.All(rec, record.PropCodeRepository, nil) {
		url, ok := e.StringValue()
		if !ok {
			continue
		}
		switch {
		case e.Technique == record.TechniqueGitHubAPI:
			apiURL = url
		case strings.Contains(strings.ToLower(e.Source), record.CodemetaFile):
			metadata = append(metadata, RepositoryURL{URL: url, Source: e.Source, Technique: e.Technique})
		}
	}
	if apiURL == "" || len(metadata) == 0 {
		return res
	}

	want := record.NormalizeRepoURL(apiURL)
	var different []RepositoryURL
	for _, m := range metadata {
		if record.NormalizeRepoURL(m.URL) != want {
			different = append(different, m)
		}
	}
	if len(different) == 0 {
		return res
	}
	res.Triggered = true
	res.GitHubAPIURL = apiURL
	res.MetadataURLs = metadata
	res.DifferentURLs = different
	return res
}

// DevelopmentStatusURL (W009) reports a codemeta developmentStatus given
// as a URL, such as a repostatus.org badge link, instead of a status term.
type DevelopmentStatusURL struct {
	Base
	DevelopmentStatus string `json:"development_status,omitempty"`
	Source            string `json:"source,omitempty"`
	IsURL             bool   `json:"is_url"`
}

var urlLikePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://`),
	regexp.MustCompile(`^www\.`),
	regexp.MustCompile(`\.org`),
	regexp.MustCompile(`\.com`),
	regexp.MustCompile(`\.net`),
}

// IsURLLike reports whether v looks like a URL rather than a plain term.
func IsURLLike(v string) bool {
	lower := strings.ToLower(strings.TrimSpace(v))
	if lower == "" {
		return false
	}
	return matchesAny(urlLikePatterns, lower)
}

// DetectDevelopmentStatusURL checks codemeta development_status entries.
func DetectDevelopmentStatusURL(rec record.Record, b Base) DevelopmentStatusURL {
	res := DevelopmentStatusURL{Base: b}

	entry, ok := firstFiring(rec, record.PropDevelopmentStatus, codemeta, func(e record.Entry) bool {
		v, ok := e.StringValue()
		return ok && IsURLLike(v)
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.IsURL = true
	res.DevelopmentStatus, _ = entry.StringValue()
	res.Source = entry.Source
	return res
}

// GitShorthand (W010) reports a codeRepository written in git shorthand,
// like "github.com:user/repo.git", instead of a full URL.
type GitShorthand struct {
	Base
	RepositoryURL      string `json:"repository_url,omitempty"`
	Source             string `json:"source,omitempty"`
	MetadataSourceFile string `json:"metadata_source_file,omitempty"`
	IsShorthand        bool   `json:"is_shorthand"`
}

var gitShorthand = regexp.MustCompile(`^[a-zA-Z0-9.-]+:[a-zA-Z0-9._/-]+(\.git)?$`)

// IsGitShorthand reports whether v is a "host:path" repository reference.
// http and https URLs never are.
func IsGitShorthand(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return false
	}
	return gitShorthand.MatchString(v)
}

// DetectGitShorthand checks code_repository entries that were parsed from
// files or come from a metadata file.
func DetectGitShorthand(rec record.Record, b Base) GitShorthand {
	res := GitShorthand{Base: b}

	entry, ok := firstFiring(rec, record.PropCodeRepository, parserOrMetadata, func(e record.Entry) bool {
		v, ok := e.StringValue()
		return ok && IsGitShorthand(v)
	})
	if !ok {
		return res
	}
	res.Triggered = true
	res.IsShorthand = true
	res.RepositoryURL, _ = entry.StringValue()
	res.Source = sourceLabel(entry)
	res.MetadataSourceFile = record.ResolveMetadataFilename(entry.Source)
	return res
}

package record

import (
	"regexp"
	"strings"
	"time"
)

// NormalizeVersion prepares a version string for comparison: surrounding
// whitespace is trimmed and a single leading "v" or "V" is removed.
//
//	NormalizeVersion("v1.2.3")  // "1.2.3"
//	NormalizeVersion(" 1.2.3 ") // "1.2.3"
//
// Exactly one prefix is removed, so "vv1" becomes "v1"; the function is
// idempotent only for strings with at most one leading "v".
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "v") || strings.HasPrefix(v, "V") {
		v = v[1:]
	}
	return strings.TrimSpace(v)
}

var (
	gitPlusPrefix = regexp.MustCompile(`^git\+`)
	gitSuffix     = regexp.MustCompile(`\.git$`)
	sshRemote     = regexp.MustCompile(`^git@([^:]+):`)
)

// NormalizeRepoURL reduces equivalent spellings of a repository URL to one
// form, so that "git@github.com:user/repo.git" and
// "https://github.com/user/repo" compare equal. The URL is lowercased and
// trimmed, a "git+" prefix, a ".git" suffix and a trailing slash are
// dropped, and SSH remotes are rewritten to https.
func NormalizeRepoURL(u string) string {
	if u == "" {
		return ""
	}
	u = strings.ToLower(strings.TrimSpace(u))
	u = gitPlusPrefix.ReplaceAllString(u, "")
	u = gitSuffix.ReplaceAllString(u, "")
	u = strings.TrimSuffix(u, "/")
	if strings.HasPrefix(u, "git@") {
		u = sshRemote.ReplaceAllString(u, "https://$1/")
	}
	return u
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
}

var datePrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// ParseDate parses the timestamp spellings found in extraction records.
// Inputs that match none of the known layouts but start with a YYYY-MM-DD
// date are parsed from that prefix. Times without a zone are taken as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if m := datePrefix.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("2006-01-02", m[1]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

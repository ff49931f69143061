package rules

import (
	"context"
	"regexp"
	"strings"

	mcerrors "github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/liveness"
	"github.com/matzehuels/metacheck/pkg/record"
)

// remoteFunc is a detector that probes URLs through a liveness.Checker.
type remoteFunc[R Result] struct {
	code    Code
	checker liveness.Checker
	fn      func(ctx context.Context, c liveness.Checker, rec record.Record, b Base) R
}

func (d remoteFunc[R]) Code() Code { return d.code }

// Detect runs the rule. Probes cut short by ctx look like dead links, so a
// result produced after ctx is done is returned together with ctx.Err()
// and must not be counted.
func (d remoteFunc[R]) Detect(ctx context.Context, rec record.Record, repoID string) (Result, error) {
	res := d.fn(ctx, d.checker, rec, base(d.code, repoID))
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func remote[R Result](code Code, c liveness.Checker, fn func(context.Context, liveness.Checker, record.Record, Base) R) Detector {
	return remoteFunc[R]{code: code, checker: c, fn: fn}
}

// InvalidRequirementURL (P008) reports software requirements in a metadata
// file whose links do not resolve.
type InvalidRequirementURL struct {
	Base
	InvalidURLs        []liveness.Status `json:"invalid_urls,omitempty"`
	Source             string            `json:"source,omitempty"`
	MetadataSourceFile string            `json:"metadata_source_file,omitempty"`
	RequirementText    string            `json:"requirement_text,omitempty"`
}

var (
	httpLink     = regexp.MustCompile(`(?i)https?://[^\s<>"']+`)
	wwwLink      = regexp.MustCompile(`(?i)www\.[^\s<>"']+`)
	linkTrailers = ",;.!?)"
)

// ExtractURLs returns the http(s) links in text followed by bare "www."
// links that are not part of an http(s) link. One trailing punctuation
// character is dropped from each.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}
	spans := httpLink.FindAllStringIndex(text, -1)
	var raw []string
	for _, s := range spans {
		raw = append(raw, text[s[0]:s[1]])
	}
	for _, w := range wwwLink.FindAllStringIndex(text, -1) {
		inside := false
		for _, s := range spans {
			if w[0] >= s[0] && w[1] <= s[1] {
				inside = true
				break
			}
		}
		if !inside {
			raw = append(raw, text[w[0]:w[1]])
		}
	}

	var urls []string
	for _, u := range raw {
		if n := len(u); n > 0 && strings.IndexByte(linkTrailers, u[n-1]) >= 0 {
			u = u[:n-1]
		}
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// requirementText flattens a requirement value into searchable text.
func requirementText(v record.Value) string {
	switch v.Kind() {
	case record.KindString:
		s, _ := v.Str()
		return s
	case record.KindList:
		items, _ := v.List()
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = item.Text()
		}
		return strings.Join(parts, " ")
	case record.KindMap:
		var b strings.Builder
		for _, key := range []string{"name", "value", "description", "text"} {
			if v.Has(key) {
				b.WriteString(v.Field(key).Text())
				b.WriteByte(' ')
			}
		}
		return b.String()
	}
	return ""
}

// DetectInvalidRequirementURL probes the links of code_parser requirements
// from metadata files. A value that is itself a URL is probed directly;
// otherwise links are extracted from the value's text. The first entry
// with at least one dead link is reported, with all of its dead links.
func DetectInvalidRequirementURL(ctx context.Context, c liveness.Checker, rec record.Record, b Base) InvalidRequirementURL {
	res := InvalidRequirementURL{Base: b}

	for _, e := range record.All(rec, record.PropRequirements, parsedMetadata) {
		if ctx.Err() != nil {
			return res
		}
		v := e.Value()
		var text string
		var urls []string
		if s, ok := v.Str(); ok && mcerrors.ValidateURL(s) == nil {
			text, urls = s, []string{s}
		} else {
			text = requirementText(v)
			urls = ExtractURLs(text)
		}

		var dead []liveness.Status
		for _, u := range urls {
			if st := c.Check(ctx, u, liveness.PolicyGet2xxOr301); !st.Accessible {
				dead = append(dead, st)
			}
		}
		if len(dead) == 0 {
			continue
		}
		res.Triggered = true
		res.InvalidURLs = dead
		res.Source = e.Source
		res.MetadataSourceFile = record.ResolveMetadataFilename(e.Source)
		res.RequirementText = text
		return res
	}
	return res
}

// IssueTrackerUnreachable (P011) reports a codemeta issue tracker link
// that does not resolve.
type IssueTrackerUnreachable struct {
	Base
	IssueURL        string `json:"issue_url,omitempty"`
	Source          string `json:"source,omitempty"`
	FormatViolation string `json:"format_violation,omitempty"`
	StatusCode      int    `json:"status_code,omitempty"`
}

// IssueTrackerViolation is the FormatViolation of a dead issue tracker.
const IssueTrackerViolation = "URL is not accessible or returns error status"

// DetectIssueTrackerUnreachable probes codemeta issue_tracker entries with
// a HEAD request, falling back to GET when HEAD is not allowed. Values
// that are not strings cannot be probed and count as unreachable.
func DetectIssueTrackerUnreachable(ctx context.Context, c liveness.Checker, rec record.Record, b Base) IssueTrackerUnreachable {
	res := IssueTrackerUnreachable{Base: b}

	for _, e := range record.All(rec, record.PropIssueTracker, codemeta) {
		if ctx.Err() != nil {
			return res
		}
		url := e.Value().Text()
		st := c.Check(ctx, url, liveness.PolicyHeadThenGet)
		if st.Accessible {
			continue
		}
		res.Triggered = true
		res.IssueURL = url
		res.Source = e.Source
		res.FormatViolation = IssueTrackerViolation
		res.StatusCode = st.StatusCode
		return res
	}
	return res
}

// CIUnreachable (P015) reports a codemeta continuous integration link that
// does not answer with a 2xx status.
type CIUnreachable struct {
	Base
	CIURL      string `json:"ci_url,omitempty"`
	Source     string `json:"source,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DetectCIUnreachable probes codemeta continuous_integration entries.
func DetectCIUnreachable(ctx context.Context, c liveness.Checker, rec record.Record, b Base) CIUnreachable {
	res := CIUnreachable{Base: b}

	for _, e := range record.All(rec, record.PropContinuousIntegration, codemeta) {
		if ctx.Err() != nil {
			return res
		}
		url := e.Value().Text()
		st := c.Check(ctx, url, liveness.PolicyGet2xx)
		if st.Accessible {
			continue
		}
		res.Triggered = true
		res.CIURL = url
		res.Source = e.Source
		res.StatusCode = st.StatusCode
		res.Error = st.Error
		return res
	}
	return res
}

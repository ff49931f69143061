// Package liveness probes URLs found in metadata and reports whether they
// resolve.
//
// Three rules depend on it: requirement links (P008), issue tracker links
// (P011) and continuous integration links (P015). Each judges a response by
// its own [Policy], so the same URL may be accessible under one policy and
// not under another.
//
// Detectors receive a [Checker] rather than performing HTTP themselves. The
// CLI wires an [HTTPChecker], optionally behind a [CachedChecker]; tests use
// [Static].
package liveness

import (
	"context"
)

// Policy selects the request method and the status codes that count as
// accessible.
type Policy string

const (
	// PolicyGet2xxOr301 issues a GET, follows redirects, and accepts any 2xx
	// or a final 301.
	PolicyGet2xxOr301 Policy = "get-2xx-or-301"

	// PolicyHeadThenGet issues a HEAD, falls back to GET when the server
	// answers 405, and accepts any status below 400.
	PolicyHeadThenGet Policy = "head-then-get"

	// PolicyGet2xx issues a GET, follows redirects, and accepts only 2xx.
	PolicyGet2xx Policy = "get-2xx"
)

// Accepts reports whether a final status code counts as accessible.
func (p Policy) Accepts(code int) bool {
	switch p {
	case PolicyGet2xxOr301:
		return (code >= 200 && code < 300) || code == 301
	case PolicyHeadThenGet:
		return code > 0 && code < 400
	case PolicyGet2xx:
		return code >= 200 && code < 300
	}
	return false
}

// Status is the outcome of one probe. StatusCode is zero when no response
// was received; Error then says why.
type Status struct {
	URL        string `json:"url"`
	Accessible bool   `json:"is_accessible"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ErrInvalidFormat is the Status.Error of a URL rejected before probing.
const ErrInvalidFormat = "Invalid URL format"

// Checker probes a URL under a policy. Implementations must be safe for
// concurrent use and must not return until the probe is complete or ctx is
// done.
type Checker interface {
	Check(ctx context.Context, url string, policy Policy) Status
}

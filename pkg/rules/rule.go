// Package rules implements the metadata pitfall and warning detectors.
//
// Each rule inspects one aspect of an extraction record and reports a
// [Result]: whether it fired, and the evidence that made it fire. Rules are
// identified by a stable [Code] ("P001" to "P019" for pitfalls, "W001" to
// "W010" for warnings) and collected in a [Registry] that fixes the order in
// which they run.
//
// # Tolerance
//
// Detectors never fail on malformed input. A missing property, a property
// that is not a list, an entry without result.value, or a value of an
// unexpected shape all produce a Result that did not fire. The error return
// of [Detector.Detect] is reserved for operational problems, such as a
// cancelled context during a liveness probe.
//
// # First Match
//
// Most rules scan the entries of one property and stop at the first entry
// that both qualifies (comes from the right file or technique) and
// exhibits the problem. The exceptions are documented on the rule.
package rules

import (
	"context"
	"strings"

	"github.com/matzehuels/metacheck/pkg/record"
)

// Code identifies a rule, e.g. "P001".
type Code string

// Severity classifies a rule as a pitfall or a warning.
type Severity string

const (
	SeverityPitfall Severity = "pitfall"
	SeverityWarning Severity = "warning"
)

// SeverityOf derives the severity from the code prefix: P codes are
// pitfalls, W codes are warnings.
func SeverityOf(c Code) Severity {
	if strings.HasPrefix(string(c), "W") {
		return SeverityWarning
	}
	return SeverityPitfall
}

// Label returns "Pitfall" or "Warning".
func (s Severity) Label() string {
	if s == SeverityWarning {
		return "Warning"
	}
	return "Pitfall"
}

// Category groups rules by the artifact they judge. It names the indicator
// a finding is reported against.
type Category string

const (
	CategoryCodemeta     Category = "codemeta"
	CategoryMetadataFile Category = "metadatafile"
	CategoryLicense      Category = "license"
)

// Result is the outcome of one rule on one record. The concrete type
// carries rule-specific evidence; switch on it to read the evidence.
//
// Result is sealed: every implementation embeds [Base].
type Result interface {
	// Code returns the rule that produced the result.
	Code() Code
	// Fired reports whether the rule found a problem.
	Fired() bool
	// File returns the identifier of the analyzed record.
	File() string

	sealed()
}

// Base holds the fields shared by every Result.
type Base struct {
	Rule      Code   `json:"-"`
	FileName  string `json:"file_name"`
	Triggered bool   `json:"-"`
}

func (b Base) Code() Code   { return b.Rule }
func (b Base) Fired() bool  { return b.Triggered }
func (b Base) File() string { return b.FileName }
func (Base) sealed()        {}

func base(code Code, repoID string) Base {
	return Base{Rule: code, FileName: repoID}
}

// Detector evaluates one rule against a record. Implementations must not
// modify the record and must be safe for concurrent use.
type Detector interface {
	Code() Code
	Detect(ctx context.Context, rec record.Record, repoID string) (Result, error)
}

// pureFunc is a detector that needs nothing but the record.
type pureFunc[R Result] struct {
	code Code
	fn   func(rec record.Record, b Base) R
}

func (d pureFunc[R]) Code() Code { return d.code }

func (d pureFunc[R]) Detect(_ context.Context, rec record.Record, repoID string) (Result, error) {
	return d.fn(rec, base(d.code, repoID)), nil
}

func pure[R Result](code Code, fn func(record.Record, Base) R) Detector {
	return pureFunc[R]{code: code, fn: fn}
}

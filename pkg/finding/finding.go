// Package finding turns fired rule results into per-repository assessment
// bundles.
//
// A [Bundle] is a JSON-LD document describing the assessed software and one
// [CheckResult] per rule that fired. Bundles are only built for records
// where at least one rule fired; [Build] returns nil otherwise.
//
// # Output Format
//
//	{
//	  "@context": "https://w3id.org/example/metacheck/0.1.0/",
//	  "@type": "SoftwareQualityAssessment",
//	  "@id": "urn:uuid:...",
//	  "name": "Quality Assessment for owner/repo",
//	  "assessedSoftware": {"@type": "schema:SoftwareApplication", ...},
//	  "checks": [{"@type": "CheckResult", "checkId": "P001", ...}]
//	}
//
// Identity fields of the assessed software are read defensively: anything
// missing from the record is reported as "Unknown".
package finding

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/metacheck/pkg/buildinfo"
	"github.com/matzehuels/metacheck/pkg/record"
	"github.com/matzehuels/metacheck/pkg/rules"
)

// JSON-LD vocabulary.
const (
	Context      = "https://w3id.org/example/metacheck/0.1.0/"
	IndicatorIRI = "https://w3id.org/example/metacheck/i/indicators/"
	ToolIRI      = "https://w3id.org/example/metacheck/tools/"
	LicenseIRI   = "https://opensource.org/license/mit"

	TypeAssessment  = "SoftwareQualityAssessment"
	TypeCheckResult = "CheckResult"
	TypeSoftware    = "schema:SoftwareApplication"
	TypePerson      = "schema:Person"
	StatusCompleted = "schema:CompletedActionStatus"
)

// ToolName is the checking software reported in every check.
const ToolName = "metacheck"

// Unknown stands in for identity fields missing from the record.
const Unknown = "Unknown"

// DefaultDescription is used when the record has no description.
const DefaultDescription = "Software quality assessment for repository metadata"

// DateLayout formats dateCreated: UTC with second precision.
const DateLayout = "2006-01-02T15:04:05Z"

// FileSuffix is appended to the record stem to name a bundle file.
const FileSuffix = "_pitfalls.jsonld"

// Ref is a JSON-LD node reference.
type Ref struct {
	ID string `json:"@id"`
}

// Person is the creator of an assessment.
type Person struct {
	Type  string `json:"@type"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Software describes the repository under assessment.
type Software struct {
	Type            string `json:"@type"`
	Name            string `json:"name"`
	SoftwareVersion string `json:"softwareVersion"`
	URL             string `json:"url"`
	Identifier      *Ref   `json:"schema:identifier,omitempty"`
}

// Tool describes the software that performed a check.
type Tool struct {
	Type            string `json:"@type"`
	Name            string `json:"name"`
	ID              string `json:"@id"`
	SoftwareVersion string `json:"softwareVersion"`
}

// CheckResult reports one fired rule.
type CheckResult struct {
	Type              string `json:"@type"`
	AssessesIndicator Ref    `json:"assessesIndicator"`
	CheckingSoftware  Tool   `json:"checkingSoftware"`
	Process           string `json:"process"`
	Status            Ref    `json:"status"`
	CheckID           string `json:"checkId"`
	Severity          string `json:"severity"`
	Evidence          string `json:"evidence"`
	Suggestion        string `json:"suggestion"`
}

// Category returns the indicator category the check is reported against.
func (c CheckResult) Category() rules.Category {
	return rules.Category(strings.TrimPrefix(c.AssessesIndicator.ID, IndicatorIRI))
}

// Bundle is the assessment of one repository.
type Bundle struct {
	Context          string        `json:"@context"`
	Type             string        `json:"@type"`
	ID               string        `json:"@id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Creator          Person        `json:"creator"`
	DateCreated      string        `json:"dateCreated"`
	License          Ref           `json:"license"`
	AssessedSoftware Software      `json:"assessedSoftware"`
	Checks           []CheckResult `json:"checks"`
}

// Pitfalls returns the number of checks with pitfall severity.
func (b *Bundle) Pitfalls() int {
	n := 0
	for _, c := range b.Checks {
		if c.Severity == string(rules.SeverityPitfall) {
			n++
		}
	}
	return n
}

// Warnings returns the number of checks with warning severity.
func (b *Bundle) Warnings() int {
	return len(b.Checks) - b.Pitfalls()
}

// Build assembles the bundle for one record from its rule results, in the
// order given. Results that did not fire are skipped. When none fired,
// Build returns nil.
func Build(rec record.Record, results []rules.Result, now time.Time) *Bundle {
	var checks []CheckResult
	for _, res := range results {
		if res == nil || !res.Fired() {
			continue
		}
		checks = append(checks, Check(res))
	}
	if len(checks) == 0 {
		return nil
	}

	sw := AssessedSoftware(rec)
	return &Bundle{
		Context:     Context,
		Type:        TypeAssessment,
		ID:          "urn:uuid:" + uuid.NewString(),
		Name:        "Quality Assessment for " + sw.Name,
		Description: description(rec),
		Creator: Person{
			Type:  TypePerson,
			Name:  "Anonymous",
			Email: "example@email.com",
		},
		DateCreated:      now.UTC().Format(DateLayout),
		License:          Ref{ID: LicenseIRI},
		AssessedSoftware: sw,
		Checks:           checks,
	}
}

// Check converts one fired result into its check entry.
func Check(res rules.Result) CheckResult {
	code := res.Code()
	return CheckResult{
		Type:              TypeCheckResult,
		AssessesIndicator: Ref{ID: IndicatorIRI + string(rules.CategoryOf(code))},
		CheckingSoftware: Tool{
			Type:            TypeSoftware,
			Name:            ToolName,
			ID:              ToolIRI,
			SoftwareVersion: buildinfo.SoftwareVersion(),
		},
		Process:    rules.Describe(code),
		Status:     Ref{ID: StatusCompleted},
		CheckID:    string(code),
		Severity:   string(rules.SeverityOf(code)),
		Evidence:   Evidence(res),
		Suggestion: rules.Suggest(code),
	}
}

// AssessedSoftware extracts the identity of the repository: the first
// full_name, the tag of the latest release, the first code_repository, and
// the first identifier when it is a DOI.
func AssessedSoftware(rec record.Record) Software {
	sw := Software{
		Type:            TypeSoftware,
		Name:            Unknown,
		SoftwareVersion: Unknown,
		URL:             Unknown,
	}
	if e, ok := record.First(rec, record.PropFullName, nil); ok {
		sw.Name = e.Value().Text()
	}
	if rel, ok := record.LatestRelease(rec); ok {
		if tag, ok := rel.Tag(); ok {
			sw.SoftwareVersion = tag
		}
	}
	if e, ok := record.First(rec, record.PropCodeRepository, nil); ok {
		sw.URL = e.Value().Text()
	}
	if e, ok := record.First(rec, record.PropIdentifier, nil); ok {
		if v, ok := e.StringValue(); ok {
			sw.Identifier = doiRef(v)
		}
	}
	return sw
}

func doiRef(v string) *Ref {
	switch {
	case strings.HasPrefix(v, "https://doi.org/"):
		return &Ref{ID: v}
	case strings.HasPrefix(v, "10."):
		return &Ref{ID: "https://doi.org/" + v}
	}
	return nil
}

func description(rec record.Record) string {
	if e, ok := record.First(rec, record.PropDescription, nil); ok {
		if s := e.Value().Text(); s != "" {
			return s
		}
	}
	return DefaultDescription
}

// FileName returns the bundle file name for a record identifier: the base
// name without extension, plus FileSuffix.
func FileName(repoID string) string {
	base := filepath.Base(strings.ReplaceAll(repoID, `\`, "/"))
	return strings.TrimSuffix(base, filepath.Ext(base)) + FileSuffix
}

package finding

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/metacheck/pkg/record"
	"github.com/matzehuels/metacheck/pkg/rules"
)

func fired(code rules.Code) rules.Base {
	return rules.Base{Rule: code, FileName: "owner_repo.json", Triggered: true}
}

func mustParse(t *testing.T, s string) record.Record {
	t.Helper()
	rec, err := record.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return rec
}

const sampleRecord = `{
	"full_name": [{"source": "https://api.github.com/repos/owner/repo", "technique": "GitHub_API", "result": {"value": "owner/repo"}}],
	"description": [{"source": "README.md", "technique": "header_analysis", "result": {"value": "A tool."}}],
	"releases": [{"technique": "GitHub_API", "result": {"tag": "v1.2.0"}}],
	"code_repository": [{"source": "repo/codemeta.json", "technique": "code_parser", "result": {"value": "https://github.com/owner/repo"}}],
	"identifier": [{"source": "repo/codemeta.json", "technique": "code_parser", "result": {"value": "10.5281/zenodo.1"}}]
}`

func TestBuild(t *testing.T) {
	rec := mustParse(t, sampleRecord)
	now := time.Date(2024, 3, 1, 12, 30, 45, 999, time.FixedZone("CET", 3600))
	results := []rules.Result{
		rules.VersionMismatch{Base: fired("P001"), MetadataVersion: "1.0.0", ReleaseVersion: "1.2.0", MetadataSourceFile: "codemeta.json"},
		rules.BareDOI{Base: rules.Base{Rule: "P014", FileName: "owner_repo.json"}},
		rules.DualLicense{Base: fired("W003"), DualLicenseSource: "repo/LICENSE", CodemetaLicenseCount: 1},
	}

	b := Build(rec, results, now)
	if b == nil {
		t.Fatal("Build returned nil")
	}
	if b.Context != Context || b.Type != TypeAssessment {
		t.Errorf("header = %q %q", b.Context, b.Type)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(b.ID, "urn:uuid:")); err != nil || !strings.HasPrefix(b.ID, "urn:uuid:") {
		t.Errorf("ID = %q", b.ID)
	}
	if b.Name != "Quality Assessment for owner/repo" {
		t.Errorf("Name = %q", b.Name)
	}
	if b.Description != "A tool." {
		t.Errorf("Description = %q", b.Description)
	}
	if b.DateCreated != "2024-03-01T11:30:45Z" {
		t.Errorf("DateCreated = %q", b.DateCreated)
	}
	sw := b.AssessedSoftware
	if sw.SoftwareVersion != "v1.2.0" || sw.URL != "https://github.com/owner/repo" {
		t.Errorf("AssessedSoftware = %+v", sw)
	}
	if sw.Identifier == nil || sw.Identifier.ID != "https://doi.org/10.5281/zenodo.1" {
		t.Errorf("Identifier = %+v", sw.Identifier)
	}

	if len(b.Checks) != 2 {
		t.Fatalf("len(Checks) = %d, want 2", len(b.Checks))
	}
	c := b.Checks[0]
	if c.CheckID != "P001" || c.Severity != "pitfall" || c.Category() != rules.CategoryMetadataFile {
		t.Errorf("check = %+v", c)
	}
	if c.Process != rules.Describe("P001") || c.Suggestion != rules.Suggest("P001") {
		t.Error("catalog texts not used")
	}
	if c.Status.ID != StatusCompleted || c.CheckingSoftware.Name != ToolName {
		t.Errorf("check provenance = %+v", c)
	}
	if b.Checks[1].CheckID != "W003" || b.Checks[1].Severity != "warning" {
		t.Errorf("second check = %+v", b.Checks[1])
	}
	if b.Pitfalls() != 1 || b.Warnings() != 1 {
		t.Errorf("Pitfalls/Warnings = %d/%d", b.Pitfalls(), b.Warnings())
	}
}

func TestBuildNothingFired(t *testing.T) {
	results := []rules.Result{
		rules.BareDOI{Base: rules.Base{Rule: "P014"}},
		nil,
	}
	if b := Build(record.Record{}, results, time.Now()); b != nil {
		t.Errorf("Build = %+v, want nil", b)
	}
}

func TestAssessedSoftwareDefaults(t *testing.T) {
	sw := AssessedSoftware(mustParse(t, `{"identifier": [{"result": {"value": "my-tool"}}]}`))
	if sw.Name != Unknown || sw.SoftwareVersion != Unknown || sw.URL != Unknown {
		t.Errorf("AssessedSoftware = %+v", sw)
	}
	if sw.Identifier != nil {
		t.Errorf("Identifier = %+v, want nil", sw.Identifier)
	}

	sw = AssessedSoftware(mustParse(t, `{
		"identifier": [{"result": {"value": "https://doi.org/10.1/x"}}],
		"releases": [{"tag": "2.0", "result": {"tag": "ignored"}}]
	}`))
	if sw.Identifier == nil || sw.Identifier.ID != "https://doi.org/10.1/x" {
		t.Errorf("Identifier = %+v", sw.Identifier)
	}
	if sw.SoftwareVersion != "2.0" {
		t.Errorf("SoftwareVersion = %q", sw.SoftwareVersion)
	}
}

func TestBundleJSON(t *testing.T) {
	b := Build(mustParse(t, `{}`), []rules.Result{rules.EmptyIdentifier{Base: fired("W007")}}, time.Unix(0, 0))
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"@context", "@type", "@id", "creator", "dateCreated", "license", "assessedSoftware", "checks"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing %q", key)
		}
	}
	if m["description"] != DefaultDescription {
		t.Errorf("description = %v", m["description"])
	}
	sw := m["assessedSoftware"].(map[string]any)
	if _, ok := sw["schema:identifier"]; ok {
		t.Error("schema:identifier present without DOI")
	}

	var back Bundle
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if len(back.Checks) != 1 || back.Checks[0].Category() != rules.CategoryCodemeta {
		t.Errorf("decoded checks = %+v", back.Checks)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"owner_repo.json", "owner_repo_pitfalls.jsonld"},
		{"data/somef/owner_repo.json", "owner_repo_pitfalls.jsonld"},
		{`data\owner.repo.json`, "owner.repo_pitfalls.jsonld"},
		{"plain", "plain_pitfalls.jsonld"},
	}
	for _, tt := range tests {
		if got := FileName(tt.in); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

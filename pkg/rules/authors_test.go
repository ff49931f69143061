package rules

import (
	"reflect"
	"testing"
)

func TestHasMultipleAuthors(t *testing.T) {
	tests := []struct {
		v    string
		want bool
	}{
		{"Jane Doe and John Roe", true},
		{"Jane Doe AND John Roe", true},
		{"Smith & Wesson", true},
		{"Doe, Jane", true},
		{"Jane Doe; John Roe", true},
		{"Jane Doe\nJohn Roe", true},
		{"Martin Luther King, Jr.", false},
		{"Martin Luther King,  jr", false},
		{"Jane Doe", false},
		{"Alexandra Sanders", false},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := HasMultipleAuthors(tt.v); got != tt.want {
			t.Errorf("HasMultipleAuthors(%q) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestDetectMultipleAuthors(t *testing.T) {
	rec := mustParse(t, `{"authors": [
		{"source": "README.md", "technique": "regular_expression", "result": {"value": "A and B"}},
		{"source": "repo/DESCRIPTION", "technique": "code_parser", "result": {"value": "Jane Doe"}},
		{"source": "repo/description", "technique": "code_parser", "result": {"value": {"name": "Jane Doe and John Roe", "email": "j@example.org"}}}
	]}`)
	got := DetectMultipleAuthors(rec, testBase("P003"))
	if !got.Fired() {
		t.Fatal("expected P003 to fire")
	}
	if got.AuthorValue != "Jane Doe and John Roe" || got.Source != "repo/description" {
		t.Errorf("got value=%q source=%q", got.AuthorValue, got.Source)
	}
}

func TestAuthorIdentifier(t *testing.T) {
	rec := mustParse(t, `{"author": [{"source": "x", "result": [
		" Jane Doe ",
		{"name": "John Roe", "email": "john@example.org"},
		{"value": "Ann Poe"},
		{"email": "kim@example.org"},
		{"affiliation": "ACME"}
	]}]}`)
	items, _ := rec.Entries("author")[0].Result.List()
	want := []string{"Jane Doe", "John Roe", "Ann Poe", "kim@example.org", `{"affiliation":"ACME"}`}
	for i, item := range items {
		if got := AuthorIdentifier(item); got != want[i] {
			t.Errorf("AuthorIdentifier(#%d) = %q, want %q", i, got, want[i])
		}
	}
}

func TestDetectAuthorCount(t *testing.T) {
	rec := mustParse(t, `{"author": [
		{"source": "repo/codemeta.json", "technique": "code_parser", "result": [{"name": "A"}]},
		{"source": "repo/CITATION.cff", "technique": "code_parser", "result": [{"name": "A"}, {"name": "B"}]},
		{"source": "repo/package.json", "technique": "code_parser", "result": ["A", "B", "C"]},
		{"technique": "GitHub_API", "result": ["A"]},
		{"source": "repo/setup.py", "technique": "code_parser", "result": []}
	]}`)
	got := DetectAuthorCount(rec, testBase("P019"))
	if !got.Fired() {
		t.Fatal("expected P019 to fire")
	}
	if got.TotalSources != 3 {
		t.Errorf("TotalSources = %d, want 3", got.TotalSources)
	}
	if got.MinAuthorCount != 1 || got.MaxAuthorCount != 3 {
		t.Errorf("min/max = %d/%d, want 1/3", got.MinAuthorCount, got.MaxAuthorCount)
	}
	if len(got.Inconsistencies) != 3 {
		t.Fatalf("len(Inconsistencies) = %d, want 3", len(got.Inconsistencies))
	}

	type pair struct {
		fewer, more string
		diff        int
	}
	var pairs []pair
	for _, inc := range got.Inconsistencies {
		pairs = append(pairs, pair{inc.SourceWithFewer, inc.SourceWithMore, inc.Difference})
	}
	want := []pair{
		{"codemeta.json", "CITATION.cff", 1},
		{"codemeta.json", "package.json", 2},
		{"CITATION.cff", "package.json", 1},
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("pairs = %v, want %v", pairs, want)
	}
	if got.Inconsistencies[1].MoreAuthors[2] != "C" {
		t.Errorf("MoreAuthors = %v", got.Inconsistencies[1].MoreAuthors)
	}
}

func TestAuthorCountInconsistenciesMultiplicity(t *testing.T) {
	sources := []AuthorSource{
		{Source: "a", AuthorCount: 1},
		{Source: "b", AuthorCount: 2},
		{Source: "c", AuthorCount: 1},
		{Source: "d", AuthorCount: 2},
	}
	if got := len(AuthorCountInconsistencies(sources)); got != 4 {
		t.Errorf("len = %d, want 4", got)
	}
	if got := AuthorCountInconsistencies(sources[:1]); got != nil {
		t.Errorf("single source = %v, want nil", got)
	}
}

func TestDetectAuthorCountConsistent(t *testing.T) {
	rec := mustParse(t, `{"author": [
		{"source": "codemeta.json", "result": {"name": "A"}},
		{"source": "CITATION.cff", "result": "A"}
	]}`)
	got := DetectAuthorCount(rec, testBase("P019"))
	if got.Fired() {
		t.Errorf("consistent counts fired: %+v", got.Inconsistencies)
	}
	if got.TotalSources != 2 || got.MinAuthorCount != 1 || got.MaxAuthorCount != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestHasNameList(t *testing.T) {
	tests := []struct {
		v    string
		want bool
	}{
		{"['William', 'Michael'] Landau", true},
		{"[William, Michael] Landau", true},
		{"[William] Landau", false},
		{"William Landau", false},
	}
	for _, tt := range tests {
		if got := HasNameList(tt.v); got != tt.want {
			t.Errorf("HasNameList(%q) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestDetectGivenNameList(t *testing.T) {
	rec := mustParse(t, `{"authors": [
		{"source": "repo/CODEMETA.JSON", "technique": "code_parser", "result": {"value": "['A', 'B'] C"}},
		{"source": "repo/codemeta.json", "technique": "code_parser", "result": {"value": "['William', 'Michael'] Landau"}}
	]}`)
	got := DetectGivenNameList(rec, testBase("W008"))
	if !got.Fired() || got.AuthorValue != "['William', 'Michael'] Landau" {
		t.Errorf("got fired=%v value=%q", got.Fired(), got.AuthorValue)
	}
	if got.MetadataSourceFile != "codemeta.json" {
		t.Errorf("MetadataSourceFile = %q", got.MetadataSourceFile)
	}
}

package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/record"
	"github.com/matzehuels/metacheck/pkg/rules"
)

// Summary aggregates a run over a batch of records.
type Summary struct {
	RunID  string        `json:"run_id"`
	Totals Totals        `json:"summary"`
	Rules  []RuleSummary `json:"pitfalls & warnings"`
}

// Totals are the batch-wide counters.
type Totals struct {
	// TotalRepositoriesAnalyzed counts records that were loaded. Records
	// that failed to load are counted in FailedRecords instead.
	TotalRepositoriesAnalyzed       int      `json:"total_repositories_analyzed"`
	RepositoriesWithTargetLanguages int      `json:"repositories_with_target_languages"`
	FindingsCreated                 int      `json:"individual_jsonld_files_created"`
	TotalPitfallsDetected           int      `json:"total_pitfalls_detected"`
	TotalWarningsDetected           int      `json:"total_warnings_detected"`
	FailedRecords                   int      `json:"failed_records"`
	TargetLanguages                 []string `json:"target_languages"`
}

// RuleSummary counts how often one rule fired.
type RuleSummary struct {
	Code        rules.Code     `json:"pitfall_code"`
	PitfallDesc string         `json:"pitfall_desc,omitempty"`
	WarningDesc string         `json:"warning_desc,omitempty"`
	Severity    rules.Severity `json:"severity"`
	Count       int            `json:"count"`
	Percentage  float64        `json:"percentage"`
	// Languages counts firings per target language of the record. A record
	// declaring several languages counts once for each.
	Languages map[string]int `json:"languages"`
}

// Description returns the rule description, whichever severity it is
// filed under.
func (r RuleSummary) Description() string {
	if r.PitfallDesc != "" {
		return r.PitfallDesc
	}
	return r.WarningDesc
}

// NewSummary returns an empty summary with one entry per rule of reg, in
// registry order.
func NewSummary(runID string, reg *rules.Registry) *Summary {
	s := &Summary{
		RunID: runID,
		Totals: Totals{
			TargetLanguages: append([]string(nil), record.TargetLanguages...),
		},
	}
	for _, rule := range reg.Rules() {
		rs := RuleSummary{
			Code:      rule.Code,
			Severity:  rule.Severity,
			Languages: map[string]int{},
		}
		if rule.Severity == rules.SeverityWarning {
			rs.WarningDesc = rule.Description
		} else {
			rs.PitfallDesc = rule.Description
		}
		s.Rules = append(s.Rules, rs)
	}
	return s
}

// Add folds one analyzed record into the summary.
func (s *Summary) Add(o *RecordOutcome) {
	s.Totals.TotalRepositoriesAnalyzed++
	if len(o.Languages) > 0 {
		s.Totals.RepositoriesWithTargetLanguages++
	}
	if o.Bundle != nil {
		s.Totals.FindingsCreated++
	}

	for _, res := range o.Results {
		if res == nil || !res.Fired() {
			continue
		}
		i := s.index(res.Code())
		if i < 0 {
			continue
		}
		rs := &s.Rules[i]
		rs.Count++
		if rs.Severity == rules.SeverityWarning {
			s.Totals.TotalWarningsDetected++
		} else {
			s.Totals.TotalPitfallsDetected++
		}
		for _, lang := range o.Languages {
			rs.Languages[lang]++
		}
	}
}

// Finish computes the per-rule percentages over the analyzed records.
func (s *Summary) Finish() {
	total := s.Totals.TotalRepositoriesAnalyzed
	for i := range s.Rules {
		if total > 0 {
			s.Rules[i].Percentage = round2(float64(s.Rules[i].Count) / float64(total) * 100)
		} else {
			s.Rules[i].Percentage = 0
		}
	}
}

func (s *Summary) index(code rules.Code) int {
	for i := range s.Rules {
		if s.Rules[i].Code == code {
			return i
		}
	}
	return -1
}

// Rule returns the summary entry of code.
func (s *Summary) Rule(code rules.Code) (RuleSummary, bool) {
	if i := s.index(code); i >= 0 {
		return s.Rules[i], true
	}
	return RuleSummary{}, false
}

// Echo writes one "CODE: count (pct%)" line per rule.
func (s *Summary) Echo(w io.Writer) error {
	for _, r := range s.Rules {
		if _, err := fmt.Fprintf(w, "%s: %d (%s%%)\n", r.Code, r.Count, formatPercent(r.Percentage)); err != nil {
			return err
		}
	}
	return nil
}

// formatPercent prints a percentage with at most two decimals and at least
// one, as in "12.5" or "0.0".
func formatPercent(p float64) string {
	s := fmt.Sprintf("%.2f", p)
	if s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// ReadSummary decodes a summary written by a previous run.
func ReadSummary(r io.Reader) (*Summary, error) {
	var s Summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode summary")
	}
	return &s, nil
}

// LoadSummary reads the summary file at path.
func LoadSummary(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadSummary(f)
}

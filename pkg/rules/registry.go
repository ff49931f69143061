package rules

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/liveness"
)

// Rule is a registered detector together with its catalog entry.
type Rule struct {
	Code        Code
	Severity    Severity
	Category    Category
	Description string
	Suggestion  string
	Detector    Detector
}

// Registry is an ordered set of rules keyed by code. The order is the
// order in which rules run and are reported. A Registry is immutable once
// built and safe for concurrent use.
type Registry struct {
	rules []Rule
	index map[Code]int
}

// NewRegistry builds a registry from detectors, in the given order. Codes
// must be well formed and unique.
func NewRegistry(detectors ...Detector) (*Registry, error) {
	r := &Registry{index: make(map[Code]int, len(detectors))}
	for _, d := range detectors {
		code := d.Code()
		if err := errors.ValidateRuleCode(string(code)); err != nil {
			return nil, err
		}
		if _, dup := r.index[code]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "rule %s registered twice", code)
		}
		r.index[code] = len(r.rules)
		r.rules = append(r.rules, Rule{
			Code:        code,
			Severity:    SeverityOf(code),
			Category:    CategoryOf(code),
			Description: Describe(code),
			Suggestion:  Suggest(code),
			Detector:    d,
		})
	}
	return r, nil
}

// Default returns the built-in rules, pitfalls P001 to P019 followed by
// warnings W001 to W010. The rules that probe URLs (P008, P011, P015) use
// checker; with a nil checker they are left out.
func Default(checker liveness.Checker) *Registry {
	ds := []Detector{
		pure("P001", DetectVersionMismatch),
		pure("P002", DetectLicensePlaceholders),
		pure("P003", DetectMultipleAuthors),
		pure("P004", DetectReadmeHomepage),
		pure("P005", DetectReferenceArchive),
		pure("P006", DetectLocalFileLicense),
		pure("P007", DetectCitationReference),
	}
	if checker != nil {
		ds = append(ds, remote("P008", checker, DetectInvalidRequirementURL))
	}
	ds = append(ds,
		pure("P009", DetectRepositoryHomepage),
		pure("P010", DetectCopyrightOnlyLicense),
	)
	if checker != nil {
		ds = append(ds, remote("P011", checker, DetectIssueTrackerUnreachable))
	}
	ds = append(ds,
		pure("P012", DetectOutdatedDownloadURL),
		pure("P013", DetectUnversionedLicense),
		pure("P014", DetectBareDOI),
	)
	if checker != nil {
		ds = append(ds, remote("P015", checker, DetectCIUnreachable))
	}
	ds = append(ds,
		pure("P016", DetectDifferentRepository),
		pure("P017", DetectCodemetaVersionMismatch),
		pure("P018", DetectRawSWHID),
		pure("P019", DetectAuthorCount),

		pure("W001", DetectUnversionedRequirements),
		pure("W002", DetectOutdatedDateModified),
		pure("W003", DetectDualLicense),
		pure("W004", DetectLanguageNoVersion),
		pure("W005", DetectMultipleRequirements),
		pure("W006", DetectIdentifierName),
		pure("W007", DetectEmptyIdentifier),
		pure("W008", DetectGivenNameList),
		pure("W009", DetectDevelopmentStatusURL),
		pure("W010", DetectGitShorthand),
	)

	r, err := NewRegistry(ds...)
	if err != nil {
		panic(err)
	}
	return r
}

// Rules returns the registered rules in order.
func (r *Registry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Len returns the number of registered rules.
func (r *Registry) Len() int { return len(r.rules) }

// Codes returns the registered codes in order.
func (r *Registry) Codes() []Code {
	out := make([]Code, len(r.rules))
	for i, rule := range r.rules {
		out[i] = rule.Code
	}
	return out
}

// Lookup finds a rule by code. Codes are matched case-insensitively.
func (r *Registry) Lookup(code string) (Rule, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(code)))
	if err := errors.ValidateRuleCode(string(c)); err != nil {
		return Rule{}, err
	}
	i, ok := r.index[c]
	if !ok {
		return Rule{}, errors.New(errors.ErrCodeUnknownRule, "rule %s is not registered", c)
	}
	return r.rules[i], nil
}

// Select returns a registry holding only the named rules, kept in
// registry order. An empty selection returns r itself.
func (r *Registry) Select(codes []string) (*Registry, error) {
	if len(codes) == 0 {
		return r, nil
	}
	pos := make([]int, 0, len(codes))
	seen := make(map[Code]bool, len(codes))
	for _, code := range codes {
		rule, err := r.Lookup(code)
		if err != nil {
			return nil, err
		}
		if seen[rule.Code] {
			continue
		}
		seen[rule.Code] = true
		pos = append(pos, r.index[rule.Code])
	}
	sort.Ints(pos)

	ds := make([]Detector, len(pos))
	for i, p := range pos {
		ds[i] = r.rules[p].Detector
	}
	return NewRegistry(ds...)
}

// MarshalResult encodes a result as a flat JSON object: the rule's
// evidence fields plus "pitfall_code" and either "has_pitfall" or
// "has_warning", depending on the rule's severity.
func MarshalResult(res Result) ([]byte, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	flag := "has_pitfall"
	if SeverityOf(res.Code()) == SeverityWarning {
		flag = "has_warning"
	}
	fired, _ := json.Marshal(res.Fired())
	code, _ := json.Marshal(res.Code())
	fields[flag] = fired
	fields["pitfall_code"] = code
	return json.Marshal(fields)
}

// Package pipeline runs the rule registry over a batch of extraction
// records and aggregates the outcome.
//
// The same Runner serves the CLI and the HTTP API, so both produce
// identical summaries and bundles for the same input.
//
// # Stages
//
//  1. Load: each source is decoded into a record. A record that cannot be
//     loaded is logged and skipped; it contributes nothing to the summary.
//  2. Detect: every rule runs against the record in registry order. A rule
//     that fails or panics is logged and counts as not fired.
//  3. Build: records with at least one fired rule get a finding bundle.
//  4. Aggregate: per-record outcomes are merged in input order into the
//     batch [Summary].
//
// Persisting the report is a separate step, [Runner.Emit], so callers that
// only need the in-memory result (such as the HTTP API) skip it.
//
// # Usage
//
//	runner := pipeline.NewRunner(rules.Default(checker), logger)
//	runner.Workers = 4
//	report, err := runner.Analyze(ctx, sources)
//	if err != nil {
//	    return err
//	}
//	runner.Emit(ctx, report, st)
//
// # Concurrency
//
// With Workers greater than one, records are analyzed in parallel, but the
// summary is assembled only after all workers finish, in input order. The
// report is therefore identical to a sequential run.
package pipeline

import (
	"strings"

	"github.com/matzehuels/metacheck/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWorkers analyzes one record at a time.
	DefaultWorkers = 1

	// MaxWorkers bounds the worker pool. Liveness probes dominate run time,
	// and remote hosts throttle aggressive clients.
	MaxWorkers = 64
)

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options configures a run. This struct supports JSON serialization for
// API requests.
type Options struct {
	// Workers is the number of records analyzed in parallel.
	Workers int `json:"workers,omitempty"`

	// Rules restricts the run to the given rule codes. Empty runs all.
	Rules []string `json:"rules,omitempty"`

	// NoNetwork skips the rules that probe URLs.
	NoNetwork bool `json:"no_network,omitempty"`
}

// ValidateAndSetDefaults checks the options and fills in defaults. Rule
// codes are upper-cased and trimmed; blank entries are dropped.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if err := ValidateWorkers(o.Workers); err != nil {
		return err
	}

	var codes []string
	for _, raw := range o.Rules {
		for _, part := range strings.Split(raw, ",") {
			code := strings.ToUpper(strings.TrimSpace(part))
			if code == "" {
				continue
			}
			if err := errors.ValidateRuleCode(code); err != nil {
				return err
			}
			codes = append(codes, code)
		}
	}
	o.Rules = codes
	return nil
}

// ValidateWorkers checks that n is within 1..MaxWorkers.
func ValidateWorkers(n int) error {
	if n < 1 || n > MaxWorkers {
		return errors.New(errors.ErrCodeInvalidInput, "workers must be between 1 and %d, got %d", MaxWorkers, n)
	}
	return nil
}

// Package pkg provides the core libraries for metacheck, a detector of
// metadata pitfalls in research software repositories.
//
// # Overview
//
// Metacheck consumes metadata extraction records, one JSON document per
// repository describing every property an extractor found together with
// where it found it. A catalog of rules inspects each record for pitfalls
// (metadata that is wrong) and warnings (metadata that is weak), and the
// fired rules are written as a JSON-LD assessment per repository.
//
// The typical data flow:
//
//	extraction record (JSON)
//	         ↓
//	   [io] → [record]
//	         ↓
//	  [rules] (+ [liveness] probes, cached by [cache])
//	         ↓
//	[finding] bundle + [pipeline] summary
//	         ↓
//	      [store]
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/metacheck/pkg/io"
//	    "github.com/matzehuels/metacheck/pkg/liveness"
//	    "github.com/matzehuels/metacheck/pkg/pipeline"
//	    "github.com/matzehuels/metacheck/pkg/rules"
//	    "github.com/matzehuels/metacheck/pkg/store"
//	)
//
//	sources, _ := io.Discover([]string{"somef_outputs/"})
//	runner := pipeline.NewRunner(rules.Default(liveness.NewHTTPChecker()), nil)
//	report, _ := runner.Analyze(ctx, sources)
//
//	st, _ := store.NewFileStore("pitfalls_outputs", "analysis_results.json")
//	runner.Emit(ctx, report, st)
//
// # Main Packages
//
// ## Domain
//
// [record] - Decoding and navigation of extraction records. Values keep the
// JSON shape they were decoded with, so rules ask typed questions instead of
// asserting interface{} values.
//
// [rules] - The rule catalog (P001 to P019, W001 to W010), one detector per
// rule, and the ordered [rules.Registry] that runs them.
//
// [liveness] - URL reachability probes for the rules that check links, with
// a static checker for tests and a cached checker for batches.
//
// [finding] - The JSON-LD assessment bundle and its evidence texts.
//
// ## Orchestration
//
// [pipeline] - Batch analysis used by CLI and API: load, detect, build,
// aggregate. Ensures consistent behavior across both entry points.
//
// [server] - HTTP API over the pipeline.
//
// [config] - Settings merged from file, environment and flags.
//
// ## Infrastructure
//
// [io] - Record discovery and loading, atomic JSON output.
//
// [store] - Output backends: files (always), SQLite, MongoDB.
//
// [cache] - Probe result caching on disk or in Redis.
//
// [httputil] - HTTP client and retry helpers.
//
// [errors] - Structured error codes shared by every package.
//
// [observability] - Hooks for metrics and tracing with no-op defaults.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/rules/...              # Specific package
//	go test -run Example                 # Examples only
//
// Redis and MongoDB tests are skipped unless METACHECK_TEST_REDIS or
// METACHECK_TEST_MONGO point at a server.
//
// [record]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/record
// [rules]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/rules
// [liveness]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/liveness
// [finding]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/finding
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/config
// [io]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/io
// [store]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/metacheck/pkg/buildinfo
package pkg

package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/metacheck/pkg/pipeline"
	"github.com/matzehuels/metacheck/pkg/store"
)

// reportCommand creates the report command that tabulates a summary file.
func (c *CLI) reportCommand() *cobra.Command {
	var (
		all   bool
		order string
	)

	cmd := &cobra.Command{
		Use:   "report [analysis_results.json]",
		Short: "Tabulate the summary of a previous analysis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := store.DefaultSummaryPath
			if len(args) == 1 {
				path = args[0]
			}
			s, err := pipeline.LoadSummary(path)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), s, all, order == "count")
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include rules that never fired")
	cmd.Flags().StringVar(&order, "sort", "code", "row order: code or count")

	return cmd
}

// writeReport prints the totals followed by one row per rule.
func writeReport(w io.Writer, s *pipeline.Summary, all, byCount bool) error {
	t := s.Totals
	fmt.Fprintf(w, "Run %s\n", s.RunID)
	fmt.Fprintf(w, "Repositories analyzed: %d (%d with target languages, %d failed)\n",
		t.TotalRepositoriesAnalyzed, t.RepositoriesWithTargetLanguages, t.FailedRecords)
	fmt.Fprintf(w, "Findings files: %d  Pitfalls: %d  Warnings: %d\n\n",
		t.FindingsCreated, t.TotalPitfallsDetected, t.TotalWarningsDetected)

	var list []pipeline.RuleSummary
	for _, r := range s.Rules {
		if all || r.Count > 0 {
			list = append(list, r)
		}
	}
	if byCount {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Count > list[j].Count })
	}

	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{
			string(r.Code),
			r.Severity.Label(),
			strconv.Itoa(r.Count),
			strconv.FormatFloat(r.Percentage, 'f', 2, 64) + "%",
			formatLanguages(r.Languages, t.TargetLanguages),
			r.Description(),
		})
	}
	return writeTable(w, []string{"Code", "Severity", "Count", "Share", "Languages", "Description"}, rows, 2, 3)
}

// formatLanguages renders per-language counts in target-language order,
// followed by any other languages alphabetically.
func formatLanguages(counts map[string]int, order []string) string {
	seen := map[string]bool{}
	var parts []string
	for _, lang := range order {
		seen[lang] = true
		if n := counts[lang]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", lang, n))
		}
	}
	var rest []string
	for lang, n := range counts {
		if !seen[lang] && n > 0 {
			rest = append(rest, fmt.Sprintf("%s %d", lang, n))
		}
	}
	sort.Strings(rest)
	parts = append(parts, rest...)
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/liveness"
	"github.com/matzehuels/metacheck/pkg/rules"
)

// rulesCommand creates the rules command listing the catalog.
func (c *CLI) rulesCommand() *cobra.Command {
	var (
		severity string
		asJSON   bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "rules [code...]",
		Short: "List the pitfall and warning rules",
		Example: `  metacheck rules
  metacheck rules --severity warning
  metacheck rules P008 W002 --long`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The checker is never called; listing only needs the catalog.
			reg, err := rules.Default(liveness.NewHTTPChecker()).Select(args)
			if err != nil {
				return err
			}
			list, err := filterSeverity(reg.Rules(), severity)
			if err != nil {
				return err
			}
			if asJSON {
				return writeRulesJSON(cmd.OutOrStdout(), list)
			}
			return writeRulesTable(cmd.OutOrStdout(), list, verbose)
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "only list pitfall or warning rules")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	cmd.Flags().BoolVarP(&verbose, "long", "l", false, "include the suggested fix")

	return cmd
}

func filterSeverity(list []rules.Rule, severity string) ([]rules.Rule, error) {
	if severity == "" {
		return list, nil
	}
	want := rules.Severity(strings.ToLower(strings.TrimSuffix(strings.TrimSpace(severity), "s")))
	if want != rules.SeverityPitfall && want != rules.SeverityWarning {
		return nil, errors.New(errors.ErrCodeInvalidInput, "severity must be pitfall or warning, got %q", severity)
	}
	var out []rules.Rule
	for _, r := range list {
		if r.Severity == want {
			out = append(out, r)
		}
	}
	return out, nil
}

func writeRulesTable(w io.Writer, list []rules.Rule, long bool) error {
	headers := []string{"Code", "Severity", "Category", "Description"}
	if long {
		headers = append(headers, "Suggestion")
	}
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		row := []string{string(r.Code), r.Severity.Label(), string(r.Category), r.Description}
		if long {
			row = append(row, r.Suggestion)
		}
		rows = append(rows, row)
	}
	return writeTable(w, headers, rows)
}

type ruleJSON struct {
	Code        rules.Code     `json:"code"`
	Severity    rules.Severity `json:"severity"`
	Category    rules.Category `json:"category"`
	Description string         `json:"description"`
	Suggestion  string         `json:"suggestion"`
}

func writeRulesJSON(w io.Writer, list []rules.Rule) error {
	out := make([]ruleJSON, len(list))
	for i, r := range list {
		out[i] = ruleJSON{r.Code, r.Severity, r.Category, r.Description, r.Suggestion}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	return nil
}

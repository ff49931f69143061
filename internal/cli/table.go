package cli

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeTable renders rows under headers. Numeric columns listed in right
// are right-aligned; everything else is left-aligned.
func writeTable(w io.Writer, headers []string, rows [][]string, right ...int) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header(headers)

	align := make([]tw.Align, len(headers))
	for i := range align {
		align[i] = tw.AlignLeft
	}
	for _, col := range right {
		if col >= 0 && col < len(align) {
			align[col] = tw.AlignRight
		}
	}
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = align
	})

	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

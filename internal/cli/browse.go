package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/store"
)

// browseCommand creates the browse command for paging through findings.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [pitfalls dir]",
		Short: "Browse written findings interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := store.DefaultPitfallsDir
			if len(args) == 1 {
				dir = args[0]
			}

			bundles, err := store.ReadBundles(dir)
			if err != nil {
				if len(bundles) == 0 {
					return err
				}
				printWarning("%s", errors.UserMessage(err))
			}
			if len(bundles) == 0 {
				printInfo("No findings in %s", dir)
				return nil
			}

			p := tea.NewProgram(NewBundleListModel(bundles), tea.WithContext(cmd.Context()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

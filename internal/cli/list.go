package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/paperfigs/pkg/figures"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the figures and tables in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), catalogTable())
			return nil
		},
	}
}

// catalogTable renders one row per catalog entry with the files it reads.
func catalogTable() string {
	var rows [][]string
	for _, f := range figures.Figures {
		rows = append(rows, []string{f.Name, "figure", f.Title, inputFiles(f.Inputs)})
	}
	for _, t := range figures.Tables {
		rows = append(rows, []string{t.Name, "table", t.Hints.Caption, inputFiles(t.Inputs)})
	}
	return renderTable([]string{"Name", "Kind", "Title", "Inputs"}, rows)
}

func inputFiles(names []string) string {
	files := make([]string, len(names))
	for i, n := range names {
		files[i] = n
		if in, ok := figures.InputByName(n); ok {
			files[i] = in.File
		}
	}
	return strings.Join(files, ", ")
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/paperfigs/pkg/figures"
	"github.com/matzehuels/paperfigs/pkg/pipeline"
)

// tablesCommand creates the tables command.
func (c *CLI) tablesCommand() *cobra.Command {
	var flags dirFlags

	cmd := &cobra.Command{
		Use:   "tables [table...]",
		Short: "Write the paper's grid tables",
		Long: `Write each table as a pandoc grid table (tbl-<name>.md) that the manuscript
includes directly. Tables marked for spreadsheet export are also written as
tbl-<name>.xlsx.`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var names []string
			for _, t := range figures.Tables {
				names = append(names, t.Name)
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts, err := cfg.PipelineOptions()
			if err != nil {
				return err
			}
			opts.Tables = args

			dataDir, outputDir := flags.resolve(cfg)
			runner, err := c.newRunner(cfg, dataDir, outputDir)
			if err != nil {
				return err
			}
			report, err := runner.RunTables(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printTableReport(cmd.OutOrStdout(), report)
			if err := report.Err(); err != nil {
				return fmt.Errorf("tables failed: %w", err)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printTableReport(w io.Writer, report *pipeline.Report) {
	for _, t := range report.Tables {
		if t.Err != nil {
			printError(w, "%s", StyleTitle.Render("tbl-"+t.Name))
			printDetail(w, "%v", t.Err)
			continue
		}
		printSuccess(w, "%s", StyleTitle.Render("tbl-"+t.Name))
		for _, f := range t.Files {
			printFile(w, f.Path, f.Written, false)
		}
	}
}

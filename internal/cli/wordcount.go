package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/paperfigs/pkg/wordcount"
)

// wordcountCommand creates the wordcount command.
func (c *CLI) wordcountCommand() *cobra.Command {
	var (
		target   int
		dropRefs bool
		strict   bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "wordcount FILE",
		Short: "Count the words of a rendered manuscript",
		Long: `Count the words of the HTML manuscript, leaving out figures, tables, math
and scripts, and compare the total with the word limit ([wordcount] target,
10,000 by default).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := cfg.WordCountOptions()
			if target > 0 {
				opts.Target = target
			}
			if cmd.Flags().Changed("drop-references") {
				opts.DropReferences = dropRefs
			}

			report, err := wordcount.CountFile(args[0], opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printKeyValue(w, "Words", StyleNumber.Render(humanize.Comma(int64(report.Words))))
				printKeyValue(w, "Target", humanize.Comma(int64(report.Target)))
				if report.Over() {
					printWarning(w, "%s words over the limit", humanize.Comma(int64(-report.Remaining)))
				} else {
					printSuccess(w, "%s words remaining", humanize.Comma(int64(report.Remaining)))
				}
			}

			if strict && report.Over() {
				return fmt.Errorf("%s: %d words exceeds the limit of %d", args[0], report.Words, report.Target)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&target, "target", 0, "word limit (overrides [wordcount] target)")
	cmd.Flags().BoolVar(&dropRefs, "drop-references", false, "do not count the reference list")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when over the limit")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

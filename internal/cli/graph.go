package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/paperfigs/pkg/export"
	"github.com/matzehuels/paperfigs/pkg/figures"
	"github.com/matzehuels/paperfigs/pkg/pipeline"
)

const defaultGraphFile = "paperfigs-graph.svg"

// graphCommand creates the graph command, which draws the catalog's
// input → figure dependencies.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output string
		dot    bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw which data files feed which figures",
		Long: `Draw the dependency graph from input files to figures and tables as SVG,
laid out with the embedded Graphviz. With --dot the Graphviz source is
printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := pipeline.Graph(figures.Figures, figures.Tables)
			if dot {
				_, err := fmt.Fprint(cmd.OutOrStdout(), src)
				return err
			}

			prog := newProgress(c.Logger)
			svg, err := pipeline.RenderGraphSVG(cmd.Context(), src)
			if err != nil {
				return err
			}
			written, err := export.WriteFileAtomic(output, svg)
			if err != nil {
				return err
			}
			prog.done("Rendered dependency graph")
			printFile(cmd.OutOrStdout(), output, written, false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultGraphFile, "output SVG file")
	cmd.Flags().BoolVar(&dot, "dot", false, "print Graphviz DOT instead of rendering")

	return cmd
}

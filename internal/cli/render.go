package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/export"
	"github.com/matzehuels/paperfigs/pkg/figures"
	"github.com/matzehuels/paperfigs/pkg/pipeline"
	"github.com/matzehuels/paperfigs/pkg/style"
)

// renderFlags holds the command-line flags for the render command. Unset
// flags keep the config file's values.
type renderFlags struct {
	dirFlags
	formats  []string // export specs, e.g. "pdf" or "png:3x2in@600"
	variants []string // "color", "grayscale"
	workers  int
	seed     uint64
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [figure...]",
		Short: "Render figures in every variant and format",
		Long: `Render figures from the data snapshots. Without arguments every figure in
the catalog is rendered. Each figure is written once per variant and export
format, e.g. civicus-map.pdf (grayscale) and civicus-map-color.pdf.

Export specs have the form format[:WxH[unit][@dpi]], for example:
  paperfigs render -f pdf -f png:3.25x2in@600 civicus-map`,
		ValidArgsFunction: completeFigures,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVarP(&flags.formats, "format", "f", nil, "export spec(s), e.g. pdf,png:6.5x4in@300 (overrides [[export]])")
	cmd.Flags().StringSliceVar(&flags.variants, "variant", nil, "variant(s): color, grayscale (overrides variants)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "j", 0, "figures rendered in parallel (overrides workers)")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "label placement seed (overrides seed)")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, names []string, flags *renderFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	opts.Figures = names
	if err := flags.apply(&opts); err != nil {
		return err
	}

	dataDir, outputDir := flags.resolve(cfg)
	runner, err := c.newRunner(cfg, dataDir, outputDir)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	report, err := runner.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	printFigureReport(cmd.OutOrStdout(), report)

	failed := report.Failed()
	prog.done(fmt.Sprintf("Rendered %d of %d figures", len(report.Figures)-len(failed), len(report.Figures)))
	if len(failed) > 0 {
		return fmt.Errorf("%d figure(s) failed: %w", len(failed), report.Err())
	}
	return nil
}

// apply overlays the flags on options built from the config.
func (f *renderFlags) apply(opts *pipeline.Options) error {
	if len(f.formats) > 0 {
		opts.Specs = nil
		for _, s := range f.formats {
			spec, err := export.ParseSpec(s)
			if err != nil {
				return err
			}
			opts.Specs = append(opts.Specs, spec)
		}
	}
	if len(f.variants) > 0 {
		opts.Variants = nil
		for _, s := range f.variants {
			v, err := style.ParseVariant(s)
			if err != nil {
				return err
			}
			opts.Variants = append(opts.Variants, v)
		}
	}
	if f.workers != 0 {
		opts.Workers = f.workers
	}
	if f.seed != 0 {
		opts.Seed = f.seed
	}
	return nil
}

func printFigureReport(w io.Writer, report *pipeline.Report) {
	for _, f := range report.Figures {
		if f.Err != nil {
			printError(w, "%s", StyleTitle.Render(f.Name))
			printDetail(w, "%v", f.Err)
		} else {
			var size int
			for _, res := range f.Files {
				size += res.Size
			}
			printSuccess(w, "%s %s", StyleTitle.Render(f.Name), StyleDim.Render(joinDim([]string{
				fmt.Sprintf("%d files", len(f.Files)),
				humanize.Bytes(uint64(size)),
			})))
		}
		for _, res := range f.Files {
			printFile(w, res.Path, res.Written, res.Cached)
		}
		for _, warn := range f.Warnings {
			printWarning(w, "%s", errors.UserMessage(warn))
		}
	}
}

// completeFigures offers catalog figure names for shell completion.
func completeFigures(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, f := range figures.Figures {
		names = append(names, f.Name+"\t"+f.Title)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

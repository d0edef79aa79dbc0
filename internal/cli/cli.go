// Package cli implements the paperfigs command-line interface.
//
// # Commands
//
//   - render: draw figures in every variant and export format
//   - tables: write the grid tables (and spreadsheets)
//   - list: show the figure and table catalog
//   - graph: draw which input files feed which figure
//   - wordcount: check a rendered manuscript against the word limit
//   - cache: manage the rendered-artifact cache
//
// Settings come from paperfigs.toml (or the file given with --config);
// command flags override the file. All commands accept --verbose (-v) for
// debug logging, which also logs every pipeline stage with its duration.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/paperfigs/pkg/buildinfo"
	"github.com/matzehuels/paperfigs/pkg/cache"
	"github.com/matzehuels/paperfigs/pkg/config"
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/export"
	"github.com/matzehuels/paperfigs/pkg/figures"
	"github.com/matzehuels/paperfigs/pkg/observability"
	"github.com/matzehuels/paperfigs/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "paperfigs"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "paperfigs renders the figures and tables of a paper",
		Long: `paperfigs rebuilds every figure and table of the paper from the data snapshots,
in color and grayscale, as publication-ready PDF, PNG, TIFF and EPS files.
Re-running on unchanged inputs leaves the output files untouched.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
				hooks := observability.NewLogHooks(c.Logger)
				observability.SetPipelineHooks(hooks)
				observability.SetCacheHooks(hooks)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default ./"+config.DefaultFile+" if present)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "do not read or write the artifact cache")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.tablesCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.wordcountCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads --config, or ./paperfigs.toml when it exists.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.Load(c.configPath)
	}
	return config.LoadOrDefault(config.DefaultFile)
}

// dirFlags are the directory overrides shared by render and tables.
type dirFlags struct {
	data   string
	output string
}

func (f *dirFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "data directory (overrides data_dir)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory (overrides output_dir)")
}

func (f *dirFlags) resolve(cfg *config.Config) (data, output string) {
	data, output = cfg.Data(), cfg.Output()
	if f.data != "" {
		data = f.data
	}
	if f.output != "" {
		output = f.output
	}
	return data, output
}

// newRunner creates a pipeline runner for CLI use. The output directory is
// created if needed.
func (c *CLI) newRunner(cfg *config.Config, dataDir, outputDir string) (*pipeline.Runner, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportIO, err, "create output directory %s", outputDir)
	}
	store, err := c.newCache(cfg)
	if err != nil {
		return nil, err
	}
	exporter := export.NewManager(outputDir, store, c.Logger)
	return pipeline.NewRunner(figures.NewData(dataDir), exporter, c.Logger), nil
}

func (c *CLI) newCache(cfg *config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	dir := cfg.Cache()
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			c.Logger.Debug("artifact cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/paperfigs/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

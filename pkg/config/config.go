// Package config loads paperfigs.toml, the project file that says where the
// data lives, which variants and formats to write, and which palettes each
// figure uses.
//
// A minimal file:
//
//	data_dir = "data"
//	output_dir = "figures"
//	variants = ["color", "grayscale"]
//
//	[[export]]
//	format = "pdf"
//
//	[[export]]
//	format = "png"
//	dpi = 600
//
//	[map]
//	exclude = ["ATA"]
//
//	[palettes.civicus-map.grayscale]
//	begin = 0.2
//	end = 0.9
//	direction = "descending"
//
// Files ending in .yaml or .yml are read as YAML with the same keys.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/export"
	"github.com/matzehuels/paperfigs/pkg/figures"
	"github.com/matzehuels/paperfigs/pkg/pipeline"
	"github.com/matzehuels/paperfigs/pkg/style"
	"github.com/matzehuels/paperfigs/pkg/wordcount"
)

// DefaultFile is looked up in the working directory when no config path is
// given.
const DefaultFile = "paperfigs.toml"

// Defaults for directory settings.
const (
	DefaultDataDir   = "data"
	DefaultOutputDir = "figures"
)

// Environment variables that override the file.
const (
	EnvDataDir   = "PAPERFIGS_DATA_DIR"
	EnvOutputDir = "PAPERFIGS_OUTPUT_DIR"
	EnvCacheDir  = "PAPERFIGS_CACHE_DIR"
)

// Config is the decoded project file.
type Config struct {
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	OutputDir string `toml:"output_dir" yaml:"output_dir"`

	// CacheDir holds rendered artifacts. Empty uses the user cache dir.
	CacheDir string `toml:"cache_dir" yaml:"cache_dir"`

	Variants []string      `toml:"variants" yaml:"variants"`
	Seed     uint64        `toml:"seed" yaml:"seed"`
	Workers  int           `toml:"workers" yaml:"workers"`
	Export   []export.Spec `toml:"export" yaml:"export"`

	Map       Map       `toml:"map" yaml:"map"`
	WordCount WordCount `toml:"wordcount" yaml:"wordcount"`

	// Palettes is keyed by figure name, then variant.
	Palettes map[string]map[string]Palette `toml:"palettes" yaml:"palettes"`

	// dir is the directory of the loaded file; relative paths resolve
	// against it.
	dir string
}

// Map configures world maps.
type Map struct {
	// Exclude lists ISO3 codes left off every map. Nil keeps the
	// renderer default (Antarctica); an empty list keeps every country.
	Exclude []string `toml:"exclude" yaml:"exclude"`
}

// WordCount configures the manuscript length check.
type WordCount struct {
	Target         int      `toml:"target" yaml:"target"`
	DropReferences bool     `toml:"drop_references" yaml:"drop_references"`
	ExcludeClasses []string `toml:"exclude_classes" yaml:"exclude_classes"`
}

// Palette overrides part of a figure's ramp. Unset fields keep the
// catalog's value.
type Palette struct {
	Begin     *float64 `toml:"begin" yaml:"begin"`
	End       *float64 `toml:"end" yaml:"end"`
	Direction string   `toml:"direction" yaml:"direction"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// Load reads and validates a config file. A missing file is an
// INVALID_CONFIG error; use [LoadOrDefault] for an optional file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	c, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	c.dir = filepath.Dir(path)
	return c, nil
}

// LoadOrDefault loads path if it exists and returns defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c := Default()
		c.applyEnvOverrides()
		return c, nil
	}
	return Load(path)
}

// Parse decodes TOML (format "toml") or YAML ("yaml") and applies defaults,
// environment overrides and validation. Unknown keys are rejected.
func Parse(data []byte, format string) (*Config, error) {
	c := &Config{}
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse yaml")
		}
	case "toml":
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
		}
		// `exclude = []` decodes to nil; keep the difference from an absent key.
		if md.IsDefined("map", "exclude") && c.Map.Exclude == nil {
			c.Map.Exclude = []string{}
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config format %q", format)
	}
	c.SetDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "toml"
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if len(c.Variants) == 0 {
		for _, v := range style.Variants {
			c.Variants = append(c.Variants, string(v))
		}
	}
	if c.Seed == 0 {
		c.Seed = figures.DefaultSeed
	}
	if c.Workers == 0 {
		c.Workers = pipeline.DefaultWorkers
	}
	if len(c.Export) == 0 {
		c.Export = export.DefaultSpecs()
	}
	for i := range c.Export {
		c.Export[i].SetDefaults()
	}
	if c.WordCount.Target == 0 {
		c.WordCount.Target = wordcount.DefaultTarget
	}
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = dir
	}
	if dir := os.Getenv(EnvOutputDir); dir != "" {
		c.OutputDir = dir
	}
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		c.CacheDir = dir
	}
}

// Validate checks every section. Errors are INVALID_CONFIG, or the more
// specific code of the failing value.
func (c *Config) Validate() error {
	if c.Workers < 1 || c.Workers > pipeline.MaxWorkers {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be between 1 and %d, got %d", pipeline.MaxWorkers, c.Workers)
	}
	if c.WordCount.Target < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "wordcount target must be positive, got %d", c.WordCount.Target)
	}
	for i, s := range c.Export {
		if err := s.Validate(); err != nil {
			return errors.Wrap(errors.GetCode(err), err, "export #%d", i+1)
		}
	}
	opts, err := c.PipelineOptions()
	if err != nil {
		return err
	}
	return opts.Validate()
}

// Path resolves p against the config file's directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Data returns the resolved data directory.
func (c *Config) Data() string { return c.Path(c.DataDir) }

// Output returns the resolved output directory.
func (c *Config) Output() string { return c.Path(c.OutputDir) }

// Cache returns the resolved artifact cache directory, or "" for the
// default location.
func (c *Config) Cache() string { return c.Path(c.CacheDir) }

// PipelineOptions converts the file into runner options.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	opts := pipeline.Options{
		Specs:   slices.Clone(c.Export),
		Workers: c.Workers,
		Seed:    c.Seed,
	}
	for _, name := range c.Variants {
		v, err := style.ParseVariant(name)
		if err != nil {
			return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "variants")
		}
		opts.Variants = append(opts.Variants, v)
	}
	if c.Map.Exclude != nil {
		opts.Exclude = make([]string, len(c.Map.Exclude))
		for i, code := range c.Map.Exclude {
			opts.Exclude[i] = strings.ToUpper(strings.TrimSpace(code))
		}
	}

	for name, byVariant := range c.Palettes {
		f, ok := figures.FigureByName(name)
		if !ok {
			return pipeline.Options{}, errors.New(errors.ErrCodeInvalidConfig, "palettes: unknown figure %q", name)
		}
		for vname, p := range byVariant {
			v, err := style.ParseVariant(vname)
			if err != nil {
				return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "palettes.%s", name)
			}
			params, err := p.apply(f.Palette(v))
			if err != nil {
				return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "palettes.%s.%s", name, vname)
			}
			if opts.Palettes == nil {
				opts.Palettes = map[string]map[style.Variant]style.PaletteParams{}
			}
			if opts.Palettes[name] == nil {
				opts.Palettes[name] = map[style.Variant]style.PaletteParams{}
			}
			opts.Palettes[name][v] = params
		}
	}
	return opts, nil
}

// apply overlays p on base.
func (p Palette) apply(base style.PaletteParams) (style.PaletteParams, error) {
	if p.Begin != nil {
		base.Begin = *p.Begin
	}
	if p.End != nil {
		base.End = *p.End
	}
	if p.Direction != "" {
		d, err := style.ParseDirection(p.Direction)
		if err != nil {
			return style.PaletteParams{}, err
		}
		base.Direction = d
	}
	return base, base.Validate()
}

// WordCountOptions returns the manuscript check settings.
func (c *Config) WordCountOptions() wordcount.Options {
	return wordcount.Options{
		Target:         c.WordCount.Target,
		DropReferences: c.WordCount.DropReferences,
		ExcludeClasses: slices.Clone(c.WordCount.ExcludeClasses),
	}
}

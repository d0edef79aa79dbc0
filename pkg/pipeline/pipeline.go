// Package pipeline runs the figure catalog: load → transform → render →
// export, once per figure and style variant.
//
// # Usage
//
// Create a Runner and run the whole catalog:
//
//	data := figures.NewData("data")
//	exporter := export.NewManager("figures", cache.NewNullCache(), logger)
//	runner := pipeline.NewRunner(data, exporter, logger)
//	report, err := runner.Run(ctx, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range report.Failed() {
//	    fmt.Println(f.Name, f.Err)
//	}
//
// A failing figure does not stop the others. Its error is recorded in its
// [FigureReport] and [Report.Err] joins all of them.
//
// Tables are written by [Runner.RunTables]; [Graph] describes which input
// files each catalog entry reads.
package pipeline

import (
	stderrors "errors"
	"slices"
	"time"

	"github.com/matzehuels/paperfigs/pkg/chart"
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/export"
	"github.com/matzehuels/paperfigs/pkg/figures"
	"github.com/matzehuels/paperfigs/pkg/style"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWorkers renders figures one at a time.
	DefaultWorkers = 1

	// MaxWorkers bounds the figure worker pool.
	MaxWorkers = 64
)

// =============================================================================
// Options
// =============================================================================

// Options configures a run. The zero value renders every figure in every
// variant with the default export specs.
type Options struct {
	// Figures and Tables select catalog entries by name. Empty selects all.
	Figures []string
	Tables  []string

	Variants []style.Variant
	Specs    []export.Spec

	// Workers is the number of figures rendered concurrently.
	Workers int

	// Seed drives labeled-point placement.
	Seed uint64

	// Exclude replaces the ISO3 codes dropped from maps. Nil keeps the
	// renderer default.
	Exclude []string

	// Palettes overrides catalog palettes, keyed by figure then variant.
	Palettes map[string]map[style.Variant]style.PaletteParams

	// Theme overrides the house style.
	Theme *chart.Theme

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if len(o.Variants) == 0 {
		o.Variants = slices.Clone(style.Variants)
	}
	if len(o.Specs) == 0 {
		o.Specs = export.DefaultSpecs()
	} else {
		o.Specs = slices.Clone(o.Specs)
	}
	for i := range o.Specs {
		o.Specs[i].SetDefaults()
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Seed == 0 {
		o.Seed = figures.DefaultSeed
	}
}

// Validate checks the options without modifying them.
func (o *Options) Validate() error {
	if o.Workers < 1 || o.Workers > MaxWorkers {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be between 1 and %d, got %d", MaxWorkers, o.Workers)
	}
	seen := map[style.Variant]bool{}
	for _, v := range o.Variants {
		if _, err := style.ParseVariant(string(v)); err != nil {
			return err
		}
		if seen[v] {
			return errors.New(errors.ErrCodeInvalidConfig, "variant %q listed twice", v)
		}
		seen[v] = true
	}
	for _, s := range o.Specs {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if _, err := figures.SelectFigures(o.Figures...); err != nil {
		return err
	}
	if _, err := figures.SelectTables(o.Tables...); err != nil {
		return err
	}
	for name, byVariant := range o.Palettes {
		if _, ok := figures.FigureByName(name); !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "palette for unknown figure %q", name)
		}
		for v, p := range byVariant {
			if err := p.Validate(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidStyle, err, "%s %s palette", name, v)
			}
		}
	}
	for _, code := range o.Exclude {
		if len(code) != 3 {
			return errors.New(errors.ErrCodeInvalidConfig, "map exclude: %q is not an ISO3 code", code)
		}
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and validates. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// palette returns the override for f and v, falling back to the catalog.
func (o *Options) palette(f *figures.Figure, v style.Variant) style.PaletteParams {
	if p, ok := o.Palettes[f.Name][v]; ok {
		return p
	}
	return f.Palette(v)
}

func (o *Options) theme() chart.Theme {
	if o.Theme != nil {
		return *o.Theme
	}
	return chart.DefaultTheme()
}

// =============================================================================
// Reports
// =============================================================================

// Report is the outcome of one run.
type Report struct {
	RunID   string
	Figures []FigureReport
	Tables  []TableReport
}

// FigureReport is the outcome of one figure across all variants.
type FigureReport struct {
	Name     string
	Files    []export.Result
	Warnings []error
	Err      error
	Duration time.Duration
}

// TableReport is the outcome of one table.
type TableReport struct {
	Name  string
	Files []TableFile
	Err   error
}

// TableFile is one written table file.
type TableFile struct {
	Path    string
	Written bool
}

// Failed returns the figures that did not export cleanly.
func (r *Report) Failed() []FigureReport {
	var out []FigureReport
	for _, f := range r.Figures {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Err joins every figure and table error, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, f := range r.Figures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	for _, t := range r.Tables {
		if t.Err != nil {
			errs = append(errs, t.Err)
		}
	}
	return stderrors.Join(errs...)
}

// Written counts files whose bytes changed on disk.
func (r *Report) Written() int {
	n := 0
	for _, f := range r.Figures {
		for _, res := range f.Files {
			if res.Written {
				n++
			}
		}
	}
	for _, t := range r.Tables {
		for _, tf := range t.Files {
			if tf.Written {
				n++
			}
		}
	}
	return n
}

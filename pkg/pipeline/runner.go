package pipeline

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/paperfigs/pkg/chart"
	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/export"
	"github.com/matzehuels/paperfigs/pkg/figures"
	"github.com/matzehuels/paperfigs/pkg/observability"
	"github.com/matzehuels/paperfigs/pkg/style"
	"github.com/matzehuels/paperfigs/pkg/table"
)

// Runner executes catalog entries against one data directory and one
// exporter.
//
// The Runner holds no per-run state. Loaded datasets are shared through Data,
// which is safe for concurrent use, so several runs may share a Runner.
type Runner struct {
	Data     *figures.Data
	Exporter *export.Manager
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil logger discards log output.
func NewRunner(data *figures.Data, exporter *export.Manager, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Data: data, Exporter: exporter, Logger: logger}
}

// Run renders and exports the selected figures. Invalid options fail the
// whole run; anything after that is recorded per figure in the report.
// Cancelling ctx stops scheduling figures and the remaining ones report the
// context error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	figs, err := figures.SelectFigures(opts.Figures...)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString(), Figures: make([]FigureReport, len(figs))}
	logger := r.Logger.With("run", report.RunID)
	logger.Info("rendering figures", "count", len(figs), "variants", len(opts.Variants),
		"formats", len(opts.Specs), "workers", opts.Workers)

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, f := range figs {
		if err := ctx.Err(); err != nil {
			report.Figures[i] = FigureReport{Name: f.Name, Err: err}
			continue
		}
		g.Go(func() error {
			report.Figures[i] = r.runFigure(ctx, logger.With("figure", f.Name), f, &opts)
			return nil
		})
	}
	_ = g.Wait()

	if failed := len(report.Failed()); failed > 0 {
		logger.Warn("run finished with failures", "failed", failed, "figures", len(figs))
	}
	return report, nil
}

func (r *Runner) runFigure(ctx context.Context, logger *log.Logger, f *figures.Figure, opts *Options) FigureReport {
	start := time.Now()
	rep := FigureReport{Name: f.Name}
	hooks := observability.Pipeline()

	hooks.OnTransformStart(ctx, f.Name)
	ds, enc, err := f.Build(ctx, r.Data)
	hooks.OnTransformComplete(ctx, f.Name, time.Since(start), err)
	if err != nil {
		rep.Err = errors.Wrap(errors.GetCode(err), err, "figure %s", f.Name)
		rep.Duration = time.Since(start)
		logger.Error("build failed", "error", err)
		return rep
	}

	enc.Seed = opts.Seed
	if opts.Exclude != nil {
		enc.Exclude = opts.Exclude
	}

	warnings := newWarningSet(ds.Warnings())
	var errs []error
	for _, v := range opts.Variants {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		c, err := r.render(ctx, f, ds, enc, v, opts)
		if err != nil {
			errs = append(errs, err)
			logger.Error("render failed", "variant", v, "error", err)
			continue
		}
		warnings.add(c.Warnings()...)

		files, err := r.Exporter.Export(ctx, c, f.Name, v, opts.Specs)
		rep.Files = append(rep.Files, files...)
		if err != nil {
			errs = append(errs, err)
		}
	}

	rep.Warnings = warnings.list
	for _, w := range rep.Warnings {
		logger.Warn(errors.UserMessage(w), "code", errors.GetCode(w))
	}
	rep.Err = stderrors.Join(errs...)
	rep.Duration = time.Since(start)
	if rep.Err == nil {
		logger.Info("figure done", "files", len(rep.Files), "duration", rep.Duration.Round(time.Millisecond))
	}
	return rep
}

func (r *Runner) render(ctx context.Context, f *figures.Figure, ds *dataset.Dataset, enc chart.Encoding, v style.Variant, opts *Options) (*chart.Chart, error) {
	b, err := style.Resolve(v, opts.palette(f, v))
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "figure %s %s", f.Name, v)
	}
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, f.Name, string(v))
	c, err := chart.Render(ds, enc, b, opts.theme())
	observability.Pipeline().OnRenderComplete(ctx, f.Name, string(v), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "figure %s %s", f.Name, v)
	}
	return c, nil
}

// RunTables formats the selected tables and writes them to the exporter's
// output directory. Like Run, failures are recorded per table.
func (r *Runner) RunTables(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	tables, err := figures.SelectTables(opts.Tables...)
	if err != nil {
		return nil, err
	}
	report := &Report{RunID: uuid.NewString()}
	logger := r.Logger.With("run", report.RunID)

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			report.Tables = append(report.Tables, TableReport{Name: t.Name, Err: err})
			continue
		}
		rep := r.writeTable(ctx, t)
		if rep.Err != nil {
			logger.Error("table failed", "table", t.Name, "error", rep.Err)
		} else {
			logger.Info("table done", "table", t.Name, "files", len(rep.Files))
		}
		report.Tables = append(report.Tables, rep)
	}
	return report, nil
}

func (r *Runner) writeTable(ctx context.Context, t *figures.Table) TableReport {
	rep := TableReport{Name: t.Name}
	dir := r.Exporter.OutputDir

	ds, err := t.Build(ctx, r.Data)
	if err != nil {
		rep.Err = errors.Wrap(errors.GetCode(err), err, "table %s", t.Name)
		return rep
	}
	block, err := t.Format(ds)
	if err != nil {
		rep.Err = errors.Wrap(errors.GetCode(err), err, "table %s", t.Name)
		return rep
	}
	path, written, err := table.WriteFile(dir, t.Name, block)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Files = append(rep.Files, TableFile{Path: path, Written: written})

	if t.XLSX {
		path, written, err := table.WriteXLSX(dir, t.Name, ds, t.Hints)
		if err != nil {
			rep.Err = err
			return rep
		}
		rep.Files = append(rep.Files, TableFile{Path: path, Written: written})
	}
	return rep
}

// warningSet keeps the first occurrence of each warning message. A figure
// rendered in two variants reports the same palette problem once.
type warningSet struct {
	seen map[string]bool
	list []error
}

func newWarningSet(initial []error) *warningSet {
	w := &warningSet{seen: map[string]bool{}}
	w.add(initial...)
	return w
}

func (w *warningSet) add(errs ...error) {
	for _, err := range errs {
		if msg := err.Error(); !w.seen[msg] {
			w.seen[msg] = true
			w.list = append(w.list, err)
		}
	}
}

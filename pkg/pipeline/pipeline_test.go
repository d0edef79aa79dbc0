package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/matzehuels/paperfigs/pkg/cache"
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/export"
	"github.com/matzehuels/paperfigs/pkg/figures"
	"github.com/matzehuels/paperfigs/pkg/figures/figurestest"
	"github.com/matzehuels/paperfigs/pkg/observability"
	"github.com/matzehuels/paperfigs/pkg/style"
)

func newRunner(t *testing.T, dataDir string) (*Runner, string) {
	t.Helper()
	out := t.TempDir()
	return NewRunner(figures.NewData(dataDir), export.NewManager(out, cache.NewNullCache(), nil), nil), out
}

func svgSpec(t *testing.T) []export.Spec {
	t.Helper()
	s, err := export.ParseSpec("svg:4x3in")
	if err != nil {
		t.Fatal(err)
	}
	return []export.Spec{s}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]style.Variant{style.Color, style.Grayscale}, o.Variants); diff != "" {
		t.Errorf("variants (-want +got):\n%s", diff)
	}
	if len(o.Specs) != len(export.DefaultSpecs()) {
		t.Errorf("specs = %v", o.Specs)
	}
	if o.Workers != DefaultWorkers {
		t.Errorf("workers = %d", o.Workers)
	}
	if o.Seed != figures.DefaultSeed {
		t.Errorf("seed = %d", o.Seed)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"defaults", Options{}, ""},
		{"negative workers", Options{Workers: -1}, errors.ErrCodeInvalidConfig},
		{"too many workers", Options{Workers: MaxWorkers + 1}, errors.ErrCodeInvalidConfig},
		{"bad variant", Options{Variants: []style.Variant{"sepia"}}, errors.ErrCodeInvalidStyle},
		{"duplicate variant", Options{Variants: []style.Variant{style.Color, style.Color}}, errors.ErrCodeInvalidConfig},
		{"bad format", Options{Specs: []export.Spec{{Format: "gif"}}}, errors.ErrCodeInvalidFormat},
		{"unknown figure", Options{Figures: []string{"nope"}}, errors.ErrCodeInvalidInput},
		{"unknown table", Options{Tables: []string{"nope"}}, errors.ErrCodeInvalidInput},
		{"palette for unknown figure", Options{Palettes: map[string]map[style.Variant]style.PaletteParams{
			"nope": {style.Color: {Begin: 0, End: 1}},
		}}, errors.ErrCodeInvalidConfig},
		{"palette out of range", Options{Palettes: map[string]map[style.Variant]style.PaletteParams{
			"civicus-map": {style.Color: {Begin: 0, End: 1.5}},
		}}, errors.ErrCodeInvalidStyle},
		{"bad exclude", Options{Exclude: []string{"Antarctica"}}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsDoNotAliasSpecs(t *testing.T) {
	specs := []export.Spec{{Format: export.FormatPNG}}
	o := Options{Specs: specs}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if specs[0].DPI != 0 {
		t.Errorf("caller's spec was modified: %+v", specs[0])
	}
}

func TestRunWritesEveryVariant(t *testing.T) {
	r, out := newRunner(t, figurestest.WriteDataDir(t))
	report, err := r.Run(context.Background(), Options{
		Figures: []string{"ngo-finances", "partner-support"},
		Specs:   svgSpec(t),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := report.Err(); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := uuid.Parse(report.RunID); err != nil {
		t.Errorf("run id %q: %v", report.RunID, err)
	}

	want := []string{
		"ngo-finances-color.svg",
		"ngo-finances.svg",
		"partner-support-color.svg",
		"partner-support.svg",
	}
	if diff := cmp.Diff(want, listDir(t, out)); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
	if got := report.Written(); got != len(want) {
		t.Errorf("written = %d, want %d", got, len(want))
	}
	for _, f := range report.Figures {
		if len(f.Files) != 2 {
			t.Errorf("%s: %d files", f.Name, len(f.Files))
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	r, _ := newRunner(t, figurestest.WriteDataDir(t))
	opts := Options{Figures: []string{"ngo-finances", "regional-expenses"}, Specs: svgSpec(t)}

	if _, err := r.Run(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	report, err := r.Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if n := report.Written(); n != 0 {
		t.Errorf("second run rewrote %d files", n)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := figurestest.WriteDataDir(t)
	if err := os.Remove(filepath.Join(dir, "partners.csv")); err != nil {
		t.Fatal(err)
	}
	r, out := newRunner(t, dir)
	report, err := r.Run(context.Background(), Options{
		Figures:  []string{"ngo-finances", "partner-support", "regional-expenses"},
		Variants: []style.Variant{style.Grayscale},
		Specs:    svgSpec(t),
	})
	if err != nil {
		t.Fatal(err)
	}

	failed := report.Failed()
	if len(failed) != 1 || failed[0].Name != "partner-support" {
		t.Fatalf("failed = %+v", failed)
	}
	if !errors.Is(failed[0].Err, errors.ErrCodeDataNotFound) {
		t.Errorf("error = %v, want DATA_NOT_FOUND", failed[0].Err)
	}
	if !strings.Contains(failed[0].Err.Error(), "partner-support") {
		t.Errorf("error %q does not name the figure", failed[0].Err)
	}
	if !errors.Is(report.Err(), errors.ErrCodeDataNotFound) {
		t.Errorf("report error = %v", report.Err())
	}
	want := []string{"ngo-finances.svg", "regional-expenses.svg"}
	if diff := cmp.Diff(want, listDir(t, out)); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	dataDir := figurestest.WriteDataDir(t)
	opts := func(workers int) Options {
		return Options{
			Figures: []string{"ngo-finances", "partner-support", "regional-expenses", "civicus-population"},
			Specs:   svgSpec(t),
			Workers: workers,
		}
	}

	seq, seqDir := newRunner(t, dataDir)
	if _, err := seq.Run(context.Background(), opts(1)); err != nil {
		t.Fatal(err)
	}
	par, parDir := newRunner(t, dataDir)
	report, err := par.Run(context.Background(), opts(4))
	if err != nil {
		t.Fatal(err)
	}

	// Reports keep catalog order regardless of completion order.
	var names []string
	for _, f := range report.Figures {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff(opts(4).Figures, names); diff != "" {
		t.Errorf("report order (-want +got):\n%s", diff)
	}

	files := listDir(t, seqDir)
	if diff := cmp.Diff(files, listDir(t, parDir)); diff != "" {
		t.Fatalf("files (-seq +par):\n%s", diff)
	}
	for _, name := range files {
		a, _ := os.ReadFile(filepath.Join(seqDir, name))
		b, _ := os.ReadFile(filepath.Join(parDir, name))
		if !bytes.Equal(a, b) {
			t.Errorf("%s differs between sequential and parallel runs", name)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	r, out := newRunner(t, figurestest.WriteDataDir(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.Run(ctx, Options{Specs: svgSpec(t)})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failed()) != len(figures.Figures) {
		t.Errorf("failed = %d, want every figure", len(report.Failed()))
	}
	if files := listDir(t, out); len(files) != 0 {
		t.Errorf("cancelled run wrote %v", files)
	}
}

func TestRunReportsWarningsOnce(t *testing.T) {
	r, _ := newRunner(t, figurestest.WriteDataDir(t))
	report, err := r.Run(context.Background(), Options{
		Figures: []string{"civicus-population"},
		Specs:   svgSpec(t),
	})
	if err != nil {
		t.Fatal(err)
	}
	f := report.Figures[0]
	if f.Err != nil {
		t.Fatal(f.Err)
	}
	n := 0
	for _, w := range f.Warnings {
		if errors.Is(w, errors.ErrCodeUnmappedCategory) && strings.Contains(w.Error(), "Atlantis") {
			n++
		}
	}
	if n != 1 {
		t.Errorf("Atlantis warnings = %d, want 1 (%v)", n, f.Warnings)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu      sync.Mutex
	events  []string
	exports int
}

func (h *recordingHooks) OnTransformComplete(_ context.Context, figure string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "transform:"+figure)
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, figure, variant string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "render:"+figure+":"+variant)
}

func (h *recordingHooks) OnExportComplete(context.Context, string, string, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exports++
}

func TestRunFiresHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	r, _ := newRunner(t, figurestest.WriteDataDir(t))
	if _, err := r.Run(context.Background(), Options{
		Figures: []string{"ngo-finances"},
		Specs:   svgSpec(t),
	}); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"transform:ngo-finances",
		"render:ngo-finances:color",
		"render:ngo-finances:grayscale",
	}
	if diff := cmp.Diff(want, hooks.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if hooks.exports != 2 {
		t.Errorf("exports = %d, want 2", hooks.exports)
	}
}

func TestRunTables(t *testing.T) {
	r, out := newRunner(t, figurestest.WriteDataDir(t))
	report, err := r.RunTables(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := report.Err(); err != nil {
		t.Fatal(err)
	}
	want := []string{"tbl-civicus-population.md", "tbl-finances.md", "tbl-finances.xlsx"}
	if diff := cmp.Diff(want, listDir(t, out)); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}

	md, err := os.ReadFile(filepath.Join(out, "tbl-finances.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(md), "Table: Annual income, expenses and surplus (USD)") {
		t.Errorf("caption missing:\n%s", md)
	}
}

func TestGraph(t *testing.T) {
	fin, _ := figures.FigureByName("ngo-finances")
	tbl, _ := figures.TableByName("finances")
	dot := Graph([]*figures.Figure{fin}, []*figures.Table{tbl})

	for _, want := range []string{
		`"input:finances" [shape=note, label="finances.csv"];`,
		`"input:finances" -> "figure:ngo-finances";`,
		`"input:finances" -> "table:finances";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s:\n%s", want, dot)
		}
	}
	// Shared inputs get one node.
	if n := strings.Count(dot, `"input:finances" [`); n != 1 {
		t.Errorf("input node declared %d times", n)
	}
	if again := Graph([]*figures.Figure{fin}, []*figures.Table{tbl}); again != dot {
		t.Error("Graph is not deterministic")
	}
}

func TestRenderGraphSVG(t *testing.T) {
	dot := Graph(figures.Figures, figures.Tables)
	svg, err := RenderGraphSVG(context.Background(), dot)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("not an SVG: %.80s", svg)
	}
}

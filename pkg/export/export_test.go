package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matzehuels/paperfigs/pkg/cache"
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/style"
)

type lineChart struct{ p *plot.Plot }

func (c lineChart) Draw(dc draw.Canvas) { c.p.Draw(dc) }

func newChart(t *testing.T) lineChart {
	t.Helper()
	p := plot.New()
	p.Title.Text = "Surplus"
	l, err := plotter.NewLine(plotter.XYs{{X: 2015, Y: 20}, {X: 2016, Y: -10}})
	if err != nil {
		t.Fatal(err)
	}
	p.Add(l)
	return lineChart{p}
}

func quietManager(dir string, c cache.Cache) *Manager {
	return NewManager(dir, c, log.NewWithOptions(&bytes.Buffer{}, log.Options{}))
}

func TestExportColorVariant(t *testing.T) {
	dir := t.TempDir()
	m := quietManager(dir, nil)

	results, err := m.Export(context.Background(), newChart(t), "demo", style.Color,
		[]Spec{{Format: FormatPDF}, {Format: FormatPNG}})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	for _, name := range []string{"demo-color.pdf", "demo-color.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("output dir holds %v, want only the two exports", names)
	}

	pdf, _ := os.ReadFile(filepath.Join(dir, "demo-color.pdf"))
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("demo-color.pdf is not a PDF")
	}
	png, _ := os.ReadFile(filepath.Join(dir, "demo-color.png"))
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("demo-color.png is not a PNG")
	}
}

func TestExportGrayscaleHasNoSuffix(t *testing.T) {
	dir := t.TempDir()
	m := quietManager(dir, nil)
	if _, err := m.Export(context.Background(), newChart(t), "demo", style.Grayscale,
		[]Spec{{Format: FormatSVG}}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "demo.svg")); err != nil {
		t.Error(err)
	}
}

func TestExportIdempotent(t *testing.T) {
	dir := t.TempDir()
	m := quietManager(dir, nil)
	specs := []Spec{{Format: FormatPDF}, {Format: FormatEPS}, {Format: FormatSVG}, {Format: FormatPNG}}

	first, err := m.Export(context.Background(), newChart(t), "demo", style.Color, specs)
	if err != nil {
		t.Fatal(err)
	}
	before := map[string][]byte{}
	mtimes := map[string]time.Time{}
	for _, r := range first {
		if !r.Written {
			t.Errorf("%s: first export not written", r.Path)
		}
		before[r.Path], _ = os.ReadFile(r.Path)
		info, _ := os.Stat(r.Path)
		mtimes[r.Path] = info.ModTime()
	}

	second, err := m.Export(context.Background(), newChart(t), "demo", style.Color, specs)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range second {
		if r.Written {
			t.Errorf("%s: rewritten although bytes are identical", r.Path)
		}
		after, _ := os.ReadFile(r.Path)
		if !bytes.Equal(before[r.Path], after) {
			t.Errorf("%s: bytes differ between runs", r.Path)
		}
		info, _ := os.Stat(r.Path)
		if !info.ModTime().Equal(mtimes[r.Path]) {
			t.Errorf("%s: modification time changed", r.Path)
		}
	}
}

func TestExportMissingDir(t *testing.T) {
	m := quietManager(filepath.Join(t.TempDir(), "nope"), nil)
	_, err := m.Export(context.Background(), newChart(t), "demo", style.Color, []Spec{{Format: FormatPDF}})
	if !errors.Is(err, errors.ErrCodeExportIO) {
		t.Fatalf("err = %v, want EXPORT_IO", err)
	}
}

func TestExportContinuesAfterBadSpec(t *testing.T) {
	dir := t.TempDir()
	m := quietManager(dir, nil)
	results, err := m.Export(context.Background(), newChart(t), "demo", style.Color,
		[]Spec{{Format: "bmp"}, {Format: FormatSVG}})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Fatalf("err = %v, want INVALID_FORMAT", err)
	}
	if !strings.Contains(err.Error(), "demo") {
		t.Errorf("error %q does not name the figure", err)
	}
	if len(results) != 1 || results[0].Spec.Format != FormatSVG {
		t.Fatalf("results = %+v, want the svg export", results)
	}
	if _, err := os.Stat(filepath.Join(dir, "demo-color.svg")); err != nil {
		t.Error(err)
	}
}

func TestExportUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	specs := []Spec{{Format: FormatPDF}}

	first, err := quietManager(t.TempDir(), c).Export(context.Background(), newChart(t), "demo", style.Color, specs)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Cached {
		t.Error("first export reported a cache hit")
	}

	second, err := quietManager(t.TempDir(), c).Export(context.Background(), newChart(t), "demo", style.Color, specs)
	if err != nil {
		t.Fatal(err)
	}
	if !second[0].Cached {
		t.Error("second export missed the cache")
	}
	a, _ := os.ReadFile(first[0].Path)
	b, _ := os.ReadFile(second[0].Path)
	if !bytes.Equal(a, b) {
		t.Error("cached bytes differ from rendered bytes")
	}
}

func TestExportCacheKeyFollowsSourceDateEpoch(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	specs := []Spec{{Format: FormatPDF}, {Format: FormatSVG}}

	t.Setenv("SOURCE_DATE_EPOCH", "1577836800")
	first, err := quietManager(t.TempDir(), c).Export(context.Background(), newChart(t), "demo", style.Color, specs)
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv("SOURCE_DATE_EPOCH", "1609459200")
	second, err := quietManager(t.TempDir(), c).Export(context.Background(), newChart(t), "demo", style.Color, specs)
	if err != nil {
		t.Fatal(err)
	}
	if second[0].Cached {
		t.Error("pdf served from cache after SOURCE_DATE_EPOCH changed")
	}
	if !second[1].Cached {
		t.Error("svg carries no date and should stay cached")
	}
	a, _ := os.ReadFile(first[0].Path)
	b, _ := os.ReadFile(second[0].Path)
	if bytes.Equal(a, b) {
		t.Error("pdf bytes unchanged after SOURCE_DATE_EPOCH changed")
	}
}

func TestExportRejectsBadBaseName(t *testing.T) {
	m := quietManager(t.TempDir(), nil)
	_, err := m.Export(context.Background(), newChart(t), "../demo", style.Color, []Spec{{Format: FormatPDF}})
	if !errors.Is(err, errors.ErrCodeInvalidName) {
		t.Fatalf("err = %v, want INVALID_NAME", err)
	}
}

func TestRenderEPSDateIsPinned(t *testing.T) {
	t.Setenv("SOURCE_DATE_EPOCH", "")
	data, err := Render(newChart(t), Spec{Format: FormatEPS})
	if err != nil {
		t.Fatal(err)
	}
	want := "%%CreationDate: " + ReproducibleTime().Format(time.RFC1123Z) + "\n"
	if !bytes.Contains(data, []byte(want)) {
		t.Errorf("eps header lacks %q", want)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	written, err := WriteFileAtomic(path, []byte("a"))
	if err != nil || !written {
		t.Fatalf("first write = %v, %v", written, err)
	}
	written, err = WriteFileAtomic(path, []byte("a"))
	if err != nil || written {
		t.Fatalf("identical write = %v, %v", written, err)
	}
	written, err = WriteFileAtomic(path, []byte("b"))
	if err != nil || !written {
		t.Fatalf("changed write = %v, %v", written, err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "b" {
		t.Errorf("content = %q", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

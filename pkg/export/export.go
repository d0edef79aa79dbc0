package export

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/charmbracelet/log"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgeps"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/matzehuels/paperfigs/pkg/cache"
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/observability"
	"github.com/matzehuels/paperfigs/pkg/style"
)

// Drawable is anything that can draw itself onto a canvas, such as a
// rendered chart.
type Drawable interface {
	Draw(dc draw.Canvas)
}

// Result describes one exported file.
type Result struct {
	Spec Spec
	Path string
	Size int

	// Written is false when the file already held identical bytes.
	Written bool

	// Cached is true when the bytes came from the artifact cache.
	Cached bool
}

// Manager exports charts into one output directory.
type Manager struct {
	OutputDir string
	Cache     cache.Cache
	Logger    *log.Logger
}

// NewManager creates a manager. A nil cache disables caching and a nil
// logger uses the default logger.
func NewManager(outputDir string, c cache.Cache, logger *log.Logger) *Manager {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{OutputDir: outputDir, Cache: c, Logger: logger}
}

// FileName returns the output file name for base, variant and format.
func FileName(base string, variant style.Variant, format string) string {
	return base + variant.Suffix() + "." + format
}

// Export writes d once per spec. A failing spec does not stop the others;
// every failure is joined into the returned error and the results of the
// successful specs are still returned.
//
// A missing or non-directory output dir fails every spec with EXPORT_IO.
func (m *Manager) Export(ctx context.Context, d Drawable, base string, variant style.Variant, specs []Spec) ([]Result, error) {
	if err := errors.ValidateBaseName(base); err != nil {
		return nil, err
	}
	if err := m.checkDir(); err != nil {
		return nil, err
	}

	var (
		results []Result
		errs    []error
		svgHash = map[[2]float64]string{}
	)
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		spec.SetDefaults()
		if err := spec.Validate(); err != nil {
			errs = append(errs, errors.Wrap(errors.GetCode(err), err, "%s", base))
			continue
		}

		start := time.Now()
		observability.Pipeline().OnExportStart(ctx, base, spec.Format)
		res, err := m.exportOne(ctx, d, base, variant, spec, svgHash)
		observability.Pipeline().OnExportComplete(ctx, base, spec.Format, time.Since(start), err)
		if err != nil {
			errs = append(errs, err)
			m.Logger.Error("export failed", "figure", base, "format", spec.Format, "error", err)
			continue
		}
		m.Logger.Debug("exported", "file", res.Path, "bytes", res.Size,
			"written", res.Written, "cached", res.Cached)
		results = append(results, res)
	}
	return results, stderrors.Join(errs...)
}

func (m *Manager) checkDir() error {
	info, err := os.Stat(m.OutputDir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportIO, err, "output directory %s", m.OutputDir)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeExportIO, "output directory %s: not a directory", m.OutputDir)
	}
	return nil
}

func (m *Manager) exportOne(ctx context.Context, d Drawable, base string, variant style.Variant, spec Spec, svgHash map[[2]float64]string) (Result, error) {
	path := filepath.Join(m.OutputDir, FileName(base, variant, spec.Format))
	res := Result{Spec: spec, Path: path}

	w, h := spec.Size()
	size := [2]float64{float64(w), float64(h)}
	hash, ok := svgHash[size]
	if !ok {
		svg, err := Render(d, Spec{Format: FormatSVG, Width: spec.Width, Height: spec.Height, Unit: spec.Unit})
		if err != nil {
			return res, errors.Wrap(errors.ErrCodeExportIO, err, "%s: render svg", path)
		}
		hash = cache.Hash(svg)
		svgHash[size] = hash
	}

	key := cache.ArtifactKey(hash, cache.ArtifactKeyOpts{
		Format: spec.Format,
		Width:  size[0],
		Height: size[1],
		DPI:    spec.DPI,
		Date:   documentDate(spec.Format),
	})
	data, hit, err := m.Cache.Get(ctx, key)
	if err != nil {
		m.Logger.Warn("cache read failed", "file", path, "error", err)
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		res.Cached = true
	} else {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		data, err = Render(d, spec)
		if err != nil {
			return res, errors.Wrap(errors.ErrCodeExportIO, err, "%s: render", path)
		}
		if err := m.Cache.Set(ctx, key, data, 0); err != nil {
			m.Logger.Warn("cache write failed", "file", path, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	res.Size = len(data)
	res.Written, err = WriteFileAtomic(path, data)
	if err != nil {
		return res, err
	}
	return res, nil
}

// documentDate is the metadata date embedded by format, or "" for formats
// that carry none.
func documentDate(format string) string {
	if format != FormatPDF && format != FormatEPS {
		return ""
	}
	return ReproducibleTime().Format(time.RFC3339)
}

// Render draws d onto a canvas for spec and returns the encoded bytes.
func Render(d Drawable, spec Spec) ([]byte, error) {
	spec.SetDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	date := pinDocumentDates()

	w, h := spec.Size()
	var (
		canvas draw.Canvas
		out    io.WriterTo
	)
	switch spec.Format {
	case FormatPDF:
		c := vgpdf.New(w, h)
		canvas, out = draw.New(c), c
	case FormatEPS:
		c := vgeps.New(w, h)
		canvas, out = draw.New(c), c
	case FormatSVG:
		c := vgsvg.New(w, h)
		canvas, out = draw.New(c), c
	case FormatPNG:
		c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(spec.DPI))
		canvas, out = draw.New(c), vgimg.PngCanvas{Canvas: c}
	case FormatTIFF:
		c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(spec.DPI))
		canvas, out = draw.New(c), vgimg.TiffCanvas{Canvas: c}
	}

	d.Draw(canvas)

	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if spec.Format == FormatEPS {
		data = epsCreationDate.ReplaceAll(data, []byte("%%CreationDate: "+date.Format(time.RFC1123Z)+"\n"))
	}
	return data, nil
}

var epsCreationDate = regexp.MustCompile(`(?m)^%%CreationDate: .*\n`)

// ReproducibleTime is the timestamp written into PDF and EPS metadata. It
// honours SOURCE_DATE_EPOCH and otherwise returns 2000-01-01 UTC.
func ReproducibleTime() time.Time {
	if v := os.Getenv("SOURCE_DATE_EPOCH"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC()
		}
	}
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
}

var (
	pinMu  sync.Mutex
	pinned time.Time
)

// pinDocumentDates sets the PDF writer's package defaults to
// [ReproducibleTime] and returns it. vgpdf creates its documents internally,
// so the defaults are the only hook. They are reset when SOURCE_DATE_EPOCH
// changes.
func pinDocumentDates() time.Time {
	tm := ReproducibleTime()
	pinMu.Lock()
	defer pinMu.Unlock()
	if !pinned.Equal(tm) {
		fpdf.SetDefaultCreationDate(tm)
		fpdf.SetDefaultModificationDate(tm)
		fpdf.SetDefaultCatalogSort(true)
		pinned = tm
	}
	return tm
}

// WriteFileAtomic writes data to path through a temporary file in the same
// directory. It returns false without touching the file when path already
// holds exactly data.
func WriteFileAtomic(path string, data []byte) (bool, error) {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return false, nil
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeExportIO, err, "write %s", path)
	}
	cleanup := func(err error) (bool, error) {
		tmp.Close()
		os.Remove(tmp.Name())
		return false, errors.Wrap(errors.ErrCodeExportIO, err, "write %s", path)
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false, errors.Wrap(errors.ErrCodeExportIO, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return false, errors.Wrap(errors.ErrCodeExportIO, err, "write %s", path)
	}
	return true, nil
}

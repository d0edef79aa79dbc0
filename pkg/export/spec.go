package export

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/paperfigs/pkg/errors"
)

// Format constants for output files.
const (
	FormatPDF  = "pdf"
	FormatPNG  = "png"
	FormatTIFF = "tiff"
	FormatEPS  = "eps"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPDF:  true,
	FormatPNG:  true,
	FormatTIFF: true,
	FormatEPS:  true,
	FormatSVG:  true,
}

// Length units accepted in a Spec.
const (
	UnitInch       = "in"
	UnitCentimeter = "cm"
	UnitMillimeter = "mm"
	UnitPoint      = "pt"
)

var units = map[string]vg.Length{
	UnitInch:       vg.Inch,
	UnitCentimeter: vg.Centimeter,
	UnitMillimeter: vg.Millimeter,
	UnitPoint:      vg.Points(1),
}

const (
	// DefaultWidth and DefaultHeight are in inches and fit a single-column
	// page with 1in margins.
	DefaultWidth  = 6.5
	DefaultHeight = 4.0

	// DefaultDPI is the resolution for raster formats.
	DefaultDPI = 300
)

// Spec describes one output file.
type Spec struct {
	Format string  `toml:"format" yaml:"format" json:"format"`
	Width  float64 `toml:"width" yaml:"width" json:"width,omitempty"`
	Height float64 `toml:"height" yaml:"height" json:"height,omitempty"`
	Unit   string  `toml:"unit" yaml:"unit" json:"unit,omitempty"`
	DPI    int     `toml:"dpi" yaml:"dpi" json:"dpi,omitempty"`
}

// DefaultSpecs are the formats written for the paper: a vector PDF and EPS
// plus 300 dpi PNG and TIFF, all 6.5×4 in.
func DefaultSpecs() []Spec {
	specs := []Spec{{Format: FormatPDF}, {Format: FormatPNG}, {Format: FormatTIFF}, {Format: FormatEPS}}
	for i := range specs {
		specs[i].SetDefaults()
	}
	return specs
}

// ParseSpec parses "format[:WxH[unit][@dpi]]", e.g. "png:6.5x4in@300".
func ParseSpec(s string) (Spec, error) {
	var sp Spec
	format, rest, hasSize := strings.Cut(strings.TrimSpace(s), ":")
	sp.Format = strings.ToLower(format)
	if hasSize {
		size, dpi, hasDPI := strings.Cut(rest, "@")
		if hasDPI {
			n, err := strconv.Atoi(dpi)
			if err != nil {
				return Spec{}, errors.New(errors.ErrCodeInvalidFormat, "export spec %q: bad dpi %q", s, dpi)
			}
			sp.DPI = n
		}
		for u := range units {
			if trimmed, ok := strings.CutSuffix(size, u); ok {
				sp.Unit, size = u, trimmed
				break
			}
		}
		w, h, ok := strings.Cut(size, "x")
		var werr, herr error
		sp.Width, werr = strconv.ParseFloat(w, 64)
		sp.Height, herr = strconv.ParseFloat(h, 64)
		if !ok || werr != nil || herr != nil {
			return Spec{}, errors.New(errors.ErrCodeInvalidFormat, "export spec %q: bad size %q", s, size)
		}
	}
	sp.SetDefaults()
	if err := sp.Validate(); err != nil {
		return Spec{}, err
	}
	return sp, nil
}

// SetDefaults fills zero fields. Format is normalized to lower case.
func (s *Spec) SetDefaults() {
	s.Format = strings.ToLower(strings.TrimSpace(s.Format))
	if s.Format == "tif" {
		s.Format = FormatTIFF
	}
	if s.Unit == "" {
		s.Unit = UnitInch
	}
	if s.Width == 0 && s.Height == 0 {
		s.Width = DefaultWidth * float64(vg.Inch/units[s.Unit])
		s.Height = DefaultHeight * float64(vg.Inch/units[s.Unit])
	}
	if s.DPI == 0 && s.Raster() {
		s.DPI = DefaultDPI
	}
}

// Validate reports an INVALID_FORMAT error for unknown formats or units and
// non-positive sizes.
func (s Spec) Validate() error {
	if !ValidFormats[s.Format] {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want one of %s)",
			s.Format, strings.Join(Formats(), ", "))
	}
	if _, ok := units[s.Unit]; !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "%s: unknown unit %q", s.Format, s.Unit)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "%s: size must be positive, got %gx%g%s",
			s.Format, s.Width, s.Height, s.Unit)
	}
	if s.Raster() && s.DPI <= 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "%s: dpi must be positive, got %d", s.Format, s.DPI)
	}
	return nil
}

// Raster reports whether the format is a bitmap.
func (s Spec) Raster() bool {
	return s.Format == FormatPNG || s.Format == FormatTIFF
}

// Size returns the canvas size.
func (s Spec) Size() (w, h vg.Length) {
	u := units[s.Unit]
	return vg.Length(s.Width) * u, vg.Length(s.Height) * u
}

func (s Spec) String() string {
	str := fmt.Sprintf("%s:%gx%g%s", s.Format, s.Width, s.Height, s.Unit)
	if s.Raster() {
		str += fmt.Sprintf("@%d", s.DPI)
	}
	return str
}

// Formats returns the supported formats in sorted order.
func Formats() []string {
	out := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

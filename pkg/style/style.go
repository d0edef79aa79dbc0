// Package style resolves a rendering variant into the palette a chart uses.
//
// A figure is drawn once per [Variant]. The chart code is identical across
// variants; only the [Binding] returned by [Resolve] differs. Palette
// parameters are per figure and per variant, so the grayscale version of a
// map can start its ramp at a different lightness than the color version.
package style

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/paperfigs/pkg/errors"
)

// Variant is a rendering mode of a figure.
type Variant string

const (
	Color     Variant = "color"
	Grayscale Variant = "grayscale"
)

// Variants lists all variants in output order.
var Variants = []Variant{Color, Grayscale}

// ParseVariant parses "color" or "grayscale" (also "grey", "gray").
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "color", "colour":
		return Color, nil
	case "grayscale", "greyscale", "gray", "grey":
		return Grayscale, nil
	}
	return "", errors.New(errors.ErrCodeInvalidStyle, "unknown style variant %q (want color or grayscale)", s)
}

// Suffix is appended to a figure's base name: "-color" for color, empty for
// grayscale, which is the journal's default print version.
func (v Variant) Suffix() string {
	if v == Color {
		return "-color"
	}
	return ""
}

// Direction orders palette positions over ordinal levels.
type Direction int

const (
	Ascending  Direction = iota // first level at Begin
	Descending                  // first level at End
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// ParseDirection parses "ascending"/"asc" or "descending"/"desc".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascending", "asc":
		return Ascending, nil
	case "descending", "desc":
		return Descending, nil
	}
	return Ascending, errors.New(errors.ErrCodeInvalidStyle, "unknown palette direction %q", s)
}

// PaletteParams selects the part of the variant's ramp a figure uses.
// Begin and End are positions in [0, 1]; for grayscale they are lightness.
type PaletteParams struct {
	Begin     float64
	End       float64
	Direction Direction
}

// DefaultParams returns the ramp defaults for a variant. The grayscale ramp
// stops short of both black and white.
func DefaultParams(v Variant) PaletteParams {
	if v == Grayscale {
		return PaletteParams{Begin: 0.15, End: 0.85}
	}
	return PaletteParams{Begin: 0, End: 1}
}

// Validate checks that Begin and End lie in [0, 1].
func (p PaletteParams) Validate() error {
	for _, x := range []float64{p.Begin, p.End} {
		if math.IsNaN(x) || x < 0 || x > 1 {
			return errors.New(errors.ErrCodeInvalidStyle, "palette range [%g, %g] outside [0, 1]", p.Begin, p.End)
		}
	}
	return nil
}

// viridis anchors at t = 0, 1/8, ..., 1.
var viridis = []string{
	"#440154", "#472d7b", "#3b528b", "#2c728e", "#21918c",
	"#28ae80", "#5ec962", "#addc30", "#fde725",
}

var viridisAnchors = func() []colorful.Color {
	out := make([]colorful.Color, len(viridis))
	for i, hex := range viridis {
		c, err := colorful.Hex(hex)
		if err != nil {
			panic(fmt.Sprintf("style: bad anchor %s: %v", hex, err))
		}
		out[i] = c
	}
	return out
}()

var (
	missingColor = color.RGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}
	missingGray  = color.Gray{Y: 0xf2}
)

// Binding maps data values to colors for one variant.
type Binding struct {
	variant Variant
	params  PaletteParams
}

// Resolve binds a variant to its palette.
func Resolve(v Variant, p PaletteParams) (*Binding, error) {
	if v != Color && v != Grayscale {
		return nil, errors.New(errors.ErrCodeInvalidStyle, "unknown style variant %q", string(v))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Binding{variant: v, params: p}, nil
}

// Variant returns the bound variant.
func (b *Binding) Variant() Variant { return b.variant }

// Params returns the palette parameters.
func (b *Binding) Params() PaletteParams { return b.params }

// Sequential returns the color at t in [0, 1] of the figure's ramp.
func (b *Binding) Sequential(t float64) color.Color {
	t = math.Max(0, math.Min(1, t))
	if b.params.Direction == Descending {
		t = 1 - t
	}
	pos := b.params.Begin + t*(b.params.End-b.params.Begin)
	if b.variant == Grayscale {
		return gray(pos)
	}
	return rampColor(pos)
}

// Categorical returns n colors spaced evenly along the ramp.
func (b *Binding) Categorical(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range n {
		out[i] = b.Sequential(position(i, n))
	}
	return out
}

// Ordinal returns one color per level, in level order.
func (b *Binding) Ordinal(levels []string) []color.Color {
	return b.Categorical(len(levels))
}

// Level returns the color of value among ordered levels. An unknown value
// yields the missing fill and an UNMAPPED_CATEGORY error.
func (b *Binding) Level(levels []string, value string) (color.Color, error) {
	for i, l := range levels {
		if l == value {
			return b.Sequential(position(i, len(levels))), nil
		}
	}
	return b.Missing(), errors.New(errors.ErrCodeUnmappedCategory, "no palette entry for %q (levels %v)", value, levels)
}

// Missing is the fill for absent or unmapped values.
func (b *Binding) Missing() color.Color {
	if b.variant == Grayscale {
		return missingGray
	}
	return missingColor
}

// Ink is the color of text, axes and outlines.
func (b *Binding) Ink() color.Color { return color.Black }

// Dashes returns the line dash pattern of series i. Color series are solid;
// grayscale series alternate patterns so lines stay distinguishable in print.
func (b *Binding) Dashes(i int) []vg.Length {
	if b.variant != Grayscale {
		return nil
	}
	patterns := [][]vg.Length{
		nil,
		{vg.Points(4), vg.Points(2)},
		{vg.Points(1), vg.Points(2)},
		{vg.Points(6), vg.Points(2), vg.Points(1), vg.Points(2)},
	}
	return patterns[i%len(patterns)]
}

func position(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

func gray(l float64) color.Color {
	r, g, b := colorful.Hcl(0, 0, l).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// rampColor interpolates the viridis anchors in CIE-Lab.
func rampColor(t float64) color.Color {
	seg := t * float64(len(viridisAnchors)-1)
	i := int(math.Floor(seg))
	if i >= len(viridisAnchors)-1 {
		i = len(viridisAnchors) - 2
	}
	c := viridisAnchors[i].BlendLab(viridisAnchors[i+1], seg-float64(i)).Clamped()
	r, g, bl := c.RGB255()
	return color.RGBA{R: r, G: g, B: bl, A: 0xff}
}

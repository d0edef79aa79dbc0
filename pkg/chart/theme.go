package chart

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// LegendPosition places the legend inside the data area.
type LegendPosition string

const (
	LegendTopRight    LegendPosition = "top-right"
	LegendTopLeft     LegendPosition = "top-left"
	LegendBottomRight LegendPosition = "bottom-right"
	LegendBottomLeft  LegendPosition = "bottom-left"
	LegendNone        LegendPosition = "none"
)

// Theme is the appearance shared by every panel of a chart. It is passed to
// Render explicitly; there are no package-level plotting defaults to mutate.
type Theme struct {
	Font         font.Font // typeface; Size is ignored
	FontSize     vg.Length // tick labels, legend, point labels
	TitleSize    vg.Length
	LabelSize    vg.Length // axis titles
	LineWidth    vg.Length
	PointRadius  vg.Length
	OutlineWidth vg.Length // country borders
	Background   color.Color
	Grid         bool
	GridColor    color.Color
	Legend       LegendPosition
	// MapLegend overrides Legend for map geometries.
	MapLegend    LegendPosition
	FacetColumns int
	FacetPadding vg.Length
}

// DefaultTheme returns the paper's house style: sans-serif, 9pt text, thin
// lines, light horizontal grid.
func DefaultTheme() Theme {
	return Theme{
		Font:         font.Font{Typeface: "Liberation", Variant: "Sans"},
		FontSize:     vg.Points(8),
		TitleSize:    vg.Points(11),
		LabelSize:    vg.Points(9),
		LineWidth:    vg.Points(1.25),
		PointRadius:  vg.Points(2.5),
		OutlineWidth: vg.Points(0.25),
		Background:   color.White,
		Grid:         true,
		GridColor:    color.Gray{Y: 0xe0},
		Legend:       LegendTopRight,
		MapLegend:    LegendBottomLeft,
		FacetColumns: 3,
		FacetPadding: vg.Points(6),
	}
}

func (t Theme) font(size vg.Length) font.Font {
	return font.From(t.Font, size)
}

// newPlot creates a plot styled by the theme.
func (t Theme) newPlot() *plot.Plot {
	p := plot.New()
	p.BackgroundColor = t.Background

	p.Title.TextStyle.Font = t.font(t.TitleSize)
	p.Title.Padding = vg.Points(4)
	p.X.Label.TextStyle.Font = t.font(t.LabelSize)
	p.Y.Label.TextStyle.Font = t.font(t.LabelSize)
	p.X.Tick.Label.Font = t.font(t.FontSize)
	p.Y.Tick.Label.Font = t.font(t.FontSize)
	p.Legend.TextStyle.Font = t.font(t.FontSize)
	p.Legend.ThumbnailWidth = vg.Points(14)
	t.placeLegend(p, t.Legend)
	return p
}

func (t Theme) placeLegend(p *plot.Plot, pos LegendPosition) {
	switch pos {
	case LegendTopLeft:
		p.Legend.Top, p.Legend.Left = true, true
	case LegendBottomRight:
		p.Legend.Top, p.Legend.Left = false, false
	case LegendBottomLeft:
		p.Legend.Top, p.Legend.Left = false, true
	default:
		p.Legend.Top, p.Legend.Left = true, false
	}
}

func (t Theme) grid() *plotter.Grid {
	g := plotter.NewGrid()
	g.Vertical.Color = nil
	g.Horizontal.Color = t.GridColor
	g.Horizontal.Width = vg.Points(0.5)
	return g
}

func (t Theme) lineStyle(c color.Color, dashes []vg.Length) draw.LineStyle {
	return draw.LineStyle{Color: c, Width: t.LineWidth, Dashes: dashes}
}

func (t Theme) titleStyle(p *plot.Plot) draw.TextStyle {
	sty := p.Title.TextStyle
	sty.Font = t.font(t.TitleSize)
	return sty
}

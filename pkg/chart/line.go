package chart

import (
	"image/color"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/style"
)

// lineSeries is one named run of (x, y) values.
type lineSeries struct {
	name string
	x, y *dataset.Column
	rows []int
}

// seriesFor resolves the series of a line chart over the given rows.
func (r *renderer) seriesFor(rows []int) ([]lineSeries, error) {
	x, err := r.table.Numeric(r.enc.X)
	if err != nil {
		return nil, err
	}

	if len(r.enc.Series) > 0 {
		out := make([]lineSeries, len(r.enc.Series))
		for i, s := range r.enc.Series {
			y, err := r.table.Numeric(s.Column)
			if err != nil {
				return nil, err
			}
			name := s.Label
			if name == "" {
				name = s.Column
			}
			out[i] = lineSeries{name: name, x: x, y: y, rows: rows}
		}
		return out, nil
	}

	y, err := r.table.Numeric(r.enc.Y)
	if err != nil {
		return nil, err
	}
	if r.enc.Group == "" {
		return []lineSeries{{name: r.enc.Y, x: x, y: y, rows: rows}}, nil
	}
	g, err := r.table.Column(r.enc.Group)
	if err != nil {
		return nil, err
	}
	// Levels come from the whole table so every facet colors a group alike.
	all := make([]int, r.table.Len())
	for i := range all {
		all[i] = i
	}
	levels := r.levels(g, all)
	out := make([]lineSeries, len(levels))
	for i, l := range levels {
		out[i] = lineSeries{name: l, x: x, y: y}
	}
	for _, i := range rows {
		k, ok := g.Key(i)
		if !ok {
			continue
		}
		if j := slices.Index(levels, k); j >= 0 {
			out[j].rows = append(out[j].rows, i)
		}
	}
	return out, nil
}

// runs splits a series at null values so gaps stay visible, sorted by x.
func (s lineSeries) runs() []plotter.XYs {
	type pt struct {
		x, y float64
		ok   bool
	}
	pts := make([]pt, 0, len(s.rows))
	for _, i := range s.rows {
		x, okX := s.x.Float(i)
		if !okX {
			continue
		}
		y, okY := s.y.Float(i)
		pts = append(pts, pt{x, y, okY})
	}
	slices.SortStableFunc(pts, func(a, b pt) int {
		switch {
		case a.x < b.x:
			return -1
		case a.x > b.x:
			return 1
		}
		return 0
	})

	var out []plotter.XYs
	var cur plotter.XYs
	for _, p := range pts {
		if !p.ok {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: p.x, Y: p.y})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func (r *renderer) line(rows []int, p *plot.Plot, legend bool) error {
	series, err := r.seriesFor(rows)
	if err != nil {
		return err
	}
	colors := r.binding.Categorical(len(series))
	legend = legend && len(series) > 1
	if legend && r.enc.LegendTitle != "" {
		p.Legend.Add(r.enc.LegendTitle)
	}

	for i, s := range series {
		ls := r.theme.lineStyle(colors[i], r.binding.Dashes(i))
		glyph := r.glyph(colors[i], i)
		var thumbs []plot.Thumbnailer
		for _, run := range s.runs() {
			l, err := plotter.NewLine(run)
			if err != nil {
				return err
			}
			l.LineStyle = ls
			sc, err := plotter.NewScatter(run)
			if err != nil {
				return err
			}
			sc.GlyphStyle = glyph
			p.Add(l, sc)
			if thumbs == nil {
				thumbs = []plot.Thumbnailer{l, sc}
			}
		}
		if legend && thumbs != nil {
			p.Legend.Add(s.name, thumbs...)
		}
	}

	p.X.Tick.Marker = tickerFor(r.enc.XFormat)
	p.Y.Tick.Marker = tickerFor(r.enc.YFormat)
	return nil
}

var glyphShapes = []draw.GlyphDrawer{draw.CircleGlyph{}, draw.SquareGlyph{}, draw.TriangleGlyph{}, draw.PyramidGlyph{}}

// glyph returns the point mark of series i. Grayscale series alternate
// shapes as well as dashes.
func (r *renderer) glyph(c color.Color, i int) draw.GlyphStyle {
	shape := glyphShapes[0]
	if r.binding.Variant() == style.Grayscale {
		shape = glyphShapes[i%len(glyphShapes)]
	}
	return draw.GlyphStyle{Color: c, Radius: r.theme.PointRadius, Shape: shape}
}

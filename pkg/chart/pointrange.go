package chart

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/matzehuels/paperfigs/pkg/dataset"
)

// rangePoint is one point-range mark.
type rangePoint struct {
	x, y, lo, hi float64
}

func (p rangePoint) Len() int                      { return 1 }
func (p rangePoint) XY(int) (float64, float64)     { return p.x, p.y }
func (p rangePoint) YError(int) (float64, float64) { return p.y - p.lo, p.hi - p.y }

// xPositions maps rows to x values. Text columns become category positions
// 0..n-1 and their levels are returned for the axis labels.
func (r *renderer) xPositions(rows []int) (pos map[int]float64, levels []string, err error) {
	col, err := r.table.Column(r.enc.X)
	if err != nil {
		return nil, nil, err
	}
	pos = make(map[int]float64, len(rows))
	if col.Kind().Numeric() {
		for _, i := range rows {
			if v, ok := col.Float(i); ok {
				pos[i] = v
			}
		}
		return pos, nil, nil
	}

	all := make([]int, r.table.Len())
	for i := range all {
		all[i] = i
	}
	levels = r.levels(col, all)
	index := make(map[string]int, len(levels))
	for i, l := range levels {
		index[l] = i
	}
	for _, i := range rows {
		k, ok := col.Key(i)
		if !ok {
			continue
		}
		if j, found := index[k]; found {
			pos[i] = float64(j)
		}
	}
	return pos, levels, nil
}

func (r *renderer) pointRange(rows []int, p *plot.Plot, legend bool) error {
	xs, xLevels, err := r.xPositions(rows)
	if err != nil {
		return err
	}
	y, err := r.table.Numeric(r.enc.Y)
	if err != nil {
		return err
	}
	var lo, hi *dataset.Column
	if r.enc.YMin != "" {
		if lo, err = r.table.Numeric(r.enc.YMin); err != nil {
			return err
		}
	}
	if r.enc.YMax != "" {
		if hi, err = r.table.Numeric(r.enc.YMax); err != nil {
			return err
		}
	}

	var group *dataset.Column
	var groupLevels []string
	if r.enc.Group != "" {
		if group, err = r.table.Column(r.enc.Group); err != nil {
			return err
		}
		all := make([]int, r.table.Len())
		for i := range all {
			all[i] = i
		}
		groupLevels = r.levels(group, all)
	}
	fill := r.binding.Categorical(1)[0]

	// A group that repeats the x categories needs no legend.
	legend = legend && group != nil && r.enc.Group != r.enc.X
	thumbs := map[string]plot.Thumbnailer{}

	for _, i := range rows {
		x, okX := xs[i]
		v, okY := y.Float(i)
		if !okX || !okY {
			continue
		}
		mark := rangePoint{x: x, y: v, lo: min(0, v), hi: max(0, v)}
		if lo != nil {
			if l, ok := lo.Float(i); ok {
				mark.lo = l
			}
		}
		if hi != nil {
			if h, ok := hi.Float(i); ok {
				mark.hi = h
			}
		}

		c := fill
		key := ""
		if group != nil {
			key, _ = group.Key(i)
			var werr error
			if c, werr = r.binding.Level(groupLevels, key); werr != nil {
				r.warn(werr)
			}
		}

		bars, err := plotter.NewYErrorBars(mark)
		if err != nil {
			return err
		}
		bars.LineStyle = r.theme.lineStyle(c, nil)
		bars.CapWidth = 0
		pt, err := plotter.NewScatter(mark)
		if err != nil {
			return err
		}
		pt.GlyphStyle = r.glyph(c, 0)
		pt.GlyphStyle.Radius = r.theme.PointRadius * 1.4
		p.Add(bars, pt)

		if _, seen := thumbs[key]; key != "" && !seen {
			thumbs[key] = pt
		}
	}

	if legend {
		if r.enc.LegendTitle != "" {
			p.Legend.Add(r.enc.LegendTitle)
		}
		for _, l := range groupLevels {
			if t, ok := thumbs[l]; ok {
				p.Legend.Add(l, t)
			}
		}
	}

	if xLevels != nil {
		p.X.Tick.Marker = categoryTicks(xLevels)
		p.X.Min, p.X.Max = -0.5, float64(len(xLevels))-0.5
	} else {
		p.X.Tick.Marker = tickerFor(r.enc.XFormat)
	}
	p.Y.Tick.Marker = tickerFor(r.enc.YFormat)
	return nil
}

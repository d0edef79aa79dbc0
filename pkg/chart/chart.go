package chart

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/style"
)

// Chart is a rendered figure, ready to be drawn on any canvas.
type Chart struct {
	title    string
	panels   []*plot.Plot
	cols     int
	theme    Theme
	keepAR   bool
	warnings []error
}

// Render builds a chart. The table is only read.
func Render(t *dataset.Dataset, enc Encoding, b *style.Binding, theme Theme) (*Chart, error) {
	if err := enc.Validate(); err != nil {
		return nil, err
	}
	r := &renderer{table: t, enc: enc, binding: b, theme: theme}

	var err error
	switch enc.Geometry {
	case Line:
		err = r.facetted(r.line)
	case PointRange:
		err = r.facetted(r.pointRange)
	case Choropleth:
		err = r.choropleth()
	case LabeledPoint:
		err = r.labeledPoints()
	}
	if err != nil {
		return nil, err
	}

	cols := max(theme.FacetColumns, 1)
	if len(r.panels) < cols {
		cols = len(r.panels)
	}
	return &Chart{
		title:    enc.Title,
		panels:   r.panels,
		cols:     cols,
		theme:    theme,
		keepAR:   r.keepAspect,
		warnings: r.warnings,
	}, nil
}

// Warnings returns non-fatal problems found while rendering, such as
// category values without a palette entry.
func (c *Chart) Warnings() []error { return c.warnings }

// Panels returns the number of facet panels.
func (c *Chart) Panels() int { return len(c.panels) }

// Draw draws the chart onto dc.
func (c *Chart) Draw(dc draw.Canvas) {
	if len(c.panels) == 1 {
		p := c.panels[0]
		if c.keepAR {
			// Fit a copy so drawing at another size starts from the data range.
			fitted := *p
			fitAspect(&fitted, dc)
			p = &fitted
		}
		p.Draw(dc)
		return
	}

	dc.SetColor(c.theme.Background)
	dc.Fill(dc.Rectangle.Path())

	if c.title != "" {
		sty := c.theme.titleStyle(c.panels[0])
		top := vg.Point{X: dc.Center().X, Y: dc.Max.Y}
		dc.FillText(sty, top, c.title)
		dc = draw.Crop(dc, 0, 0, 0, -(sty.Height(c.title) + vg.Points(4)))
	}

	rows := (len(c.panels) + c.cols - 1) / c.cols
	grid := make([][]*plot.Plot, rows)
	for r := range rows {
		grid[r] = make([]*plot.Plot, c.cols)
		for col := range c.cols {
			if i := r*c.cols + col; i < len(c.panels) {
				grid[r][col] = c.panels[i]
			}
		}
	}
	tiles := draw.Tiles{
		Rows: rows, Cols: c.cols,
		PadX: c.theme.FacetPadding, PadY: c.theme.FacetPadding,
	}
	canvases := plot.Align(grid, tiles, dc)
	for r := range rows {
		for col := range c.cols {
			if p := grid[r][col]; p != nil {
				p.Draw(canvases[r][col])
			}
		}
	}
}

// fitAspect widens the shorter axis range so one data unit has the same
// length on both axes.
func fitAspect(p *plot.Plot, dc draw.Canvas) {
	da := p.DataCanvas(dc)
	w, h := float64(da.Max.X-da.Min.X), float64(da.Max.Y-da.Min.Y)
	dx, dy := p.X.Max-p.X.Min, p.Y.Max-p.Y.Min
	if w <= 0 || h <= 0 || dx <= 0 || dy <= 0 {
		return
	}
	if dx/dy > w/h {
		grow := dx*h/w - dy
		p.Y.Min -= grow / 2
		p.Y.Max += grow / 2
	} else {
		grow := dy*w/h - dx
		p.X.Min -= grow / 2
		p.X.Max += grow / 2
	}
}

// renderer carries the inputs of one Render call.
type renderer struct {
	table      *dataset.Dataset
	enc        Encoding
	binding    *style.Binding
	theme      Theme
	panels     []*plot.Plot
	keepAspect bool
	warnings   []error
}

func (r *renderer) warn(err error) {
	r.warnings = append(r.warnings, err)
}

// facetted runs build once per facet value, or once for the whole table.
func (r *renderer) facetted(build func(rows []int, p *plot.Plot, legend bool) error) error {
	groups, names, err := r.facets()
	if err != nil {
		return err
	}
	for i, rows := range groups {
		p := r.theme.newPlot()
		if r.theme.Grid {
			p.Add(r.theme.grid())
		}
		if names == nil {
			p.Title.Text = r.enc.Title
		} else {
			p.Title.Text = names[i]
			p.Title.TextStyle.Font = r.theme.font(r.theme.LabelSize)
		}
		p.X.Label.Text = r.enc.XTitle
		p.Y.Label.Text = r.enc.YTitle
		if err := build(rows, p, i == 0 && r.theme.Legend != LegendNone); err != nil {
			return err
		}
		r.panels = append(r.panels, p)
	}
	r.shareY()
	return nil
}

// facets splits row indices by the facet column in first-seen order. names
// is nil when the chart has no facet.
func (r *renderer) facets() (groups [][]int, names []string, err error) {
	all := make([]int, r.table.Len())
	for i := range all {
		all[i] = i
	}
	if r.enc.Facet == "" {
		return [][]int{all}, nil, nil
	}
	col, err := r.table.Column(r.enc.Facet)
	if err != nil {
		return nil, nil, err
	}
	index := map[string]int{}
	for _, i := range all {
		k, ok := col.Key(i)
		if !ok {
			continue
		}
		g, seen := index[k]
		if !seen {
			g = len(groups)
			index[k] = g
			groups = append(groups, nil)
			names = append(names, k)
		}
		groups[g] = append(groups[g], i)
	}
	return groups, names, nil
}

// shareY gives every panel the union Y range and applies the zero baseline.
func (r *renderer) shareY() {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range r.panels {
		lo, hi = math.Min(lo, p.Y.Min), math.Max(hi, p.Y.Max)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return
	}
	if r.enc.YFormat.zeroBased() {
		lo, hi = math.Min(lo, 0), math.Max(hi, 0)
	}
	if lo == hi {
		hi = lo + 1
	}
	for _, p := range r.panels {
		p.Y.Min, p.Y.Max = lo, hi
	}
}

// levels returns the ordered values of a text column: explicit levels first,
// then declared category levels, then first-seen order.
func (r *renderer) levels(col *dataset.Column, rows []int) []string {
	if len(r.enc.Levels) > 0 && col.Name() == r.enc.Group {
		return r.enc.Levels
	}
	if l := col.Levels(); len(l) > 0 {
		return l
	}
	var out []string
	seen := map[string]bool{}
	for _, i := range rows {
		if k, ok := col.Key(i); ok && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

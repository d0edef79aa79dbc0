package chart

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matzehuels/paperfigs/pkg/chart/repel"
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/geo"
)

var projection geo.Projection = geo.EqualEarth{}

var outlineColor = color.Gray{Y: 0x70}

// swatch is a filled legend square.
type swatch struct {
	fill color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	r := c.Rectangle
	c.FillPolygon(s.fill, []vg.Point{r.Min, {X: r.Min.X, Y: r.Max.Y}, r.Max, {X: r.Max.X, Y: r.Min.Y}})
	c.StrokeLines(draw.LineStyle{Color: outlineColor, Width: vg.Points(0.25)},
		[]vg.Point{r.Min, {X: r.Min.X, Y: r.Max.Y}, r.Max, {X: r.Max.X, Y: r.Min.Y}, r.Min})
}

// mapPlot returns a plot with hidden axes for the projected base map.
func (r *renderer) mapPlot() *plot.Plot {
	p := r.theme.newPlot()
	p.HideAxes()
	p.X.Padding, p.Y.Padding = 0, 0
	p.Title.Text = r.enc.Title
	r.theme.placeLegend(p, r.theme.MapLegend)
	return p
}

func (r *renderer) features() []geo.Feature {
	return geo.ProjectFeatures(geo.Exclude(r.enc.Basemap, r.enc.exclude()...), projection)
}

func (r *renderer) country(f geo.Feature, fill color.Color) (*plotter.Polygon, error) {
	rings := make([]plotter.XYer, 0, len(f.Rings))
	for _, ring := range f.Rings {
		if len(ring) < 3 {
			continue
		}
		xys := make(plotter.XYs, len(ring))
		for i, pt := range ring {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		rings = append(rings, xys)
	}
	if len(rings) == 0 {
		return nil, nil
	}
	poly, err := plotter.NewPolygon(rings...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "country %s geometry", f.Name)
	}
	poly.Color = fill
	poly.LineStyle = draw.LineStyle{Color: outlineColor, Width: r.theme.OutlineWidth}
	return poly, nil
}

func (r *renderer) choropleth() error {
	codes, err := r.table.Text(r.enc.Code)
	if err != nil {
		return err
	}
	groups, err := r.table.Column(r.enc.Group)
	if err != nil {
		return err
	}
	all := make([]int, r.table.Len())
	for i := range all {
		all[i] = i
	}
	levels := r.levels(groups, all)

	values := make(map[string]string, r.table.Len())
	for _, i := range all {
		code, okC := codes.Str(i)
		v, okV := groups.Key(i)
		if !okC || !okV {
			continue
		}
		if _, dup := values[code]; !dup {
			values[code] = v
		}
	}

	p := r.mapPlot()
	features := r.features()
	drawn := make(map[string]bool, len(features))
	unmapped := map[string]bool{}
	for _, f := range features {
		fill := r.binding.Missing()
		if v, ok := values[f.Code]; f.HasCode && ok {
			c, err := r.binding.Level(levels, v)
			if err != nil && !unmapped[v] {
				unmapped[v] = true
				r.warn(err)
			}
			fill = c
			drawn[f.Code] = true
		}
		poly, err := r.country(f, fill)
		if err != nil {
			return err
		}
		if poly != nil {
			p.Add(poly)
		}
	}

	excluded := make(map[string]bool)
	for _, c := range r.enc.exclude() {
		excluded[c] = true
	}
	noGeometry := map[string]bool{}
	for _, i := range all {
		code, ok := codes.Str(i)
		if ok && !drawn[code] && !excluded[code] && !noGeometry[code] {
			noGeometry[code] = true
			r.warn(errors.New(errors.ErrCodeUnmappedCategory, "%s: no map geometry for %q", r.table.Name(), code))
		}
	}

	if r.theme.MapLegend != LegendNone {
		if r.enc.LegendTitle != "" {
			p.Legend.Add(r.enc.LegendTitle)
		}
		for _, l := range levels {
			c, _ := r.binding.Level(levels, l)
			p.Legend.Add(l, swatch{fill: c})
		}
		p.Legend.Add(r.enc.missingLabel(), swatch{fill: r.binding.Missing()})
	}

	r.keepAspect = true
	r.panels = []*plot.Plot{p}
	return nil
}

func (r *renderer) labeledPoints() error {
	lon, err := r.table.Numeric(r.enc.Lon)
	if err != nil {
		return err
	}
	lat, err := r.table.Numeric(r.enc.Lat)
	if err != nil {
		return err
	}
	names, err := r.table.Text(r.enc.Label)
	if err != nil {
		return err
	}

	p := r.mapPlot()
	for _, f := range r.features() {
		poly, err := r.country(f, r.binding.Missing())
		if err != nil {
			return err
		}
		if poly != nil {
			p.Add(poly)
		}
	}

	var (
		groupLevels []string
		groupKeys   []string
	)
	if r.enc.Group != "" {
		g, err := r.table.Column(r.enc.Group)
		if err != nil {
			return err
		}
		all := make([]int, r.table.Len())
		for i := range all {
			all[i] = i
		}
		groupLevels = r.levels(g, all)
		groupKeys = make([]string, r.table.Len())
		for i := range groupKeys {
			groupKeys[i], _ = g.Key(i)
		}
	}

	layer := &labelLayer{
		seed:   r.enc.Seed,
		radius: r.theme.PointRadius,
		style: draw.TextStyle{
			Color:   r.binding.Ink(),
			Font:    r.theme.font(r.theme.FontSize),
			Handler: p.TextHandler,
			XAlign:  draw.XCenter,
			YAlign:  draw.YCenter,
		},
		leader: draw.LineStyle{Color: r.binding.Ink(), Width: vg.Points(0.4)},
	}
	fill := r.binding.Categorical(1)[0]
	thumbs := map[string]plot.Thumbnailer{}
	for i := range r.table.Len() {
		x, okX := lon.Float(i)
		y, okY := lat.Float(i)
		name, okN := names.Str(i)
		if !okX || !okY || !okN {
			continue
		}
		pt := geo.ProjectPoint(geo.Point{X: x, Y: y}, projection)

		c := fill
		if groupKeys != nil {
			var werr error
			if c, werr = r.binding.Level(groupLevels, groupKeys[i]); werr != nil {
				r.warn(werr)
			}
		}
		sc, err := plotter.NewScatter(plotter.XYs{{X: pt.X, Y: pt.Y}})
		if err != nil {
			return err
		}
		sc.GlyphStyle = draw.GlyphStyle{Color: c, Radius: r.theme.PointRadius, Shape: draw.CircleGlyph{}}
		p.Add(sc)
		if groupKeys != nil {
			if _, seen := thumbs[groupKeys[i]]; !seen {
				thumbs[groupKeys[i]] = sc
			}
		}
		layer.points = append(layer.points, pt)
		layer.texts = append(layer.texts, name)
	}
	p.Add(layer)

	if groupKeys != nil && r.theme.MapLegend != LegendNone {
		if r.enc.LegendTitle != "" {
			p.Legend.Add(r.enc.LegendTitle)
		}
		for _, l := range groupLevels {
			if t, ok := thumbs[l]; ok {
				p.Legend.Add(l, t)
			}
		}
	}

	r.keepAspect = true
	r.panels = []*plot.Plot{p}
	return nil
}

// labelLayer draws repelled labels beside projected points. Placement runs
// at draw time because label sizes are only known in canvas units.
type labelLayer struct {
	points []geo.Point
	texts  []string
	seed   uint64
	radius vg.Length
	style  draw.TextStyle
	leader draw.LineStyle
}

// place returns the label centers for the given data canvas.
func (l *labelLayer) place(c draw.Canvas, plt *plot.Plot) []vg.Point {
	trX, trY := plt.Transforms(&c)
	labels := make([]repel.Label, len(l.points))
	for i, pt := range l.points {
		labels[i] = repel.Label{
			Anchor: repel.Point{X: float64(trX(pt.X)), Y: float64(trY(pt.Y))},
			Width:  float64(l.style.Width(l.texts[i])),
			Height: float64(l.style.Height(l.texts[i])),
		}
	}
	centers := repel.Layout(labels, repel.Options{
		Seed:        l.seed,
		PointRadius: float64(l.radius),
		Bounds: repel.Box{
			MinX: float64(c.Min.X), MinY: float64(c.Min.Y),
			MaxX: float64(c.Max.X), MaxY: float64(c.Max.Y),
		},
	})
	out := make([]vg.Point, len(centers))
	for i, p := range centers {
		out[i] = vg.Point{X: vg.Length(p.X), Y: vg.Length(p.Y)}
	}
	return out
}

func (l *labelLayer) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for i, center := range l.place(c, plt) {
		anchor := vg.Point{X: trX(l.points[i].X), Y: trY(l.points[i].Y)}
		w := l.style.Width(l.texts[i])
		h := l.style.Height(l.texts[i])
		// Leader lines only for labels pushed clear of their point.
		end := nearestEdge(anchor, center, w, h)
		if dist(anchor, end) > 2*l.radius {
			c.StrokeLine2(l.leader, anchor.X, anchor.Y, end.X, end.Y)
		}
		c.FillText(l.style, center, l.texts[i])
	}
}

// nearestEdge clamps p onto the label box centered at center.
func nearestEdge(p, center vg.Point, w, h vg.Length) vg.Point {
	return vg.Point{
		X: max(center.X-w/2, min(center.X+w/2, p.X)),
		Y: max(center.Y-h/2, min(center.Y+h/2, p.Y)),
	}
}

func dist(a, b vg.Point) vg.Length {
	d := a.Sub(b)
	return vg.Length(math.Hypot(float64(d.X), float64(d.Y)))
}

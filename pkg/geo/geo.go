// Package geo holds country geometry and the map projection used by the
// choropleth and labeled-point charts.
//
// All maps are drawn in one fixed projection, [EqualEarth], so country areas
// stay comparable across figures. Coordinates enter as longitude/latitude in
// degrees and leave as unitless projected x/y.
package geo

import (
	"math"
	"slices"
)

// Point is a coordinate pair: lon/lat degrees before projection, x/y after.
type Point struct {
	X, Y float64
}

// Ring is a closed polygon boundary.
type Ring []Point

// Feature is one country outline.
type Feature struct {
	Code    string // ISO 3166-1 alpha-3, empty when HasCode is false
	HasCode bool
	Name    string
	Rings   []Ring
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyBounds returns bounds that any Extend call will replace.
func EmptyBounds() Bounds {
	return Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// Extend grows b to include p.
func (b Bounds) Extend(p Point) Bounds {
	return Bounds{
		MinX: min(b.MinX, p.X), MinY: min(b.MinY, p.Y),
		MaxX: max(b.MaxX, p.X), MaxY: max(b.MaxY, p.Y),
	}
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool { return b.MinX > b.MaxX }

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// FeatureBounds returns the bounds of all rings of all features.
func FeatureBounds(features []Feature) Bounds {
	b := EmptyBounds()
	for _, f := range features {
		for _, r := range f.Rings {
			for _, p := range r {
				b = b.Extend(p)
			}
		}
	}
	return b
}

// Exclude drops features whose code is in codes, e.g. "ATA" for Antarctica.
func Exclude(features []Feature, codes ...string) []Feature {
	if len(codes) == 0 {
		return features
	}
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		if f.HasCode && slices.Contains(codes, f.Code) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Area returns the signed shoelace area of r.
func (r Ring) Area() float64 {
	var a float64
	for i := range r {
		j := (i + 1) % len(r)
		a += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return a / 2
}

// Centroid returns the area centroid of r, falling back to the vertex mean
// for degenerate rings.
func (r Ring) Centroid() Point {
	a := r.Area()
	if len(r) == 0 {
		return Point{}
	}
	if math.Abs(a) < 1e-12 {
		var c Point
		for _, p := range r {
			c.X += p.X
			c.Y += p.Y
		}
		n := float64(len(r))
		return Point{c.X / n, c.Y / n}
	}
	var cx, cy float64
	for i := range r {
		j := (i + 1) % len(r)
		cross := r[i].X*r[j].Y - r[j].X*r[i].Y
		cx += (r[i].X + r[j].X) * cross
		cy += (r[i].Y + r[j].Y) * cross
	}
	return Point{cx / (6 * a), cy / (6 * a)}
}

// LabelPoint returns the centroid of the feature's largest ring, which keeps
// labels for countries with overseas territories on the mainland.
func (f Feature) LabelPoint() (Point, bool) {
	best, bestArea := -1, 0.0
	for i, r := range f.Rings {
		if a := math.Abs(r.Area()); best < 0 || a > bestArea {
			best, bestArea = i, a
		}
	}
	if best < 0 {
		return Point{}, false
	}
	return f.Rings[best].Centroid(), true
}

// Index returns features keyed by code. Features without a code are skipped.
func Index(features []Feature) map[string]Feature {
	idx := make(map[string]Feature, len(features))
	for _, f := range features {
		if f.HasCode {
			idx[f.Code] = f
		}
	}
	return idx
}

package geo

import "math"

// Projection maps longitude/latitude in degrees to planar coordinates.
type Projection interface {
	Name() string
	Project(lon, lat float64) (x, y float64)
}

// Equal Earth polynomial coefficients (Šavrič, Patterson & Jenny, 2018).
const (
	eeA1 = 1.340264
	eeA2 = -0.081106
	eeA3 = 0.000893
	eeA4 = 0.003796
)

var eeM = math.Sqrt(3) / 2

// EqualEarth is the equal-area Equal Earth projection on the unit sphere.
type EqualEarth struct{}

// Name returns the projection name.
func (EqualEarth) Name() string { return "equal-earth" }

// Project implements Projection.
func (EqualEarth) Project(lon, lat float64) (float64, float64) {
	lambda := lon * math.Pi / 180
	phi := max(-90, min(90, lat)) * math.Pi / 180

	theta := math.Asin(eeM * math.Sin(phi))
	t2 := theta * theta
	t6 := t2 * t2 * t2

	x := lambda * math.Cos(theta) / (eeM * (eeA1 + 3*eeA2*t2 + t6*(7*eeA3+9*eeA4*t2)))
	y := theta * (eeA1 + eeA2*t2 + t6*(eeA3+eeA4*t2))
	return x, y
}

// ProjectFeatures returns projected copies of features.
func ProjectFeatures(features []Feature, p Projection) []Feature {
	out := make([]Feature, len(features))
	for i, f := range features {
		rings := make([]Ring, len(f.Rings))
		for j, r := range f.Rings {
			pr := make(Ring, len(r))
			for k, pt := range r {
				pr[k].X, pr[k].Y = p.Project(pt.X, pt.Y)
			}
			rings[j] = pr
		}
		f.Rings = rings
		out[i] = f
	}
	return out
}

// ProjectPoint projects a single lon/lat point.
func ProjectPoint(pt Point, p Projection) Point {
	x, y := p.Project(pt.X, pt.Y)
	return Point{x, y}
}

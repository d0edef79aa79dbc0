package geo

import (
	"math"
	"testing"
)

func TestEqualEarthOrigin(t *testing.T) {
	x, y := EqualEarth{}.Project(0, 0)
	if x != 0 || y != 0 {
		t.Errorf("Project(0, 0) = (%v, %v), want (0, 0)", x, y)
	}
}

func TestEqualEarthSymmetry(t *testing.T) {
	p := EqualEarth{}
	x1, y1 := p.Project(45, 30)
	x2, y2 := p.Project(-45, -30)
	if math.Abs(x1+x2) > 1e-12 || math.Abs(y1+y2) > 1e-12 {
		t.Errorf("projection not symmetric: (%v, %v) vs (%v, %v)", x1, y1, x2, y2)
	}
}

func TestEqualEarthExtent(t *testing.T) {
	p := EqualEarth{}
	x, _ := p.Project(180, 0)
	if math.Abs(x-2.7066) > 1e-3 {
		t.Errorf("x at antimeridian = %v, want ~2.7066", x)
	}
	_, y := p.Project(0, 90)
	if math.Abs(y-1.3173) > 1e-3 {
		t.Errorf("y at pole = %v, want ~1.3173", y)
	}
}

func cellArea(p Projection, lon, lat, size float64) float64 {
	corners := []Point{{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}}
	r := make(Ring, len(corners))
	for i, c := range corners {
		r[i] = ProjectPoint(c, p)
	}
	return math.Abs(r.Area())
}

func TestEqualEarthPreservesArea(t *testing.T) {
	p := EqualEarth{}
	rad := math.Pi / 180

	equator := cellArea(p, 10, 0, 1)
	north := cellArea(p, 10, 60, 1)

	// Sphere area of a lon/lat cell is proportional to sin(lat2) - sin(lat1).
	want := (math.Sin(61*rad) - math.Sin(60*rad)) / (math.Sin(1*rad) - math.Sin(0))
	got := north / equator
	if math.Abs(got-want)/want > 1e-3 {
		t.Errorf("area ratio = %v, want %v", got, want)
	}
}

func TestExclude(t *testing.T) {
	features := []Feature{
		{Code: "ATA", HasCode: true, Name: "Antarctica"},
		{Code: "KEN", HasCode: true, Name: "Kenya"},
		{Name: "N. Cyprus"},
	}
	got := Exclude(features, "ATA")
	if len(got) != 2 {
		t.Fatalf("Exclude returned %d features, want 2", len(got))
	}
	for _, f := range got {
		if f.Code == "ATA" {
			t.Error("Antarctica should be excluded")
		}
	}
}

func TestRingCentroid(t *testing.T) {
	square := Ring{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	c := square.Centroid()
	if math.Abs(c.X-1) > 1e-12 || math.Abs(c.Y-1) > 1e-12 {
		t.Errorf("Centroid() = %+v, want (1, 1)", c)
	}
	if a := square.Area(); a != 4 {
		t.Errorf("Area() = %v, want 4", a)
	}
}

func TestLabelPointUsesLargestRing(t *testing.T) {
	f := Feature{Rings: []Ring{
		{{10, 10}, {10.5, 10}, {10.5, 10.5}, {10, 10.5}},
		{{0, 0}, {4, 0}, {4, 4}, {0, 4}},
	}}
	p, ok := f.LabelPoint()
	if !ok {
		t.Fatal("LabelPoint() ok = false")
	}
	if math.Abs(p.X-2) > 1e-9 || math.Abs(p.Y-2) > 1e-9 {
		t.Errorf("LabelPoint() = %+v, want (2, 2)", p)
	}
}

func TestFeatureBounds(t *testing.T) {
	b := FeatureBounds([]Feature{{Rings: []Ring{{{-1, -2}, {3, 4}}}}})
	if b.MinX != -1 || b.MinY != -2 || b.MaxX != 3 || b.MaxY != 4 {
		t.Errorf("FeatureBounds() = %+v", b)
	}
	if !FeatureBounds(nil).Empty() {
		t.Error("bounds of no features should be empty")
	}
}

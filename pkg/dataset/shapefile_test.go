package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"

	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/figures/figurestest"
)

type testCountry struct {
	iso, adm, name string
	rings          [][]shp.Point
}

func square(x, y, size float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + size}, {X: x + size, Y: y + size}, {X: x + size, Y: y}, {X: x, Y: y}}
}

func writeShapefile(t *testing.T, fields []shp.Field, countries []testCountry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "countries.shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}
	if err := w.SetFields(fields); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	for _, c := range countries {
		poly := shp.Polygon(*shp.NewPolyLine(c.rings))
		n := int(w.Write(&poly))
		values := []string{c.iso, c.name, c.adm}
		for i := range fields {
			if err := w.WriteAttribute(n, i, values[i]); err != nil {
				t.Fatalf("write attribute: %v", err)
			}
		}
	}
	w.Close()
	figurestest.FixDBFName(t, path)
	return path
}

var neFields = []shp.Field{shp.StringField("ISO_A3", 3), shp.StringField("NAME", 40), shp.StringField("ADM0_A3", 3)}

func TestLoadShapefile(t *testing.T) {
	path := writeShapefile(t, neFields, []testCountry{
		{iso: "KEN", adm: "KEN", name: "Kenya", rings: [][]shp.Point{square(34, -4, 8)}},
		{iso: "-99", adm: "FRA", name: "France", rings: [][]shp.Point{square(-4, 42, 10), square(8, 41, 1)}},
		{iso: "-99", adm: "-99", name: "Nowhere", rings: [][]shp.Point{square(0, 0, 1)}},
	})

	if _, err := os.Stat(strings.TrimSuffix(path, ".shp") + ".dbf"); err != nil {
		t.Fatalf("attribute table not written: %v", err)
	}

	features, err := LoadShapefile(path, ShapefileOptions{})
	if err != nil {
		t.Fatalf("LoadShapefile: %v", err)
	}
	if len(features) != 3 {
		t.Fatalf("got %d features, want 3", len(features))
	}

	tests := []struct {
		code    string
		hasCode bool
		name    string
		rings   int
	}{
		{"KEN", true, "Kenya", 1},
		{"FRA", true, "France", 2},
		{"", false, "Nowhere", 1},
	}
	for i, tt := range tests {
		f := features[i]
		if f.Code != tt.code || f.HasCode != tt.hasCode || f.Name != tt.name || len(f.Rings) != tt.rings {
			t.Errorf("feature %d = {%q %v %q rings=%d}, want {%q %v %q rings=%d}",
				i, f.Code, f.HasCode, f.Name, len(f.Rings), tt.code, tt.hasCode, tt.name, tt.rings)
		}
	}
	if got := features[0].Rings[0][2]; got.X != 42 || got.Y != 4 {
		t.Errorf("Kenya vertex = %+v, want {42 4}", got)
	}
}

func TestLoadShapefileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadShapefile(filepath.Join(t.TempDir(), "none.shp"), ShapefileOptions{})
		if !errors.Is(err, errors.ErrCodeDataNotFound) {
			t.Errorf("err = %v, want DATA_NOT_FOUND", err)
		}
	})
	t.Run("missing field", func(t *testing.T) {
		path := writeShapefile(t, []shp.Field{shp.StringField("CODE", 3), shp.StringField("NAME", 40)},
			[]testCountry{{iso: "KEN", name: "Kenya", rings: [][]shp.Point{square(0, 0, 1)}}})
		_, err := LoadShapefile(path, ShapefileOptions{})
		if !errors.Is(err, errors.ErrCodeSchemaMismatch) {
			t.Errorf("err = %v, want SCHEMA_MISMATCH", err)
		}
	})
}

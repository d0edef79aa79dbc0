// Package figurestest writes a small, complete data directory for tests of
// code that runs the figure catalog.
package figurestest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
)

// Files maps CSV file names to their content.
var Files = map[string]string{
	"civicus.csv": `Country,Rating
Kenya,Obstructed
France,Narrowed
Norway,Open
"Côte d'Ivoire",Repressed
Atlantis,Open
`,
	"population.csv": `Country Name,Country Code,Population
Kenya,KEN,55100000
France,FRA,68000000
Norway,NOR,5500000
Cote d'Ivoire,CIV,28900000
`,
	"finances.csv": `Year,Income,Expenses
2015,100,80
2016,120,130
2017,"$1,400",900
`,
	"regional_expenses.csv": `Year,Region,Amount
2015,Africa,30
2015,Europe,70
2016,Africa,60
2016,Europe,40
`,
	"partners.csv": `Year,CSOs,Networks
2015,10,2
2016,14,NA
2017,20,5
`,
	"offices.csv": `City,Country,Longitude,Latitude,Type
Nairobi,Kenya,36.8,-1.3,Headquarters
Paris,France,2.35,48.85,Regional hub
Oslo,Norway,10.75,59.9,Country office
Abidjan,Ivory Coast,-4.0,5.3,Country office
`,
}

// Countries are written to the test shapefile as coarse boxes. Natural
// Earth stores France and Norway with ISO_A3 "-99".
var Countries = []struct {
	ISO, ADM, Name string
	X, Y, W, H     float64
}{
	{"KEN", "KEN", "Kenya", 34, -4.7, 7.9, 9.2},
	{"-99", "FRA", "France", -4.8, 42.3, 13, 8.8},
	{"-99", "NOR", "Norway", 4.6, 57.9, 26, 13},
	{"CIV", "CIV", "Côte d'Ivoire", -8.6, 4.3, 6, 6.4},
	{"ATA", "ATA", "Antarctica", -180, -90, 360, 26},
	{"BRA", "BRA", "Brazil", -74, -34, 39, 39},
}

// ShapefileName is the basemap file the catalog expects.
const ShapefileName = "ne_110m_admin_0_countries.shp"

// WriteDataDir writes every input into a fresh temporary directory and
// returns its path.
func WriteDataDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range Files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	WriteShapefile(t, filepath.Join(dir, ShapefileName))
	return dir
}

// WriteShapefile writes [Countries] to path with ISO_A3, NAME and ADM0_A3
// attributes.
func WriteShapefile(t testing.TB, path string) {
	t.Helper()
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}
	fields := []shp.Field{shp.StringField("ISO_A3", 3), shp.StringField("NAME", 40), shp.StringField("ADM0_A3", 3)}
	if err := w.SetFields(fields); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	for _, c := range Countries {
		ring := []shp.Point{
			{X: c.X, Y: c.Y}, {X: c.X, Y: c.Y + c.H}, {X: c.X + c.W, Y: c.Y + c.H},
			{X: c.X + c.W, Y: c.Y}, {X: c.X, Y: c.Y},
		}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		n := int(w.Write(&poly))
		for i, v := range []string{c.ISO, c.Name, c.ADM} {
			if err := w.WriteAttribute(n, i, v); err != nil {
				t.Fatalf("write attribute: %v", err)
			}
		}
	}
	w.Close()
	FixDBFName(t, path)
}

// FixDBFName renames the attribute table go-shp's writer leaves at
// "<base>dbf" to "<base>.dbf", where the reader looks for it.
func FixDBFName(t testing.TB, path string) {
	t.Helper()
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil && !os.IsNotExist(err) {
		t.Fatalf("rename dbf: %v", err)
	}
	if _, err := os.Stat(base + ".dbf"); err != nil {
		t.Fatalf("attribute table missing: %v", err)
	}
}

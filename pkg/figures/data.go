package figures

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/geo"
	"github.com/matzehuels/paperfigs/pkg/observability"
)

// Input is one file under the data directory.
type Input struct {
	Name string
	File string
	// Schema is nil for the shapefile.
	Schema *dataset.Schema
}

// CivicSpaceRatings are the CIVICUS Monitor ratings from most to least open.
var CivicSpaceRatings = []string{"Open", "Narrowed", "Obstructed", "Repressed", "Closed"}

// OfficeKinds classify office locations.
var OfficeKinds = []string{"Headquarters", "Regional hub", "Country office"}

const (
	civicusInput    = "civicus"
	populationInput = "population"
	financesInput   = "finances"
	regionalInput   = "regional-expenses"
	partnersInput   = "partners"
	officesInput    = "offices"
	countriesInput  = "countries"

	// CountryCodesFile is an optional name→ISO3 table layered over the
	// shapefile's names.
	CountryCodesFile = "country_codes.csv"
)

// Inputs lists every file the catalog reads.
var Inputs = []Input{
	{Name: civicusInput, File: "civicus.csv", Schema: &dataset.Schema{Name: civicusInput, Fields: []dataset.Field{
		{Name: "country", Kind: dataset.KindString, Source: "Country"},
		{Name: "rating", Kind: dataset.KindCategory, Source: "Rating", Levels: CivicSpaceRatings},
	}}},
	{Name: populationInput, File: "population.csv", Schema: &dataset.Schema{Name: populationInput, Fields: []dataset.Field{
		{Name: "country", Kind: dataset.KindString, Source: "Country Name"},
		{Name: "iso3", Kind: dataset.KindString, Source: "Country Code"},
		// Country populations overflow int32 and are summed, so keep floats.
		{Name: "population", Kind: dataset.KindFloat, Source: "Population"},
	}}},
	{Name: financesInput, File: "finances.csv", Schema: &dataset.Schema{Name: financesInput, Fields: []dataset.Field{
		{Name: "year", Kind: dataset.KindInt, Source: "Year"},
		{Name: "income", Kind: dataset.KindFloat, Source: "Income"},
		{Name: "expenses", Kind: dataset.KindFloat, Source: "Expenses"},
	}}},
	{Name: regionalInput, File: "regional_expenses.csv", Schema: &dataset.Schema{Name: regionalInput, Fields: []dataset.Field{
		{Name: "year", Kind: dataset.KindInt, Source: "Year"},
		{Name: "region", Kind: dataset.KindString, Source: "Region"},
		{Name: "amount", Kind: dataset.KindFloat, Source: "Amount"},
	}}},
	{Name: partnersInput, File: "partners.csv", Schema: &dataset.Schema{Name: partnersInput, Fields: []dataset.Field{
		{Name: "year", Kind: dataset.KindInt, Source: "Year"},
		{Name: "csos", Kind: dataset.KindFloat, Source: "CSOs"},
		{Name: "networks", Kind: dataset.KindFloat, Source: "Networks"},
	}}},
	{Name: officesInput, File: "offices.csv", Schema: &dataset.Schema{Name: officesInput, Fields: []dataset.Field{
		{Name: "city", Kind: dataset.KindString, Source: "City"},
		{Name: "country", Kind: dataset.KindString, Source: "Country"},
		{Name: "lon", Kind: dataset.KindFloat, Source: "Longitude"},
		{Name: "lat", Kind: dataset.KindFloat, Source: "Latitude"},
		{Name: "kind", Kind: dataset.KindCategory, Source: "Type", Levels: OfficeKinds, Optional: true},
	}}},
	{Name: countriesInput, File: "ne_110m_admin_0_countries.shp"},
}

// InputByName returns the input with the given name.
func InputByName(name string) (Input, bool) {
	for _, in := range Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Data loads inputs from a directory. Each input is read at most once, even
// when several figures ask for it concurrently, and is shared read-only.
type Data struct {
	dir   string
	group singleflight.Group

	mu      sync.Mutex
	tables  map[string]*dataset.Dataset
	basemap []geo.Feature
	codes   *dataset.CountryCodes
}

// NewData returns a loader rooted at dir.
func NewData(dir string) *Data {
	return &Data{dir: dir, tables: make(map[string]*dataset.Dataset)}
}

// Dir returns the data directory.
func (d *Data) Dir() string { return d.dir }

// Table loads a CSV input by name.
func (d *Data) Table(ctx context.Context, name string) (*dataset.Dataset, error) {
	d.mu.Lock()
	t, ok := d.tables[name]
	d.mu.Unlock()
	if ok {
		return t, nil
	}

	in, ok := InputByName(name)
	if !ok || in.Schema == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown table input %q", name)
	}
	v, err, _ := d.group.Do(name, func() (any, error) {
		start := time.Now()
		observability.Pipeline().OnLoadStart(ctx, name)
		t, err := d.loadCSV(in)
		rows := 0
		if t != nil {
			rows = t.Len()
		}
		observability.Pipeline().OnLoadComplete(ctx, name, rows, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.tables[name] = t
		d.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataset.Dataset), nil
}

func (d *Data) loadCSV(in Input) (*dataset.Dataset, error) {
	if err := errors.ValidateDataPath(in.File); err != nil {
		return nil, err
	}
	return dataset.LoadCSV(filepath.Join(d.dir, in.File), *in.Schema)
}

// Basemap loads the country polygons.
func (d *Data) Basemap(ctx context.Context) ([]geo.Feature, error) {
	d.mu.Lock()
	b := d.basemap
	d.mu.Unlock()
	if b != nil {
		return b, nil
	}

	in, _ := InputByName(countriesInput)
	v, err, _ := d.group.Do(countriesInput, func() (any, error) {
		start := time.Now()
		observability.Pipeline().OnLoadStart(ctx, countriesInput)
		features, err := dataset.LoadShapefile(filepath.Join(d.dir, in.File), dataset.ShapefileOptions{})
		observability.Pipeline().OnLoadComplete(ctx, countriesInput, len(features), time.Since(start), err)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.basemap = features
		d.mu.Unlock()
		return features, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]geo.Feature), nil
}

// CountryCodes returns the name→ISO3 lookup: the built-in aliases, then the
// shapefile's country names, then the optional country_codes.csv.
func (d *Data) CountryCodes(ctx context.Context) (*dataset.CountryCodes, error) {
	d.mu.Lock()
	cc := d.codes
	d.mu.Unlock()
	if cc != nil {
		return cc, nil
	}

	v, err, _ := d.group.Do("country-codes", func() (any, error) {
		features, err := d.Basemap(ctx)
		if err != nil {
			return nil, err
		}
		names := make(map[string]string, len(features))
		for _, f := range features {
			if f.HasCode && f.Name != "" {
				names[f.Name] = f.Code
			}
		}

		path := filepath.Join(d.dir, CountryCodesFile)
		if _, err := os.Stat(path); err == nil {
			ref, err := dataset.LoadCSV(path, dataset.CountryCodeSchema)
			if err != nil {
				return nil, err
			}
			nameCol, _ := ref.Column("name")
			codeCol, _ := ref.Column("iso3")
			for i := range ref.Len() {
				n, okN := nameCol.Str(i)
				c, okC := codeCol.Str(i)
				if okN && okC {
					names[n] = c
				}
			}
		}

		cc := dataset.NewCountryCodes(names)
		d.mu.Lock()
		d.codes = cc
		d.mu.Unlock()
		return cc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataset.CountryCodes), nil
}

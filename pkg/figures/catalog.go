package figures

import (
	"context"
	"slices"

	"github.com/matzehuels/paperfigs/pkg/chart"
	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/style"
	"github.com/matzehuels/paperfigs/pkg/table"
	"github.com/matzehuels/paperfigs/pkg/transform"
)

// DefaultSeed seeds label placement when no seed is configured.
const DefaultSeed = uint64(42)

// Figure is one chart.
type Figure struct {
	Name   string
	Title  string
	Inputs []string

	// Palettes overrides the variant's default ramp for this figure.
	Palettes map[style.Variant]style.PaletteParams

	// Build loads and transforms the figure's data.
	Build func(ctx context.Context, d *Data) (*dataset.Dataset, chart.Encoding, error)
}

// Palette returns the figure's ramp parameters for v.
func (f *Figure) Palette(v style.Variant) style.PaletteParams {
	if p, ok := f.Palettes[v]; ok {
		return p
	}
	return style.DefaultParams(v)
}

// Table is one grid table.
type Table struct {
	Name   string
	Inputs []string
	Hints  table.Hints

	// Formats turns numeric columns into display text.
	Formats map[string]table.Formatter

	// XLSX also writes a spreadsheet.
	XLSX bool

	Build func(ctx context.Context, d *Data) (*dataset.Dataset, error)
}

// Format applies the number formats and lays out the table.
func (t *Table) Format(ds *dataset.Dataset) (table.TextBlock, error) {
	formatted, err := table.ApplyAll(ds, t.Formats)
	if err != nil {
		return table.TextBlock{}, err
	}
	return table.Format(formatted, t.Hints)
}

// Figures is the chart catalog in paper order.
var Figures = []*Figure{
	{
		Name:   "civicus-map",
		Title:  "Civic space ratings",
		Inputs: []string{civicusInput, countriesInput},
		Palettes: map[style.Variant]style.PaletteParams{
			style.Color:     {Begin: 0.1, End: 0.95, Direction: style.Descending},
			style.Grayscale: {Begin: 0.15, End: 0.85, Direction: style.Descending},
		},
		Build: buildCivicusMap,
	},
	{
		Name:   "civicus-population",
		Title:  "World population by civic space rating",
		Inputs: []string{civicusInput, populationInput, countriesInput},
		Palettes: map[style.Variant]style.PaletteParams{
			style.Color: {Begin: 0.1, End: 0.95, Direction: style.Descending},
		},
		Build: buildCivicusPopulation,
	},
	{
		Name:   "ngo-finances",
		Title:  "Income and expenses",
		Inputs: []string{financesInput},
		Palettes: map[style.Variant]style.PaletteParams{
			style.Color: {Begin: 0.2, End: 0.8},
		},
		Build: buildFinances,
	},
	{
		Name:   "regional-expenses",
		Title:  "Share of expenses by region",
		Inputs: []string{regionalInput},
		Build:  buildRegionalExpenses,
	},
	{
		Name:   "partner-support",
		Title:  "Partners supported",
		Inputs: []string{partnersInput},
		Palettes: map[style.Variant]style.PaletteParams{
			style.Color:     {Begin: 0.15, End: 0.75},
			style.Grayscale: {Begin: 0, End: 0.7},
		},
		Build: buildPartnerSupport,
	},
	{
		Name:   "office-locations",
		Title:  "Office locations",
		Inputs: []string{officesInput, countriesInput},
		Build:  buildOffices,
	},
}

// Tables is the table catalog.
var Tables = []*Table{
	{
		Name:   "finances",
		Inputs: []string{financesInput},
		Hints: table.Hints{
			Caption: "Annual income, expenses and surplus (USD)",
			Columns: []string{"year", "income", "expenses", "surplus"},
			Headers: map[string]string{"year": "Year", "income": "Income", "expenses": "Expenses", "surplus": "Surplus"},
			Align:   map[string]table.Align{"year": table.AlignLeft},
		},
		Formats: map[string]table.Formatter{
			"income":   table.FormatCurrency,
			"expenses": table.FormatCurrency,
			"surplus":  table.FormatCurrency,
		},
		XLSX: true,
		Build: func(ctx context.Context, d *Data) (*dataset.Dataset, error) {
			return finances(ctx, d)
		},
	},
	{
		Name:   "civicus-population",
		Inputs: []string{civicusInput, populationInput, countriesInput},
		Hints: table.Hints{
			Caption: "World population by civic space rating",
			Columns: []string{"rating", "population", "share"},
			Headers: map[string]string{"rating": "Rating", "population": "Population", "share": "Share"},
		},
		Formats: map[string]table.Formatter{
			"population": table.FormatCount,
			"share":      table.FormatPercent,
		},
		Build: civicusPopulation,
	},
}

// FigureByName returns the named figure.
func FigureByName(name string) (*Figure, bool) {
	i := slices.IndexFunc(Figures, func(f *Figure) bool { return f.Name == name })
	if i < 0 {
		return nil, false
	}
	return Figures[i], true
}

// TableByName returns the named table.
func TableByName(name string) (*Table, bool) {
	i := slices.IndexFunc(Tables, func(t *Table) bool { return t.Name == name })
	if i < 0 {
		return nil, false
	}
	return Tables[i], true
}

// SelectFigures resolves names to figures. No names selects all.
func SelectFigures(names ...string) ([]*Figure, error) {
	if len(names) == 0 {
		return Figures, nil
	}
	out := make([]*Figure, 0, len(names))
	for _, n := range names {
		f, ok := FigureByName(n)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown figure %q (see 'paperfigs list')", n)
		}
		out = append(out, f)
	}
	return out, nil
}

// SelectTables resolves names to tables. No names selects all.
func SelectTables(names ...string) ([]*Table, error) {
	if len(names) == 0 {
		return Tables, nil
	}
	out := make([]*Table, 0, len(names))
	for _, n := range names {
		t, ok := TableByName(n)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown table %q (see 'paperfigs list')", n)
		}
		out = append(out, t)
	}
	return out, nil
}

func buildCivicusMap(ctx context.Context, d *Data) (*dataset.Dataset, chart.Encoding, error) {
	civ, err := civicusCodes(ctx, d)
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	basemap, err := d.Basemap(ctx)
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	return civ, chart.Encoding{
		Geometry:    chart.Choropleth,
		Code:        "iso3",
		Group:       "rating",
		Levels:      CivicSpaceRatings,
		Basemap:     basemap,
		LegendTitle: "Civic space",
	}, nil
}

func buildCivicusPopulation(ctx context.Context, d *Data) (*dataset.Dataset, chart.Encoding, error) {
	t, err := civicusPopulation(ctx, d)
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	return t, chart.Encoding{
		Geometry: chart.PointRange,
		X:        "rating",
		Y:        "share",
		Group:    "rating",
		Levels:   CivicSpaceRatings,
		YFormat:  chart.FormatPercent,
		YTitle:   "Share of world population",
	}, nil
}

func buildFinances(ctx context.Context, d *Data) (*dataset.Dataset, chart.Encoding, error) {
	t, err := finances(ctx, d)
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	return t, chart.Encoding{
		Geometry: chart.Line,
		X:        "year",
		Series: []chart.Series{
			{Column: "income", Label: "Income"},
			{Column: "expenses", Label: "Expenses"},
			{Column: "surplus", Label: "Surplus"},
		},
		XFormat: chart.FormatYear,
		YFormat: chart.FormatCurrency,
		YTitle:  "USD",
	}, nil
}

func buildRegionalExpenses(ctx context.Context, d *Data) (*dataset.Dataset, chart.Encoding, error) {
	raw, err := d.Table(ctx, regionalInput)
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	// Each year's regions share that year's total.
	t, err := transform.GroupShare(raw, "amount", []string{"year"}, "share")
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	return t, chart.Encoding{
		Geometry: chart.Line,
		X:        "year",
		Y:        "share",
		Facet:    "region",
		XFormat:  chart.FormatYear,
		YFormat:  chart.FormatPercent,
		YTitle:   "Share of expenses",
	}, nil
}

func buildPartnerSupport(ctx context.Context, d *Data) (*dataset.Dataset, chart.Encoding, error) {
	raw, err := d.Table(ctx, partnersInput)
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	t, err := transform.Accumulate(raw, "cr_total", "csos", "networks")
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	return t, chart.Encoding{
		Geometry: chart.Line,
		X:        "year",
		Series: []chart.Series{
			{Column: "csos", Label: "Civil society organisations"},
			{Column: "networks", Label: "Networks"},
			{Column: "cr_total", Label: "Total"},
		},
		XFormat: chart.FormatYear,
		YFormat: chart.FormatCount,
		YTitle:  "Partners",
	}, nil
}

func buildOffices(ctx context.Context, d *Data) (*dataset.Dataset, chart.Encoding, error) {
	raw, err := d.Table(ctx, officesInput)
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	codes, err := d.CountryCodes(ctx)
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	// Only to surface misspelt countries; points are placed by lon/lat.
	t, err := dataset.MapCountries(raw, "country", "iso3", codes)
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	basemap, err := d.Basemap(ctx)
	if err != nil {
		return nil, chart.Encoding{}, err
	}
	return t, chart.Encoding{
		Geometry:    chart.LabeledPoint,
		Lon:         "lon",
		Lat:         "lat",
		Label:       "city",
		Group:       "kind",
		Levels:      OfficeKinds,
		Basemap:     basemap,
		Seed:        DefaultSeed,
		LegendTitle: "Office",
	}, nil
}

// finances adds the surplus column.
func finances(ctx context.Context, d *Data) (*dataset.Dataset, error) {
	raw, err := d.Table(ctx, financesInput)
	if err != nil {
		return nil, err
	}
	return transform.Surplus(raw, "income", "expenses", "surplus")
}

// civicusCodes maps CIVICUS country names to ISO3.
func civicusCodes(ctx context.Context, d *Data) (*dataset.Dataset, error) {
	raw, err := d.Table(ctx, civicusInput)
	if err != nil {
		return nil, err
	}
	codes, err := d.CountryCodes(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.MapCountries(raw, "country", "iso3", codes)
}

// civicusPopulation sums population per rating and divides by world
// population. A rating with zero population has no share.
func civicusPopulation(ctx context.Context, d *Data) (*dataset.Dataset, error) {
	civ, err := civicusCodes(ctx, d)
	if err != nil {
		return nil, err
	}
	pop, err := d.Table(ctx, populationInput)
	if err != nil {
		return nil, err
	}
	joined, err := transform.LeftJoin(civ, pop, "iso3", "population")
	if err != nil {
		return nil, err
	}
	byRating, err := transform.SumBy(joined, "population", "rating")
	if err != nil {
		return nil, err
	}
	shares, err := transform.GlobalShare(byRating, "population", "share")
	if err != nil {
		return nil, err
	}
	return transform.NullWhereZero(shares, "population", "share")
}

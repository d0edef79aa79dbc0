package chart

import (
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/geo"
)

// Geometry is the mark a chart draws.
type Geometry string

const (
	Line         Geometry = "line"
	PointRange   Geometry = "pointrange"
	Choropleth   Geometry = "choropleth"
	LabeledPoint Geometry = "labeledpoint"
)

// AxisFormat selects how tick labels are written.
type AxisFormat string

const (
	FormatNumber   AxisFormat = "number"
	FormatCurrency AxisFormat = "currency"
	FormatPercent  AxisFormat = "percent" // values are fractions, 0.25 is 25%
	FormatCount    AxisFormat = "count"
	FormatYear     AxisFormat = "year"
)

// zeroBased reports whether the axis must include zero.
func (f AxisFormat) zeroBased() bool {
	return f == FormatCurrency || f == FormatPercent || f == FormatCount
}

// Series is one wide-format value column drawn as its own line.
type Series struct {
	Column string
	Label  string
}

// Encoding maps table columns to visual channels.
type Encoding struct {
	Geometry Geometry

	X, Y string
	// Series draws several value columns as separate lines; Y is ignored.
	Series []Series
	// Group splits rows into colored series (line), colors points
	// (pointrange, labeledpoint) or fills countries (choropleth).
	Group string
	// Levels orders Group values. Defaults to the column's category levels,
	// else first-seen order.
	Levels []string
	// Facet tiles one panel per value, in first-seen order.
	Facet string

	// YMin and YMax bound the range of a point-range mark. When empty the
	// range runs from zero to Y.
	YMin, YMax string

	// Maps. Code holds ISO3 codes for choropleth rows; Lon and Lat place
	// labeled points; Label is the text beside each point.
	Code     string
	Lon, Lat string
	Label    string
	Basemap  []geo.Feature
	// Exclude lists ISO3 codes dropped from the map. Nil means "ATA".
	Exclude []string
	// Seed makes label placement reproducible.
	Seed uint64

	XFormat, YFormat AxisFormat
	Title            string
	XTitle, YTitle   string
	LegendTitle      string
	// MissingLabel is the legend entry for countries without data.
	MissingLabel string
}

// DefaultExclude is dropped from every map unless Encoding.Exclude is set.
var DefaultExclude = []string{"ATA"}

func (e Encoding) exclude() []string {
	if e.Exclude == nil {
		return DefaultExclude
	}
	return e.Exclude
}

func (e Encoding) missingLabel() string {
	if e.MissingLabel == "" {
		return "No data"
	}
	return e.MissingLabel
}

// Validate checks that the channels required by the geometry are set.
func (e Encoding) Validate() error {
	need := func(channel, col string) error {
		if col == "" {
			return errors.New(errors.ErrCodeInvalidInput, "%s chart: %s channel is required", e.Geometry, channel)
		}
		return nil
	}
	var checks []error
	switch e.Geometry {
	case Line:
		checks = append(checks, need("x", e.X))
		if len(e.Series) == 0 {
			checks = append(checks, need("y", e.Y))
		}
	case PointRange:
		checks = append(checks, need("x", e.X), need("y", e.Y))
	case Choropleth:
		checks = append(checks, need("code", e.Code), need("group", e.Group))
		if len(e.Basemap) == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "choropleth chart: basemap is empty")
		}
	case LabeledPoint:
		checks = append(checks, need("lon", e.Lon), need("lat", e.Lat), need("label", e.Label))
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown geometry %q", e.Geometry)
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

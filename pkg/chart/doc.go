// Package chart renders the paper's figures from typed tables.
//
// # Overview
//
// [Render] turns a [dataset.Dataset], an [Encoding], a palette
// [style.Binding] and a [Theme] into a [Chart]. A Chart is a drawable value:
// it does not know about files or formats, it only draws itself onto a
// [draw.Canvas]. The export package picks the canvas (PDF, EPS, SVG, PNG,
// TIFF) and the size.
//
// # Geometries
//
//   - [Line]: one line per series, with point marks. Series come either from
//     a Group column (long format) or from several value columns (wide
//     format, [Encoding.Series]).
//   - [PointRange]: a point with a vertical range per X value. X may be a
//     category, in which case the axis is labeled with its levels.
//   - [Choropleth]: countries filled by an ordinal category.
//   - [LabeledPoint]: labeled markers over a gray base map. Labels are placed
//     with the repel package so they do not overlap.
//
// Maps use the Equal Earth projection. Antarctica is dropped unless
// [Encoding.Exclude] says otherwise.
//
// # Axes
//
// Currency, count and percent axes always include zero so that bar-free
// charts still show the true baseline. Tick labels are formatted per
// [AxisFormat] with go-humanize.
//
// # Facets
//
// When [Encoding.Facet] is set the chart is tiled into one panel per facet
// value, in first-seen order. All panels share the Y range so panels can be
// compared by eye.
//
// # Errors
//
// Unknown columns fail with SCHEMA_MISMATCH naming the dataset. Category
// values without a palette entry do not fail the chart; they are drawn with
// the missing fill and reported by [Chart.Warnings].
package chart

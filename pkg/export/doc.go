// Package export writes rendered charts to disk.
//
// A [Manager] draws one chart onto a canvas per [Spec] and writes the result
// to {OutputDir}/{base}{suffix}.{ext}, where suffix is "-color" for the color
// variant and empty for grayscale. Vector formats (PDF, EPS, SVG) use the
// gonum/plot vector canvases; PNG and TIFF are rasterized at the spec's DPI.
//
// Files are written to a temporary file in the output directory and renamed
// into place. A file whose bytes would not change is left untouched. PDF and
// EPS metadata dates are pinned (see [ReproducibleTime]) so identical input
// yields identical bytes.
//
// Rendered bytes are cached under a key derived from the chart's SVG rendering
// and the spec, plus the metadata date for PDF and EPS. Any change to what is
// drawn changes the key.
package export

// Package figures is the catalog of charts and tables in the paper.
//
// Each [Figure] names its inputs, its palette parameters per variant and a
// Build function that loads and transforms the data and returns the table
// and encoding to render. Each [Table] does the same for a grid table.
// Inputs are read through a shared [Data] loader so a dataset used by several
// figures is parsed once.
//
// Adding a figure means appending to [Figures]; the pipeline, the list and
// graph commands pick it up from there.
package figures

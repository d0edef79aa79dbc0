// Package dataset loads the paper's input data into typed in-memory tables.
//
// # Overview
//
// A [Dataset] is a named, ordered set of typed columns. Column types are fixed
// at load time by a [Schema]; each figure declares the schema it expects, so
// a renamed or missing column fails at load rather than surfacing as a blank
// chart later.
//
// Missing values are explicit: every column tracks validity per row and a null
// cell is never coerced to zero.
//
// # Loading
//
//	schema := dataset.Schema{
//	    Name: "finances",
//	    Fields: []dataset.Field{
//	        {Name: "year", Kind: dataset.KindInt},
//	        {Name: "income", Kind: dataset.KindFloat},
//	        {Name: "expenses", Kind: dataset.KindFloat},
//	    },
//	}
//	d, err := dataset.LoadCSV("data/finances.csv", schema)
//
// Population and count fields should use [KindFloat] or [KindInt]; both are 64
// bits wide so world population totals cannot overflow.
//
// # Countries
//
// [CountryCodes] maps free-text country names to ISO 3166-1 alpha-3 codes.
// [MapCountries] adds a code column; unmatched names become null and are
// recorded as UNMAPPED_CATEGORY warnings on the returned dataset.
//
// [LoadShapefile] reads country polygons from an ESRI shapefile with ISO_A3
// and NAME attributes.
//
// # Immutability
//
// Datasets are read-only after load. Operations that add columns return a new
// Dataset sharing the unchanged columns with the original.
package dataset

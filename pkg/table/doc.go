// Package table formats datasets as captioned pandoc grid tables.
//
// Numbers are turned into text before formatting: the caller applies
// [FormatCurrency], [FormatPercent] or [FormatCount] through [Apply], so the
// formatter itself only lays out strings. Column widths use terminal display
// width, which keeps East Asian and combining characters aligned.
//
// [WriteFile] writes the text to tbl-{name}.md; [WriteXLSX] writes the same
// table as a spreadsheet for co-authors who want the numbers.
package table

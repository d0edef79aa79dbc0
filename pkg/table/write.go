package table

import (
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/export"
)

// FileName returns the markdown file name for a table.
func FileName(name string) string { return "tbl-" + name + ".md" }

// WriteFile writes block to {dir}/tbl-{name}.md. The file is replaced
// atomically and left untouched when its content would not change; written
// reports which happened.
func WriteFile(dir, name string, block TextBlock) (path string, written bool, err error) {
	if err := errors.ValidateBaseName(name); err != nil {
		return "", false, err
	}
	path = filepath.Join(dir, FileName(name))
	written, err = export.WriteFileAtomic(path, []byte(block.String()))
	return path, written, err
}

const xlsxColWidth = 16

// WriteXLSX writes t to {dir}/tbl-{name}.xlsx, one row per record under a
// bold, frozen header row. Numeric cells stay numeric.
func WriteXLSX(dir, name string, t *dataset.Dataset, hints Hints) (path string, written bool, err error) {
	if err := errors.ValidateBaseName(name); err != nil {
		return "", false, err
	}
	names := hints.Columns
	if len(names) == 0 {
		names = t.ColumnNames()
	}
	cols := make([]*dataset.Column, len(names))
	for i, n := range names {
		if cols[i], err = t.Column(n); err != nil {
			return "", false, err
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", false, errors.Wrap(errors.ErrCodeExportIO, err, "%s: sheet name", name)
	}

	header := make([]any, len(names))
	for i, n := range names {
		header[i] = n
		if h, ok := hints.Headers[n]; ok {
			header[i] = h
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", false, errors.Wrap(errors.ErrCodeExportIO, err, "%s: header", name)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeExportIO, err, "%s: style", name)
	}
	last, _ := excelize.CoordinatesToCellName(len(names), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return "", false, errors.Wrap(errors.ErrCodeExportIO, err, "%s: style", name)
	}

	for r := range t.Len() {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = cellValue(c, r)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", false, errors.Wrap(errors.ErrCodeExportIO, err, "%s: row %d", name, r+1)
		}
	}

	if len(names) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(names))
		if err := f.SetColWidth(sheet, "A", lastCol, xlsxColWidth); err != nil {
			return "", false, errors.Wrap(errors.ErrCodeExportIO, err, "%s: column width", name)
		}
	}
	panes := &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}
	if err := f.SetPanes(sheet, panes); err != nil {
		return "", false, errors.Wrap(errors.ErrCodeExportIO, err, "%s: freeze header", name)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeExportIO, err, "%s: encode xlsx", name)
	}
	path = filepath.Join(dir, "tbl-"+name+".xlsx")
	written, err = export.WriteFileAtomic(path, buf.Bytes())
	return path, written, err
}

func cellValue(c *dataset.Column, r int) any {
	switch c.Kind() {
	case dataset.KindInt:
		if v, ok := c.Int(r); ok {
			return v
		}
	case dataset.KindFloat:
		if v, ok := c.Float(r); ok {
			return v
		}
	default:
		if s, ok := c.Str(r); ok {
			return s
		}
	}
	return nil
}

// sheetName trims name to Excel's 31 character limit.
func sheetName(name string) string {
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}

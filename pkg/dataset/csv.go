package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/paperfigs/pkg/errors"
)

// LoadCSV reads a CSV file with a header row into a dataset typed by schema.
//
// A missing file fails with DATA_NOT_FOUND. A missing required column or an
// unparsable cell in a typed column fails with SCHEMA_MISMATCH. Columns not
// named in the schema are ignored.
func LoadCSV(path string, schema Schema) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataNotFound, err, "%s: open %s", schemaName(schema, path), path)
	}
	defer f.Close()
	return ReadCSV(f, schemaWithName(schema, path))
}

func schemaName(s Schema, path string) string {
	if s.Name != "" {
		return s.Name
	}
	return path
}

func schemaWithName(s Schema, path string) Schema {
	s.Name = schemaName(s, path)
	return s
}

// ReadCSV reads CSV data from r. See [LoadCSV].
func ReadCSV(r io.Reader, schema Schema) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeSchemaMismatch, "%s: empty file (no header row)", schema.Name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchemaMismatch, err, "%s: read header", schema.Name)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	positions := make([]int, len(schema.Fields))
	for i, f := range schema.Fields {
		positions[i] = slices.Index(header, f.sourceName())
		if positions[i] < 0 && !f.Optional {
			return nil, errors.New(errors.ErrCodeSchemaMismatch,
				"%s: missing required column %q", schema.Name, f.sourceName())
		}
	}

	builders := make([]*columnBuilder, len(schema.Fields))
	for i, f := range schema.Fields {
		builders[i] = newColumnBuilder(f)
	}
	nulls := schema.nullSet()

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSchemaMismatch, err, "%s: row %d", schema.Name, row+1)
		}
		for i, b := range builders {
			raw := ""
			isNull := true
			if p := positions[i]; p >= 0 && p < len(record) {
				raw = strings.TrimSpace(record[p])
				_, isNull = nulls[raw]
			}
			if err := b.append(raw, isNull); err != nil {
				return nil, errors.Wrap(errors.ErrCodeSchemaMismatch, err,
					"%s: column %q row %d", schema.Name, b.field.Name, row+1)
			}
		}
		row++
	}

	cols := make([]*Column, len(builders))
	for i, b := range builders {
		cols[i] = b.column()
	}
	d, err := New(schema.Name, cols...)
	if err != nil {
		return nil, err
	}
	for _, b := range builders {
		for _, w := range b.warnings {
			d.addWarning(w)
		}
	}
	return d, nil
}

type columnBuilder struct {
	field    Field
	levels   map[string]struct{}
	ints     []int64
	floats   []float64
	strs     []string
	valid    []bool
	warnings []error
	unmapped map[string]bool
}

func newColumnBuilder(f Field) *columnBuilder {
	b := &columnBuilder{field: f}
	if f.Kind == KindCategory {
		b.levels = make(map[string]struct{}, len(f.Levels))
		for _, l := range f.Levels {
			b.levels[l] = struct{}{}
		}
		b.unmapped = make(map[string]bool)
	}
	return b
}

func (b *columnBuilder) append(raw string, isNull bool) error {
	switch b.field.Kind {
	case KindInt:
		var v int64
		if !isNull {
			n, err := strconv.ParseInt(cleanNumber(raw), 10, 64)
			if err != nil {
				// Counts exported by spreadsheets often carry a trailing ".0".
				f, ferr := strconv.ParseFloat(cleanNumber(raw), 64)
				if ferr != nil || f != float64(int64(f)) {
					return err
				}
				n = int64(f)
			}
			v = n
		}
		b.ints = append(b.ints, v)
	case KindFloat:
		var v float64
		if !isNull {
			f, err := strconv.ParseFloat(cleanNumber(raw), 64)
			if err != nil {
				return err
			}
			v = f
		}
		b.floats = append(b.floats, v)
	case KindCategory:
		if !isNull {
			if _, ok := b.levels[raw]; !ok && len(b.levels) > 0 {
				if !b.unmapped[raw] {
					b.unmapped[raw] = true
					b.warnings = append(b.warnings, errors.New(errors.ErrCodeUnmappedCategory,
						"column %q: value %q is not one of %v", b.field.Name, raw, b.field.Levels))
				}
				isNull = true
				raw = ""
			}
		}
		b.strs = append(b.strs, raw)
	default:
		b.strs = append(b.strs, raw)
	}
	b.valid = append(b.valid, !isNull)
	return nil
}

func (b *columnBuilder) column() *Column {
	return &Column{
		field:  b.field,
		ints:   b.ints,
		floats: b.floats,
		strs:   b.strs,
		valid:  b.valid,
	}
}

// cleanNumber strips currency symbols and thousands separators.
func cleanNumber(s string) string {
	if rest, ok := strings.CutPrefix(s, "-$"); ok {
		s = "-" + rest
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "_", "")
	return strings.TrimSpace(s)
}

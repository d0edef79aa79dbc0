package dataset

import (
	"math"
	"slices"
	"strconv"

	"github.com/matzehuels/paperfigs/pkg/errors"
)

// Column is a typed, immutable column. Exactly one of the value slices is
// populated, according to Field.Kind.
type Column struct {
	field  Field
	ints   []int64
	floats []float64
	strs   []string
	valid  []bool
}

// NewFloatColumn creates a float column. A nil valid slice marks every
// non-NaN value as present.
func NewFloatColumn(name string, values []float64, valid []bool) *Column {
	if valid == nil {
		valid = make([]bool, len(values))
		for i, v := range values {
			valid[i] = !math.IsNaN(v)
		}
	}
	return &Column{
		field:  Field{Name: name, Kind: KindFloat},
		floats: slices.Clone(values),
		valid:  slices.Clone(valid),
	}
}

// NewIntColumn creates an integer column. A nil valid slice marks every value
// as present.
func NewIntColumn(name string, values []int64, valid []bool) *Column {
	return &Column{
		field: Field{Name: name, Kind: KindInt},
		ints:  slices.Clone(values),
		valid: validOrAll(valid, len(values)),
	}
}

// NewStringColumn creates a string column. A nil valid slice marks every
// value as present.
func NewStringColumn(name string, values []string, valid []bool) *Column {
	return &Column{
		field: Field{Name: name, Kind: KindString},
		strs:  slices.Clone(values),
		valid: validOrAll(valid, len(values)),
	}
}

// NewCategoryColumn creates a category column with ordered levels.
func NewCategoryColumn(name string, levels, values []string, valid []bool) *Column {
	return &Column{
		field: Field{Name: name, Kind: KindCategory, Levels: slices.Clone(levels)},
		strs:  slices.Clone(values),
		valid: validOrAll(valid, len(values)),
	}
}

func validOrAll(valid []bool, n int) []bool {
	if valid != nil {
		return slices.Clone(valid)
	}
	all := make([]bool, n)
	for i := range all {
		all[i] = true
	}
	return all
}

// Name returns the column name.
func (c *Column) Name() string { return c.field.Name }

// Field returns the column's declared field.
func (c *Column) Field() Field { return c.field }

// Kind returns the column's storage kind.
func (c *Column) Kind() Kind { return c.field.Kind }

// Len returns the number of rows.
func (c *Column) Len() int { return len(c.valid) }

// Valid reports whether row i holds a value.
func (c *Column) Valid(i int) bool { return c.valid[i] }

// Float returns row i as float64. Int columns are widened. The second result
// is false for null cells and non-numeric columns.
func (c *Column) Float(i int) (float64, bool) {
	if !c.valid[i] {
		return 0, false
	}
	switch c.field.Kind {
	case KindFloat:
		return c.floats[i], true
	case KindInt:
		return float64(c.ints[i]), true
	}
	return 0, false
}

// Int returns row i of an int column.
func (c *Column) Int(i int) (int64, bool) {
	if !c.valid[i] || c.field.Kind != KindInt {
		return 0, false
	}
	return c.ints[i], true
}

// Str returns row i of a string or category column.
func (c *Column) Str(i int) (string, bool) {
	if !c.valid[i] {
		return "", false
	}
	switch c.field.Kind {
	case KindString, KindCategory:
		return c.strs[i], true
	}
	return "", false
}

// Levels returns the declared levels of a category column.
func (c *Column) Levels() []string { return slices.Clone(c.field.Levels) }

// Take returns a new column holding rows in the given order.
func (c *Column) Take(rows []int) *Column {
	out := &Column{field: c.field, valid: make([]bool, len(rows))}
	switch c.field.Kind {
	case KindInt:
		out.ints = make([]int64, len(rows))
	case KindFloat:
		out.floats = make([]float64, len(rows))
	default:
		out.strs = make([]string, len(rows))
	}
	for j, i := range rows {
		out.valid[j] = c.valid[i]
		switch c.field.Kind {
		case KindInt:
			out.ints[j] = c.ints[i]
		case KindFloat:
			out.floats[j] = c.floats[i]
		default:
			out.strs[j] = c.strs[i]
		}
	}
	return out
}

// Key returns a string form of row i for grouping. Null cells return false.
func (c *Column) Key(i int) (string, bool) {
	if !c.valid[i] {
		return "", false
	}
	switch c.field.Kind {
	case KindInt:
		return strconv.FormatInt(c.ints[i], 10), true
	case KindFloat:
		return strconv.FormatFloat(c.floats[i], 'g', -1, 64), true
	default:
		return c.strs[i], true
	}
}

// Dataset is a named, ordered table of typed columns.
type Dataset struct {
	name     string
	cols     []*Column
	index    map[string]int
	rows     int
	warnings []error
}

// New assembles a dataset from columns of equal length.
func New(name string, cols ...*Column) (*Dataset, error) {
	d := &Dataset{name: name, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, errors.New(errors.ErrCodeSchemaMismatch,
				"%s: column %q has %d rows, want %d", name, c.Name(), c.Len(), d.rows)
		}
		if _, dup := d.index[c.Name()]; dup {
			return nil, errors.New(errors.ErrCodeSchemaMismatch, "%s: duplicate column %q", name, c.Name())
		}
		d.index[c.Name()] = i
		d.cols = append(d.cols, c)
	}
	return d, nil
}

// Name returns the dataset name.
func (d *Dataset) Name() string { return d.name }

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Has reports whether the dataset has a column with the given name.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name()
	}
	return names
}

// Column returns the named column or a SCHEMA_MISMATCH error naming the dataset.
func (d *Dataset) Column(name string) (*Column, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeSchemaMismatch, "%s: missing column %q", d.name, name)
	}
	return d.cols[i], nil
}

// Numeric returns the named column, requiring a numeric kind.
func (d *Dataset) Numeric(name string) (*Column, error) {
	c, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	if !c.Kind().Numeric() {
		return nil, errors.New(errors.ErrCodeSchemaMismatch,
			"%s: column %q is %s, want numeric", d.name, name, c.Kind())
	}
	return c, nil
}

// Text returns the named column, requiring a string or category kind.
func (d *Dataset) Text(name string) (*Column, error) {
	c, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind() != KindString && c.Kind() != KindCategory {
		return nil, errors.New(errors.ErrCodeSchemaMismatch,
			"%s: column %q is %s, want text", d.name, name, c.Kind())
	}
	return c, nil
}

// Require checks that every named column exists.
func (d *Dataset) Require(names ...string) error {
	for _, n := range names {
		if _, err := d.Column(n); err != nil {
			return err
		}
	}
	return nil
}

// WithColumn returns a new dataset with c appended, or replacing an existing
// column of the same name. The receiver is not modified.
func (d *Dataset) WithColumn(c *Column) (*Dataset, error) {
	if c.Len() != d.rows && len(d.cols) > 0 {
		return nil, errors.New(errors.ErrCodeSchemaMismatch,
			"%s: column %q has %d rows, want %d", d.name, c.Name(), c.Len(), d.rows)
	}
	cols := slices.Clone(d.cols)
	if i, ok := d.index[c.Name()]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	out, err := New(d.name, cols...)
	if err != nil {
		return nil, err
	}
	out.warnings = slices.Clone(d.warnings)
	return out, nil
}

// Rename returns a copy of the dataset under a new name.
func (d *Dataset) Rename(name string) *Dataset {
	out := *d
	out.name = name
	out.warnings = slices.Clone(d.warnings)
	return &out
}

// Warnings returns non-fatal problems recorded while building the dataset,
// such as UNMAPPED_CATEGORY values.
func (d *Dataset) Warnings() []error { return slices.Clone(d.warnings) }

func (d *Dataset) addWarning(err error) { d.warnings = append(d.warnings, err) }

// WithWarnings returns a copy of the dataset with warnings appended.
func (d *Dataset) WithWarnings(warnings ...error) *Dataset {
	out := *d
	out.warnings = append(slices.Clone(d.warnings), warnings...)
	return &out
}

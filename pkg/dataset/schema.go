package dataset

import "fmt"

// Kind is the storage type of a column.
type Kind int

const (
	KindString   Kind = iota // free text
	KindInt                  // 64-bit integer
	KindFloat                // 64-bit float
	KindCategory             // string restricted to declared levels
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindCategory:
		return "category"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Numeric reports whether values of this kind can be read as float64.
func (k Kind) Numeric() bool { return k == KindInt || k == KindFloat }

// Field declares one column of a schema.
type Field struct {
	Name string
	Kind Kind
	// Optional columns may be absent from the source; they load as all-null.
	Optional bool
	// Levels lists the allowed values of a KindCategory column in their
	// natural order. Values outside Levels load as null with a warning.
	Levels []string
	// Source is the header name in the input file when it differs from Name.
	Source string
}

func (f Field) sourceName() string {
	if f.Source != "" {
		return f.Source
	}
	return f.Name
}

// Schema is the expected typing of a dataset.
type Schema struct {
	Name   string
	Fields []Field
	// NullMarkers overrides DefaultNullMarkers when non-nil.
	NullMarkers []string
}

// DefaultNullMarkers are the cell values read as missing.
var DefaultNullMarkers = []string{"", "NA", "N/A", "NaN", "NULL", "null", "-"}

func (s Schema) nullSet() map[string]struct{} {
	markers := s.NullMarkers
	if markers == nil {
		markers = DefaultNullMarkers
	}
	set := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		set[m] = struct{}{}
	}
	return set
}

// Field returns the field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

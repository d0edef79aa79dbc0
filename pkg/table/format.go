package table

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/errors"
)

// Placeholder stands in for null cells.
const Placeholder = "–"

// Formatter turns one non-null value into display text.
type Formatter func(v float64) string

// FormatCurrency renders whole dollars with thousands separators, e.g.
// "-$1,250".
func FormatCurrency(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return "-$" + humanize.Comma(-n)
	}
	return "$" + humanize.Comma(n)
}

// FormatPercent renders a fraction as a percentage with one decimal, e.g.
// 0.25 → "25.0%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

// FormatCount renders an integer count with thousands separators.
func FormatCount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// FormatDecimal returns a formatter with a fixed number of decimals.
func FormatDecimal(digits int) Formatter {
	return func(v float64) string { return humanize.CommafWithDigits(v, digits) }
}

// Apply returns a copy of t with the numeric column col replaced by a string
// column of formatted values. Nulls become [Placeholder].
func Apply(t *dataset.Dataset, col string, f Formatter) (*dataset.Dataset, error) {
	c, err := t.Numeric(col)
	if err != nil {
		return nil, err
	}
	out := make([]string, c.Len())
	for i := range out {
		if v, ok := c.Float(i); ok && !math.IsNaN(v) {
			out[i] = f(v)
		} else {
			out[i] = Placeholder
		}
	}
	return t.WithColumn(dataset.NewStringColumn(col, out, nil))
}

// ApplyAll runs [Apply] for every column in formats.
func ApplyAll(t *dataset.Dataset, formats map[string]Formatter) (*dataset.Dataset, error) {
	// Column order keeps errors stable.
	for _, name := range t.ColumnNames() {
		f, ok := formats[name]
		if !ok {
			continue
		}
		var err error
		if t, err = Apply(t, name, f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FormatterByName resolves "currency", "percent", "count" or "decimal:N".
func FormatterByName(name string) (Formatter, error) {
	switch name {
	case "currency":
		return FormatCurrency, nil
	case "percent":
		return FormatPercent, nil
	case "count":
		return FormatCount, nil
	}
	if digits, ok := strings.CutPrefix(name, "decimal:"); ok {
		if n, err := strconv.Atoi(digits); err == nil && n >= 0 {
			return FormatDecimal(n), nil
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown number format %q", name)
}

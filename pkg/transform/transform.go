package transform

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/errors"
)

// Surplus adds outCol = income - expenses. Negative values are kept as is.
func Surplus(t *dataset.Dataset, incomeCol, expensesCol, outCol string) (*dataset.Dataset, error) {
	income, err := t.Numeric(incomeCol)
	if err != nil {
		return nil, err
	}
	expenses, err := t.Numeric(expensesCol)
	if err != nil {
		return nil, err
	}

	out := make([]float64, t.Len())
	valid := make([]bool, t.Len())
	for i := range t.Len() {
		in, okIn := income.Float(i)
		ex, okEx := expenses.Float(i)
		if okIn && okEx {
			out[i], valid[i] = in-ex, true
		}
	}
	return t.WithColumn(dataset.NewFloatColumn(outCol, out, valid))
}

// Accumulate adds outCol holding the row-wise sum of cols. A row with any
// null input gets a null total.
func Accumulate(t *dataset.Dataset, outCol string, cols ...string) (*dataset.Dataset, error) {
	if len(cols) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: accumulate %q: no input columns", t.Name(), outCol)
	}
	inputs := make([]*dataset.Column, len(cols))
	for i, name := range cols {
		c, err := t.Numeric(name)
		if err != nil {
			return nil, err
		}
		inputs[i] = c
	}

	out := make([]float64, t.Len())
	valid := make([]bool, t.Len())
	row := make([]float64, len(inputs))
	for i := range t.Len() {
		valid[i] = true
		for j, c := range inputs {
			v, ok := c.Float(i)
			if !ok {
				valid[i] = false
				break
			}
			row[j] = v
		}
		if valid[i] {
			out[i] = floats.Sum(row)
		}
	}
	return t.WithColumn(dataset.NewFloatColumn(outCol, out, valid))
}

// GlobalShare adds outCol = value / sum(value over all rows).
func GlobalShare(t *dataset.Dataset, valueCol, outCol string) (*dataset.Dataset, error) {
	return GroupShare(t, valueCol, nil, outCol)
}

// NullWhereZero nulls col in every row where valueCol is exactly zero. A
// share computed for a group with no population is undefined, not 0 %.
func NullWhereZero(t *dataset.Dataset, valueCol, col string) (*dataset.Dataset, error) {
	values, err := t.Numeric(valueCol)
	if err != nil {
		return nil, err
	}
	c, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	valid := make([]bool, t.Len())
	for i := range t.Len() {
		v, ok := values.Float(i)
		valid[i] = c.Valid(i) && !(ok && v == 0)
	}
	return t.WithColumn(withValid(c, valid))
}

// GroupShare adds outCol = value / total, where total sums valueCol over the
// rows sharing the same values in groupCols. With no group columns the whole
// table is one group. Rows with a null group key get a null share.
func GroupShare(t *dataset.Dataset, valueCol string, groupCols []string, outCol string) (*dataset.Dataset, error) {
	values, err := t.Numeric(valueCol)
	if err != nil {
		return nil, err
	}
	keys, err := groupKeys(t, groupCols)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64)
	for i := range t.Len() {
		v, ok := values.Float(i)
		if ok && keys[i].ok {
			totals[keys[i].key] += v
		}
	}

	out := make([]float64, t.Len())
	valid := make([]bool, t.Len())
	for i := range t.Len() {
		v, ok := values.Float(i)
		if !ok || !keys[i].ok {
			continue
		}
		out[i], valid[i] = ratio(v, totals[keys[i].key])
	}
	return t.WithColumn(dataset.NewFloatColumn(outCol, out, valid))
}

// SumBy sums valueCol per distinct combination of groupCols. The result has
// the group columns followed by valueCol, one row per group in first-seen
// order. Null values are skipped; a group with no values sums to null. Rows
// with a null group key are dropped.
func SumBy(t *dataset.Dataset, valueCol string, groupCols ...string) (*dataset.Dataset, error) {
	values, err := t.Numeric(valueCol)
	if err != nil {
		return nil, err
	}
	if len(groupCols) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: sum %q: no group columns", t.Name(), valueCol)
	}
	keys, err := groupKeys(t, groupCols)
	if err != nil {
		return nil, err
	}

	var (
		first  []int
		groups = make(map[string]int)
		sums   []float64
		seen   []bool
	)
	for i := range t.Len() {
		if !keys[i].ok {
			continue
		}
		g, ok := groups[keys[i].key]
		if !ok {
			g = len(first)
			groups[keys[i].key] = g
			first = append(first, i)
			sums = append(sums, 0)
			seen = append(seen, false)
		}
		if v, ok := values.Float(i); ok {
			sums[g] += v
			seen[g] = true
		}
	}

	cols := make([]*dataset.Column, 0, len(groupCols)+1)
	for _, name := range groupCols {
		c, _ := t.Column(name)
		cols = append(cols, c.Take(first))
	}
	cols = append(cols, dataset.NewFloatColumn(valueCol, sums, seen))
	out, err := dataset.New(t.Name(), cols...)
	if err != nil {
		return nil, err
	}
	return out.WithWarnings(t.Warnings()...), nil
}

// LeftJoin adds cols from right to left, matching rows on key. Rows of left
// without a match get nulls. When right has duplicate keys the first row wins.
func LeftJoin(left, right *dataset.Dataset, key string, cols ...string) (*dataset.Dataset, error) {
	lk, err := left.Column(key)
	if err != nil {
		return nil, err
	}
	rk, err := right.Column(key)
	if err != nil {
		return nil, err
	}
	if err := right.Require(cols...); err != nil {
		return nil, err
	}

	index := make(map[string]int, right.Len())
	for i := range right.Len() {
		if k, ok := rk.Key(i); ok {
			if _, dup := index[k]; !dup {
				index[k] = i
			}
		}
	}

	// -1 rows are filled as null below.
	rows := make([]int, left.Len())
	for i := range left.Len() {
		rows[i] = -1
		if k, ok := lk.Key(i); ok {
			if j, found := index[k]; found {
				rows[i] = j
			}
		}
	}

	out := left
	for _, name := range cols {
		c, _ := right.Column(name)
		joined := takeOrNull(c, rows)
		if out, err = out.WithColumn(joined); err != nil {
			return nil, err
		}
	}
	return out.WithWarnings(right.Warnings()...), nil
}

func takeOrNull(c *dataset.Column, rows []int) *dataset.Column {
	if c.Len() == 0 {
		return nullColumn(c, len(rows))
	}
	safe := make([]int, len(rows))
	for i, r := range rows {
		safe[i] = max(r, 0)
	}
	taken := c.Take(safe)

	valid := make([]bool, len(rows))
	for i, r := range rows {
		valid[i] = r >= 0 && taken.Valid(i)
	}
	return withValid(taken, valid)
}

func nullColumn(c *dataset.Column, n int) *dataset.Column {
	f := c.Field()
	valid := make([]bool, n)
	switch f.Kind {
	case dataset.KindInt:
		return dataset.NewIntColumn(f.Name, make([]int64, n), valid)
	case dataset.KindFloat:
		return dataset.NewFloatColumn(f.Name, make([]float64, n), valid)
	case dataset.KindCategory:
		return dataset.NewCategoryColumn(f.Name, f.Levels, make([]string, n), valid)
	default:
		return dataset.NewStringColumn(f.Name, make([]string, n), valid)
	}
}

func withValid(c *dataset.Column, valid []bool) *dataset.Column {
	f := c.Field()
	n := c.Len()
	switch f.Kind {
	case dataset.KindInt:
		vals := make([]int64, n)
		for i := range n {
			vals[i], _ = c.Int(i)
		}
		return dataset.NewIntColumn(f.Name, vals, valid)
	case dataset.KindFloat:
		vals := make([]float64, n)
		for i := range n {
			vals[i], _ = c.Float(i)
		}
		return dataset.NewFloatColumn(f.Name, vals, valid)
	default:
		vals := make([]string, n)
		for i := range n {
			vals[i], _ = c.Str(i)
		}
		if f.Kind == dataset.KindCategory {
			return dataset.NewCategoryColumn(f.Name, f.Levels, vals, valid)
		}
		return dataset.NewStringColumn(f.Name, vals, valid)
	}
}

func ratio(num, den float64) (float64, bool) {
	if den == 0 || math.IsNaN(den) {
		return 0, false
	}
	return num / den, true
}

type groupKey struct {
	key string
	ok  bool
}

// groupKeys joins the group column values of each row with the ASCII unit
// separator. A null in any group column makes the key invalid.
func groupKeys(t *dataset.Dataset, groupCols []string) ([]groupKey, error) {
	cols := make([]*dataset.Column, len(groupCols))
	for i, name := range groupCols {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}

	keys := make([]groupKey, t.Len())
	for i := range t.Len() {
		keys[i].ok = true
		for j, c := range cols {
			k, ok := c.Key(i)
			if !ok {
				keys[i] = groupKey{}
				break
			}
			if j > 0 {
				keys[i].key += "\x1f"
			}
			keys[i].key += k
		}
	}
	return keys, nil
}

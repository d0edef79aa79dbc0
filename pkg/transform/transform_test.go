package transform

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/errors"
)

// values returns the column as []any with nil for nulls.
func values(t *testing.T, d *dataset.Dataset, name string) []any {
	t.Helper()
	c, err := d.Column(name)
	if err != nil {
		t.Fatalf("Column(%q): %v", name, err)
	}
	out := make([]any, c.Len())
	for i := range c.Len() {
		if c.Kind().Numeric() {
			if v, ok := c.Float(i); ok {
				out[i] = v
			}
			continue
		}
		if v, ok := c.Str(i); ok {
			out[i] = v
		}
	}
	return out
}

func mustNew(t *testing.T, name string, cols ...*dataset.Column) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New(name, cols...)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

var approx = cmpopts.EquateApprox(0, 1e-12)

func TestSurplus(t *testing.T) {
	d := mustNew(t, "finances",
		dataset.NewIntColumn("year", []int64{2015, 2016, 2017}, nil),
		dataset.NewFloatColumn("income", []float64{100, 120, math.NaN()}, nil),
		dataset.NewFloatColumn("expenses", []float64{80, 130, 50}, nil),
	)
	out, err := Surplus(d, "income", "expenses", "surplus")
	if err != nil {
		t.Fatalf("Surplus: %v", err)
	}
	if diff := cmp.Diff([]any{20.0, -10.0, nil}, values(t, out, "surplus")); diff != "" {
		t.Errorf("surplus mismatch (-want +got):\n%s", diff)
	}
	if d.Has("surplus") {
		t.Error("Surplus mutated its input")
	}

	if _, err := Surplus(d, "revenue", "expenses", "surplus"); !errors.Is(err, errors.ErrCodeSchemaMismatch) {
		t.Errorf("unknown column err = %v, want SCHEMA_MISMATCH", err)
	}
}

func TestAccumulate(t *testing.T) {
	d := mustNew(t, "partners",
		dataset.NewFloatColumn("partner_a", []float64{1, 2, 3}, nil),
		dataset.NewFloatColumn("partner_b", []float64{10, math.NaN(), 30}, nil),
	)
	out, err := Accumulate(d, "cr_total", "partner_a", "partner_b")
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if diff := cmp.Diff([]any{11.0, nil, 33.0}, values(t, out, "cr_total")); diff != "" {
		t.Errorf("cr_total mismatch (-want +got):\n%s", diff)
	}
	if _, err := Accumulate(d, "x"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("no columns err = %v, want INVALID_INPUT", err)
	}
}

func TestGroupShareSumsToOne(t *testing.T) {
	d := mustNew(t, "regional",
		dataset.NewIntColumn("year", []int64{2019, 2019, 2019, 2020, 2020}, nil),
		dataset.NewStringColumn("region", []string{"Africa", "Asia", "Europe", "Africa", "Asia"}, nil),
		dataset.NewFloatColumn("expenses", []float64{30, 50, 20, 7, 3}, nil),
	)
	out, err := GroupShare(d, "expenses", []string{"year"}, "share")
	if err != nil {
		t.Fatalf("GroupShare: %v", err)
	}
	want := []any{0.3, 0.5, 0.2, 0.7, 0.3}
	if diff := cmp.Diff(want, values(t, out, "share"), approx); diff != "" {
		t.Errorf("share mismatch (-want +got):\n%s", diff)
	}

	sums := map[string]float64{}
	years, _ := out.Column("year")
	shares, _ := out.Column("share")
	for i := range out.Len() {
		y, _ := years.Key(i)
		s, _ := shares.Float(i)
		sums[y] += s
	}
	for y, s := range sums {
		if math.Abs(s-1) > 1e-9 {
			t.Errorf("shares for %s sum to %v, want 1", y, s)
		}
	}
}

func TestGroupShareZeroTotal(t *testing.T) {
	d := mustNew(t, "civicus",
		dataset.NewStringColumn("rating", []string{"Open", "Open", "Closed"}, nil),
		dataset.NewFloatColumn("population", []float64{0, 0, 5}, nil),
	)
	out, err := GroupShare(d, "population", []string{"rating"}, "share")
	if err != nil {
		t.Fatalf("GroupShare: %v", err)
	}
	if diff := cmp.Diff([]any{nil, nil, 1.0}, values(t, out, "share")); diff != "" {
		t.Errorf("share mismatch (-want +got):\n%s", diff)
	}
}

func TestGlobalShareZeroTotal(t *testing.T) {
	d := mustNew(t, "empty", dataset.NewFloatColumn("population", []float64{0, 0}, nil))
	out, err := GlobalShare(d, "population", "share")
	if err != nil {
		t.Fatalf("GlobalShare: %v", err)
	}
	if diff := cmp.Diff([]any{nil, nil}, values(t, out, "share")); diff != "" {
		t.Errorf("share mismatch (-want +got):\n%s", diff)
	}
}

func TestSumByGlobalShare(t *testing.T) {
	levels := []string{"Open", "Narrowed", "Obstructed", "Repressed", "Closed"}
	d := mustNew(t, "civicus",
		dataset.NewStringColumn("country", []string{"A", "B", "C", "D"}, nil),
		dataset.NewCategoryColumn("rating", levels, []string{"Open", "Closed", "Closed", ""}, []bool{true, true, true, false}),
		dataset.NewFloatColumn("population", []float64{100, 200, 100, 999}, nil),
	)

	totals, err := SumBy(d, "population", "rating")
	if err != nil {
		t.Fatalf("SumBy: %v", err)
	}
	if diff := cmp.Diff([]string{"rating", "population"}, totals.ColumnNames()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"Open", "Closed"}, values(t, totals, "rating")); diff != "" {
		t.Errorf("rating mismatch (-want +got):\n%s", diff)
	}
	rating, _ := totals.Column("rating")
	if diff := cmp.Diff(levels, rating.Levels()); diff != "" {
		t.Errorf("SumBy dropped category levels (-want +got):\n%s", diff)
	}

	shares, err := GlobalShare(totals, "population", "share")
	if err != nil {
		t.Fatalf("GlobalShare: %v", err)
	}
	if diff := cmp.Diff([]any{0.25, 0.75}, values(t, shares, "share"), approx); diff != "" {
		t.Errorf("share mismatch (-want +got):\n%s", diff)
	}
}

func TestZeroPopulationGroupHasNoShare(t *testing.T) {
	d := mustNew(t, "civicus",
		dataset.NewStringColumn("rating", []string{"Open", "Closed", "Narrowed", "Repressed"}, nil),
		dataset.NewFloatColumn("population", []float64{0, 400, 0, math.NaN()}, nil),
	)
	totals, err := SumBy(d, "population", "rating")
	if err != nil {
		t.Fatalf("SumBy: %v", err)
	}
	shares, err := GlobalShare(totals, "population", "share")
	if err != nil {
		t.Fatalf("GlobalShare: %v", err)
	}
	out, err := NullWhereZero(shares, "population", "share")
	if err != nil {
		t.Fatalf("NullWhereZero: %v", err)
	}
	if diff := cmp.Diff([]any{nil, 1.0, nil, nil}, values(t, out, "share"), approx); diff != "" {
		t.Errorf("share mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{0.0, 1.0, 0.0, nil}, values(t, shares, "share"), approx); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

func TestNullWhereZeroMissingColumn(t *testing.T) {
	d := mustNew(t, "t", dataset.NewFloatColumn("v", []float64{0}, nil))
	if _, err := NullWhereZero(d, "v", "share"); !errors.Is(err, errors.ErrCodeSchemaMismatch) {
		t.Errorf("err = %v, want SCHEMA_MISMATCH", err)
	}
}

func TestSumByAllNull(t *testing.T) {
	d := mustNew(t, "t",
		dataset.NewStringColumn("g", []string{"a", "b"}, nil),
		dataset.NewFloatColumn("v", []float64{math.NaN(), 2}, nil),
	)
	out, err := SumBy(d, "v", "g")
	if err != nil {
		t.Fatalf("SumBy: %v", err)
	}
	if diff := cmp.Diff([]any{nil, 2.0}, values(t, out, "v")); diff != "" {
		t.Errorf("sum mismatch (-want +got):\n%s", diff)
	}
}

func TestLeftJoin(t *testing.T) {
	left := mustNew(t, "civicus",
		dataset.NewStringColumn("iso3", []string{"KEN", "FRA", ""}, []bool{true, true, false}),
		dataset.NewStringColumn("rating", []string{"Repressed", "Narrowed", "Open"}, nil),
	)
	right := mustNew(t, "population",
		dataset.NewStringColumn("iso3", []string{"KEN", "DEU", "KEN"}, nil),
		dataset.NewFloatColumn("population", []float64{52, 83, 1}, nil),
	)
	out, err := LeftJoin(left, right, "iso3", "population")
	if err != nil {
		t.Fatalf("LeftJoin: %v", err)
	}
	if diff := cmp.Diff([]any{52.0, nil, nil}, values(t, out, "population")); diff != "" {
		t.Errorf("population mismatch (-want +got):\n%s", diff)
	}
	if out.Name() != "civicus" {
		t.Errorf("Name = %q, want left name", out.Name())
	}
}

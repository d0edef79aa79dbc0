package transform_test

import (
	"fmt"

	"github.com/matzehuels/paperfigs/pkg/dataset"
	"github.com/matzehuels/paperfigs/pkg/transform"
)

func ExampleSurplus() {
	d, _ := dataset.New("finances",
		dataset.NewIntColumn("year", []int64{2015, 2016}, nil),
		dataset.NewFloatColumn("income", []float64{100, 120}, nil),
		dataset.NewFloatColumn("expenses", []float64{80, 130}, nil),
	)
	out, _ := transform.Surplus(d, "income", "expenses", "surplus")
	years, _ := out.Numeric("year")
	surplus, _ := out.Numeric("surplus")
	for i := range out.Len() {
		y, _ := years.Int(i)
		s, _ := surplus.Float(i)
		fmt.Println(y, s)
	}
	// Output:
	// 2015 20
	// 2016 -10
}

func ExampleGlobalShare() {
	d, _ := dataset.New("civicus",
		dataset.NewStringColumn("rating", []string{"Open", "Closed", "Closed"}, nil),
		dataset.NewFloatColumn("population", []float64{100, 200, 100}, nil),
	)
	sums, _ := transform.SumBy(d, "population", "rating")
	out, _ := transform.GlobalShare(sums, "population", "share")
	ratings, _ := out.Text("rating")
	shares, _ := out.Numeric("share")
	for i := range out.Len() {
		r, _ := ratings.Str(i)
		s, _ := shares.Float(i)
		fmt.Printf("%s %.2f\n", r, s)
	}
	// Output:
	// Open 0.25
	// Closed 0.75
}

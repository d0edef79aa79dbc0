// Package transform derives the ratio, accumulation and surplus columns used
// by the paper's figures.
//
// Every function takes a [dataset.Dataset] and returns a new one; the input
// is never modified and derived values are recomputed on each call. The
// functions are meant to be composed as plain calls in the order the data
// flows:
//
//	totals, err := transform.SumBy(civicus, "population", "rating")
//	if err != nil {
//	    return err
//	}
//	shares, err := transform.GlobalShare(totals, "population", "share")
//
// # Missing Values
//
// Null propagates. A null numerator, a null addend or a zero denominator all
// produce a null result, never 0. A group whose total is zero therefore has
// null shares for all its rows.
//
// # Errors
//
// Unknown or mistyped columns fail with SCHEMA_MISMATCH naming the dataset.
package transform

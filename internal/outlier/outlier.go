// Package outlier computes row masks for values that should be dropped from a training
// set: numeric values far outside the interquartile range and categorical values that
// occur too rarely.
//
// Both detectors are pure. They never modify their input and keep no state between
// calls.
package outlier

import (
	"math"
	"sort"
)

// Result is the set of flagged rows for one feature, plus the bounds that were applied.
type Result struct {
	Indices []int
	Total   int
	Lower   float64
	Upper   float64
	bounded bool
}

// Count returns the number of flagged rows.
func (r Result) Count() int {
	return len(r.Indices)
}

// Percent returns the share of flagged rows, from 0 to 100.
func (r Result) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(len(r.Indices)) / float64(r.Total) * 100
}

// Bounded reports whether the result carries numeric bounds.
func (r Result) Bounded() bool {
	return r.bounded
}

// Contains reports whether row i is flagged.
func (r Result) Contains(i int) bool {
	k := sort.SearchInts(r.Indices, i)
	return k < len(r.Indices) && r.Indices[k] == i
}

// Numeric flags values that fall strictly outside [Q1-k*IQR, Q3+k*IQR].
//
// Q1 and Q3 are rounded to the nearest integer (halves to even) before the IQR is taken.
// The lower bound is then raised to domainMin and the upper bound lowered to domainMax
// when they fall outside the feature's domain; clamping never widens a bound.
func Numeric(values []float64, k, domainMin, domainMax float64) Result {
	res := Result{Total: len(values), bounded: true}
	if len(values) == 0 {
		res.Lower, res.Upper = domainMin, domainMax
		return res
	}

	q1 := math.RoundToEven(Percentile(values, 25))
	q3 := math.RoundToEven(Percentile(values, 75))
	iqr := q3 - q1

	lower := q1 - k*iqr
	if lower < domainMin {
		lower = domainMin
	}
	upper := q3 + k*iqr
	if upper > domainMax {
		upper = domainMax
	}
	res.Lower, res.Upper = lower, upper

	for i, v := range values {
		if v < lower || v > upper {
			res.Indices = append(res.Indices, i)
		}
	}
	return res
}

// Categorical flags every row whose value occurs at most minFrequency times.
func Categorical(values []string, minFrequency int) Result {
	res := Result{Total: len(values)}

	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	for i, v := range values {
		if counts[v] <= minFrequency {
			res.Indices = append(res.Indices, i)
		}
	}
	return res
}

// Percentile returns the p-th percentile (0-100) of values using linear interpolation
// between the closest ranks. The input is not modified.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	weight := rank - float64(lower)
	if upper >= n {
		return sorted[lower]
	}
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

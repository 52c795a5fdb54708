package outlier

import (
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of a numeric feature.
type Summary struct {
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	IQR    float64
	Count  int
}

// Describe summarizes values the way the outlier thresholds are tuned: quartiles use the
// same interpolation as Numeric, but are not rounded.
func Describe(values []float64) Summary {
	s := Summary{Count: len(values)}
	if len(values) == 0 {
		return s
	}

	s.Mean, s.Std = stat.MeanStdDev(values, nil)
	s.Min = Percentile(values, 0)
	s.Q1 = Percentile(values, 25)
	s.Median = Percentile(values, 50)
	s.Q3 = Percentile(values, 75)
	s.Max = Percentile(values, 100)
	s.IQR = s.Q3 - s.Q1
	return s
}

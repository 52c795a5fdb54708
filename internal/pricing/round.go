package pricing

import "github.com/shopspring/decimal"

// RoundPrice rounds a predicted price to whole currency units, half away from zero.
func RoundPrice(v float64) int64 {
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

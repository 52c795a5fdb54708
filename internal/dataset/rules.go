package dataset

import "github.com/Veraticus/carprice/internal/schema"

// Rule configures outlier elimination for one feature. Categorical features use
// MinFrequency; numerical features use IQRMultiplier with bounds clamped to the
// feature's schema min/max.
type Rule struct {
	Feature       string
	MinFrequency  int
	IQRMultiplier float64
}

// DefaultRules returns the elimination table applied to training batches, in the order
// the rules run.
func DefaultRules() []Rule {
	return []Rule{
		{Feature: schema.Manufacturer, MinFrequency: 5},
		{Feature: schema.CarModel, MinFrequency: 3},
		{Feature: schema.ProdYear, IQRMultiplier: 7},
		{Feature: schema.Category, MinFrequency: 10},
		{Feature: schema.Mileage, IQRMultiplier: 3},
		{Feature: schema.Price, IQRMultiplier: 7.5},
	}
}

package pricing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/model"
)

// Evaluate scores the model on a held-out dataset that carries the target column.
func (m *Model) Evaluate(test *model.Dataset) (model.Metrics, error) {
	y, err := targets(test)
	if err != nil {
		return model.Metrics{}, err
	}
	if len(y) == 0 {
		return model.Metrics{}, fmt.Errorf("%w: cannot evaluate on an empty dataset", common.ErrInvalidValue)
	}

	pred, err := m.Predict(test)
	if err != nil {
		return model.Metrics{}, err
	}
	return Score(y, pred), nil
}

// Score computes MSE, MAE and R2 of predictions against observed values. R2 is 1 for a
// perfect fit of a constant target and 0 otherwise when the target has no variance.
func Score(observed, predicted []float64) model.Metrics {
	var se, ae float64
	for i := range observed {
		d := predicted[i] - observed[i]
		se += d * d
		ae += math.Abs(d)
	}
	n := float64(len(observed))

	r2 := stat.RSquaredFrom(predicted, observed, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		r2 = 0
		if se == 0 {
			r2 = 1
		}
	}

	return model.Metrics{
		MSE: se / n,
		MAE: ae / n,
		R2:  r2,
	}
}

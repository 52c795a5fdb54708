// Package pricing fits and serves the car price regressor.
//
// The model is ridge regression over a one-hot/standardized encoding of the prepared
// dataset. It consumes datasets produced by the dataset package and predicts the target
// column those datasets were prepared with.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/model"
)

// DefaultLambda is the ridge penalty used when none is configured.
const DefaultLambda = 1.0

// ErrSingular is returned when the regularized normal equations cannot be solved.
var ErrSingular = errors.New("normal equations are singular")

// Model is a fitted price regressor. It is immutable once fitted and safe for
// concurrent use.
type Model struct {
	TrainedAt time.Time
	Target    string
	Columns   []Column
	Weights   []float64
	Intercept float64
	Lambda    float64
	Rows      int
}

// Option configures Fit.
type Option func(*fitConfig)

type fitConfig struct {
	lambda float64
	now    func() time.Time
}

// WithLambda sets the ridge penalty.
func WithLambda(lambda float64) Option {
	return func(c *fitConfig) {
		c.lambda = lambda
	}
}

// WithClock sets the time source stamped on the fitted model.
func WithClock(now func() time.Time) Option {
	return func(c *fitConfig) {
		c.now = now
	}
}

// Fit trains a model on a prepared training dataset.
func Fit(train *model.Dataset, opts ...Option) (*Model, error) {
	cfg := fitConfig{lambda: DefaultLambda, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.lambda < 0 || math.IsNaN(cfg.lambda) {
		return nil, fmt.Errorf("%w: ridge penalty must be non-negative, got %v", common.ErrInvalidConfig, cfg.lambda)
	}

	y, err := targets(train)
	if err != nil {
		return nil, err
	}
	if len(y) == 0 {
		return nil, fmt.Errorf("%w: cannot fit on an empty dataset", common.ErrInvalidValue)
	}

	cols := fitColumns(train)
	data, width, err := encode(cols, train)
	if err != nil {
		return nil, err
	}

	m := &Model{
		TrainedAt: cfg.now().UTC(),
		Target:    train.Target,
		Columns:   cols,
		Lambda:    cfg.lambda,
		Rows:      len(y),
		Weights:   make([]float64, width),
	}

	yMean := mean(y)
	if width == 0 {
		m.Intercept = yMean
		return m, nil
	}

	n := len(y)
	x := mat.NewDense(n, width, data)

	// Center every design column so the intercept is not penalized.
	means := make([]float64, width)
	for j := 0; j < width; j++ {
		means[j] = mat.Sum(x.ColView(j)) / float64(n)
	}
	x.Apply(func(_, j int, v float64) float64 { return v - means[j] }, x)

	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - yMean
	}

	var gram mat.SymDense
	gram.SymOuterK(1, x.T())
	for j := 0; j < width; j++ {
		gram.SetSym(j, j, gram.At(j, j)+cfg.lambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(x.T(), mat.NewVecDense(n, yc))

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, ErrSingular
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSingular, err)
	}

	m.Intercept = yMean
	for j := 0; j < width; j++ {
		m.Weights[j] = w.AtVec(j)
		m.Intercept -= means[j] * m.Weights[j]
	}
	return m, nil
}

// Predict returns the raw predicted target for every row of ds.
func (m *Model) Predict(ds *model.Dataset) ([]float64, error) {
	if m == nil {
		return nil, common.ErrModelNotLoaded
	}

	data, width, err := encode(m.Columns, ds)
	if err != nil {
		return nil, err
	}
	if width != len(m.Weights) {
		return nil, fmt.Errorf("%w: encoded width %d does not match %d weights", common.ErrSchema, width, len(m.Weights))
	}

	out := make([]float64, ds.Len())
	if width == 0 {
		for i := range out {
			out[i] = m.Intercept
		}
		return out, nil
	}

	x := mat.NewDense(ds.Len(), width, data)
	var pred mat.VecDense
	pred.MulVec(x, mat.NewVecDense(width, m.Weights))
	for i := range out {
		out[i] = pred.AtVec(i) + m.Intercept
	}
	return out, nil
}

// PredictPrices returns predictions rounded to whole currency units.
func (m *Model) PredictPrices(ds *model.Dataset) ([]int64, error) {
	raw, err := m.Predict(ds)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(raw))
	for i, v := range raw {
		out[i] = RoundPrice(v)
	}
	return out, nil
}

func targets(ds *model.Dataset) ([]float64, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: no dataset", common.ErrInvalidValue)
	}
	if !ds.HasColumn(ds.Target) {
		return nil, fmt.Errorf("%w: dataset has no target column %q", common.ErrSchema, ds.Target)
	}
	return ds.Numbers(ds.Target)
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

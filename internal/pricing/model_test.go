package pricing_test

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/pricing"
	"github.com/Veraticus/carprice/internal/schema"
	"github.com/Veraticus/carprice/internal/testutil/cars"
)

func prepare(t *testing.T, rows []model.RawRecord, mode model.Mode) *model.Dataset {
	t.Helper()

	s, err := schema.Default()
	require.NoError(t, err)
	p, err := dataset.NewPipeline(s, dataset.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	ds, err := p.Prepare(rows, mode)
	require.NoError(t, err)
	return ds
}

func TestFit_RecoversLinearPrices(t *testing.T) {
	ds := prepare(t, cars.Fleet(90), model.ModeTraining)
	train, test, err := dataset.Split(ds, 0.2, 21)
	require.NoError(t, err)

	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m, err := pricing.Fit(train, pricing.WithLambda(0.01), pricing.WithClock(func() time.Time { return stamp }))
	require.NoError(t, err)

	assert.Equal(t, stamp, m.TrainedAt)
	assert.Equal(t, train.Len(), m.Rows)
	assert.Equal(t, schema.Price, m.Target)

	metrics, err := m.Evaluate(test)
	require.NoError(t, err)
	assert.Greater(t, metrics.R2, 0.99)
	assert.Less(t, metrics.MAE, 250.0)
	assert.GreaterOrEqual(t, metrics.MSE, 0.0)
}

func TestPredictPrices_Camry(t *testing.T) {
	m, err := pricing.Fit(prepare(t, cars.Fleet(90), model.ModeTraining))
	require.NoError(t, err)

	prices, err := m.PredictPrices(prepare(t, []model.RawRecord{cars.Camry()}, model.ModeInference))
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Greater(t, prices[0], int64(5000))
	assert.Less(t, prices[0], int64(40000))
}

func TestPredict_Errors(t *testing.T) {
	m, err := pricing.Fit(prepare(t, cars.Fleet(cars.MinFleet), model.ModeTraining))
	require.NoError(t, err)

	ds := prepare(t, []model.RawRecord{cars.Camry()}, model.ModeInference)
	narrow := model.NewDataset(ds.Mode, ds.Target, ds.Columns[:3], ds.Kinds[:3])
	narrow.Rows = [][]model.Value{ds.Rows[0][:3]}

	_, err = m.Predict(narrow)
	assert.ErrorIs(t, err, common.ErrSchema)

	var missing *pricing.Model
	_, err = missing.Predict(ds)
	assert.ErrorIs(t, err, common.ErrModelNotLoaded)
}

func TestFit_Errors(t *testing.T) {
	ds := prepare(t, cars.Fleet(cars.MinFleet), model.ModeTraining)

	_, err := pricing.Fit(ds, pricing.WithLambda(-1))
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	inference := prepare(t, []model.RawRecord{cars.Camry()}, model.ModeInference)
	_, err = pricing.Fit(inference)
	assert.ErrorIs(t, err, common.ErrSchema, "inference datasets carry no target")
}

func TestSaveLoad(t *testing.T) {
	m, err := pricing.Fit(prepare(t, cars.Fleet(cars.MinFleet), model.ModeTraining))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	loaded, err := pricing.Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Weights, loaded.Weights)
	assert.Equal(t, m.Intercept, loaded.Intercept)
	assert.True(t, m.TrainedAt.Equal(loaded.TrainedAt))

	ds := prepare(t, []model.RawRecord{cars.Camry()}, model.ModeInference)
	want, err := m.Predict(ds)
	require.NoError(t, err)
	got, err := loaded.Predict(ds)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	path := t.TempDir() + "/models/model.gob"
	require.NoError(t, m.SaveFile(path))
	fromFile, err := pricing.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Weights, fromFile.Weights)

	_, err = pricing.Load(bytes.NewBufferString("not a model"))
	assert.Error(t, err)
}

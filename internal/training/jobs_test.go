package training_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/objectstore"
	"github.com/Veraticus/carprice/internal/registry"
	"github.com/Veraticus/carprice/internal/schema"
	"github.com/Veraticus/carprice/internal/testutil"
	"github.com/Veraticus/carprice/internal/testutil/cars"
	"github.com/Veraticus/carprice/internal/training"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	store *objectstore.FSStore
	db    *testutil.TestDB
	jobs  *training.Jobs
	steps []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store: testutil.SetupObjectStore(t),
		db:    testutil.SetupTestDB(t),
	}
	cfg := training.DefaultConfig()
	cfg.Lambda = 0.01
	h.jobs = training.New(h.store, testutil.Pipeline(t), cfg,
		training.WithRunStore(h.db.Storage),
		training.WithClock(func() time.Time { return fixedNow }),
		training.WithProgress(func(step string) { h.steps = append(h.steps, step) }),
		training.WithLogger(testutil.DiscardLogger()),
	)
	return h
}

func TestProcessLatest(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	rows := cars.Fleet(60)
	rows = append(rows, cars.NewBuilder(t).WithManufacturer("Tesla", "Model 3").WithPrice(41000).Build())
	testutil.MustPut(t, h.store, "data/raw/cars.csv", cars.CSV(t, rows))

	version, err := h.jobs.ProcessLatest(ctx)
	require.NoError(t, err)

	assert.Equal(t, training.ProcessSteps, h.steps)
	assert.Equal(t, "data/raw/cars.csv", version.SourceKey)
	assert.Equal(t, "data/processed/cars_processed.csv", version.ProcessedKey)
	assert.Equal(t, 61, version.RowsIn)
	assert.Equal(t, 60, version.RowsOut)
	assert.Equal(t, 1, version.Dropped())
	assert.Equal(t, fixedNow, version.CreatedAt)

	processed, err := objectstore.ReadTable(ctx, h.store, version.ProcessedKey)
	require.NoError(t, err)
	require.Len(t, processed, 60)
	assert.Contains(t, processed[0], schema.Price)
	assert.Contains(t, processed[0], schema.IsTurbo)
	assert.NotContains(t, processed[0], cars.ColumnLevy)

	recorded, err := h.db.Storage.ListDatasetVersions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, version.ProcessedKey, recorded[0].ProcessedKey)
}

func TestProcessLatest_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("no raw dataset", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.jobs.ProcessLatest(ctx)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("everything eliminated", func(t *testing.T) {
		h := newHarness(t)
		testutil.MustPut(t, h.store, "data/raw/cars.csv", cars.CSV(t, cars.Fleet(4)))

		_, err := h.jobs.ProcessLatest(ctx)
		assert.ErrorIs(t, err, common.ErrPreparation)

		objects, err := h.store.List(ctx, "data/processed")
		require.NoError(t, err)
		assert.Empty(t, objects, "nothing is published")
	})
}

func TestTrainLatest(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	testutil.MustPut(t, h.store, "data/raw/cars.csv", cars.CSV(t, cars.Fleet(90)))
	_, err := h.jobs.ProcessLatest(ctx)
	require.NoError(t, err)
	h.steps = nil

	run, err := h.jobs.TrainLatest(ctx)
	require.NoError(t, err)

	assert.Equal(t, training.TrainSteps, h.steps)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "2024-03-01_12:00:00", run.Version)
	assert.Equal(t, "data/processed/cars_processed.csv", run.DatasetKey)
	assert.Equal(t, "models/2024-03-01_12:00:00/model.gob", run.ModelKey)
	assert.Equal(t, 81, run.TrainRows)
	assert.Equal(t, 9, run.TestRows)
	assert.Greater(t, run.Metrics.R2, 0.9)

	var doc training.VersionDocument
	require.NoError(t, objectstore.GetJSON(ctx, h.store, "versions/2024-03-01_12:00:00.json", &doc))
	assert.Equal(t, training.VersionDocument{
		Dataset: run.DatasetKey,
		Model:   "models/2024-03-01_12:00:00",
		Metrics: run.Metrics,
	}, doc)

	assert.Equal(t, run.ID, h.db.MustLatestRun().ID)

	loader := registry.StoreLoader{Store: h.store, Prefix: "models"}
	ref, err := loader.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.Version, ref.Version)

	m, err := loader.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, schema.Price, m.Target)
	assert.Equal(t, fixedNow, m.TrainedAt)
}

func TestTrainLatest_NoProcessedDataset(t *testing.T) {
	h := newHarness(t)
	testutil.MustPut(t, h.store, "data/raw/cars.csv", cars.CSV(t, cars.Fleet(cars.MinFleet)))

	_, err := h.jobs.TrainLatest(context.Background())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateJob(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.jobs.CreateJob(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)

	body := cars.CSV(t, cars.Fleet(cars.MinFleet))
	testutil.MustPut(t, h.store, "data/raw/cars.csv", body)

	key, err := h.jobs.CreateJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, "data/raw/cars_2024-03-01_12:00:00.csv", key)

	copied, err := h.store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, body, copied)

	latest, err := h.store.FindLatest(ctx, "data/raw")
	require.NoError(t, err)
	assert.Equal(t, key, latest.Key, "the snapshot is what the processor picks up next")
}

func TestSnapshotKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "plain name", key: "data/raw/cars.csv", want: "data/raw/cars_2024-03-01_12:00:00.csv"},
		{name: "underscores kept", key: "data/raw/car_price_prediction.csv", want: "data/raw/car_price_prediction_2024-03-01_12:00:00.csv"},
		{name: "earlier snapshot replaced", key: "data/raw/cars_2023-12-31_23:59:59.csv", want: "data/raw/cars_2024-03-01_12:00:00.csv"},
		{name: "top level", key: "cars.csv", want: "cars_2024-03-01_12:00:00.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, training.SnapshotKey(tt.key, fixedNow))
		})
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "data/processed/cars_processed.csv", training.ProcessedKey("data/processed", "data/raw/cars.csv"))
	assert.Equal(t, "versions/2024-03-01_12:00:00.json", training.VersionKey("versions", "2024-03-01_12:00:00"))

	cfg := training.DefaultConfig()
	assert.InDelta(t, 0.1, cfg.TestFraction, 1e-12)
	assert.Equal(t, int64(21), cfg.Seed)
	assert.Equal(t, model.Metrics{}, training.VersionDocument{}.Metrics)
}

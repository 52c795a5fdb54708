package objectstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/objectstore"
	"github.com/Veraticus/carprice/internal/schema"
	"github.com/Veraticus/carprice/internal/testutil/cars"
)

func newFSStore(t *testing.T) *objectstore.FSStore {
	t.Helper()
	store, err := objectstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func touch(t *testing.T, store *objectstore.FSStore, key string, at time.Time) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), key, []byte(key), ""))
	require.NoError(t, os.Chtimes(filepath.Join(store.Root(), filepath.FromSlash(key)), at, at))
}

func TestFSStore_PutGetCopy(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	require.NoError(t, store.Put(ctx, "data/raw/cars.csv", []byte("a,b\n1,2\n"), objectstore.ContentTypeCSV))

	got, err := store.Get(ctx, "data/raw/cars.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))

	require.NoError(t, store.Copy(ctx, "data/raw/cars.csv", "data/raw/cars_copy.csv"))
	copied, err := store.Get(ctx, "data/raw/cars_copy.csv")
	require.NoError(t, err)
	assert.Equal(t, got, copied)

	_, err = store.Get(ctx, "data/raw/missing.csv")
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.Copy(ctx, "data/raw/missing.csv", "x.csv")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFSStore_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	for _, key := range []string{"", "../outside.csv", "/etc/passwd"} {
		err := store.Put(ctx, key, []byte("x"), "")
		assert.ErrorIs(t, err, common.ErrInvalidValue, "key %q", key)
	}
}

func TestFSStore_FindLatest(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	touch(t, store, "data/raw/cars_2024-01-01.csv", base)
	touch(t, store, "data/raw/cars_2024-02-01.csv", base.Add(48*time.Hour))
	touch(t, store, "data/raw/cars_2024-01-15.csv", base.Add(24*time.Hour))
	touch(t, store, "data/processed/newest.csv", base.Add(72*time.Hour))

	latest, err := store.FindLatest(ctx, "data/raw")
	require.NoError(t, err)
	assert.Equal(t, "data/raw/cars_2024-02-01.csv", latest.Key)

	objects, err := store.List(ctx, "data/")
	require.NoError(t, err)
	assert.Len(t, objects, 4)

	_, err = store.FindLatest(ctx, "models")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFSStore_UploadDownload(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	local := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, os.WriteFile(local, []byte("weights"), 0o600))
	require.NoError(t, store.Upload(ctx, local, "models/20240101/model.gob"))

	out := filepath.Join(t.TempDir(), "nested", "model.gob")
	require.NoError(t, store.Download(ctx, "models/20240101/model.gob", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "weights", string(data))

	err = store.Download(ctx, "models/missing/model.gob", out)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTables(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	require.NoError(t, store.Put(ctx, "data/raw/cars.csv", cars.CSV(t, cars.Fleet(cars.MinFleet)), objectstore.ContentTypeCSV))

	in, err := dataset.NewInput(ctx, model.ModeTraining, dataset.Path("data/raw/cars.csv", objectstore.Tables{Store: store}))
	require.NoError(t, err)
	require.Len(t, in.Rows, cars.MinFleet)

	s, err := schema.Default()
	require.NoError(t, err)
	p, err := dataset.NewPipeline(s)
	require.NoError(t, err)
	ds, err := p.Run(in)
	require.NoError(t, err)

	require.NoError(t, objectstore.WriteTable(ctx, store, "data/processed/cars_processed.csv", ds))

	rows, err := objectstore.ReadTable(ctx, store, "data/processed/cars_processed.csv")
	require.NoError(t, err)
	assert.Len(t, rows, ds.Len())
	assert.Equal(t, "Yes", rows[2][schema.IsTurbo])
}

func TestJSONDocuments(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	in := map[string]any{"dataset": "data/processed/a.csv", "r2": 0.5}
	require.NoError(t, objectstore.PutJSON(ctx, store, "versions/1.json", in))

	var out map[string]any
	require.NoError(t, objectstore.GetJSON(ctx, store, "versions/1.json", &out))
	assert.Equal(t, "data/processed/a.csv", out["dataset"])
	assert.InDelta(t, 0.5, out["r2"], 1e-12)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "models/2024/model.gob", objectstore.Join("models", "2024", "model.gob"))
	assert.Equal(t, "data/raw/cars.csv", objectstore.Join("/data/raw/", "cars.csv"))
	assert.Equal(t, "cars_2024", objectstore.Stem("data/raw/cars_2024.csv"))
}

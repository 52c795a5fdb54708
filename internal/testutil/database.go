// Package testutil provides shared test utilities: isolated run stores, object stores
// and schemas that tests across packages set up the same way.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/objectstore"
	"github.com/Veraticus/carprice/internal/schema"
	"github.com/Veraticus/carprice/internal/service"
	"github.com/Veraticus/carprice/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.RunStore
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	runs, err := db.Storage.ListTrainingRuns(ctx, 10)
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustLatestRun returns the newest training run or fails the test.
func (db *TestDB) MustLatestRun() *model.TrainingRun {
	db.t.Helper()
	run, err := db.Storage.GetLatestTrainingRun(context.Background())
	if err != nil {
		db.t.Fatalf("failed to get latest training run: %v", err)
	}
	return run
}

// SetupObjectStore creates an object store rooted in a temporary directory.
func SetupObjectStore(t *testing.T) *objectstore.FSStore {
	t.Helper()

	store, err := objectstore.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create object store: %v", err)
	}
	return store
}

// MustPut stores body under key or fails the test.
func MustPut(t *testing.T, store objectstore.Store, key string, body []byte) {
	t.Helper()
	if err := store.Put(context.Background(), key, body, ""); err != nil {
		t.Fatalf("failed to put %s: %v", key, err)
	}
}

// Pipeline returns a pipeline over the default schema that logs nowhere.
func Pipeline(t *testing.T) *dataset.Pipeline {
	t.Helper()

	s, err := schema.Default()
	if err != nil {
		t.Fatalf("failed to load default schema: %v", err)
	}
	p, err := dataset.NewPipeline(s, dataset.WithLogger(DiscardLogger()))
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	return p
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

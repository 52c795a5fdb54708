package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func makeTestRun(id string, at time.Time) *model.TrainingRun {
	return &model.TrainingRun{
		ID:         id,
		Version:    at.Format("20060102150405"),
		DatasetKey: "data/processed/cars_processed.csv",
		ModelKey:   fmt.Sprintf("models/%s/model.gob", at.Format("20060102150405")),
		TrainRows:  90,
		TestRows:   10,
		Metrics:    model.Metrics{MSE: 1200.5, MAE: 25.25, R2: 0.97},
		CreatedAt:  at,
	}
}

func TestSQLiteStorage_DatasetVersions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		v := &model.DatasetVersion{
			SourceKey:    fmt.Sprintf("data/raw/cars_%d.csv", i),
			ProcessedKey: fmt.Sprintf("data/processed/cars_%d_processed.csv", i),
			RowsIn:       100,
			RowsOut:      90 + i,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.SaveDatasetVersion(ctx, v); err != nil {
			t.Fatalf("Failed to save dataset version: %v", err)
		}
		if v.ID == 0 {
			t.Error("Expected ID to be assigned")
		}
	}

	versions, err := store.ListDatasetVersions(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to list dataset versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(versions))
	}
	if versions[0].SourceKey != "data/raw/cars_2.csv" {
		t.Errorf("Expected newest version first, got %s", versions[0].SourceKey)
	}
	if versions[0].Dropped() != 8 {
		t.Errorf("Expected 8 dropped rows, got %d", versions[0].Dropped())
	}
	if !versions[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("CreatedAt = %v, want %v", versions[0].CreatedAt, base.Add(2*time.Hour))
	}

	if err := store.SaveDatasetVersion(ctx, &model.DatasetVersion{SourceKey: "a"}); !errors.Is(err, ErrInvalidDataset) {
		t.Errorf("Expected ErrInvalidDataset, got %v", err)
	}
}

func TestSQLiteStorage_TrainingRuns(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.GetLatestTrainingRun(ctx); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on empty store, got %v", err)
	}

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first := makeTestRun("run-1", base)
	second := makeTestRun("run-2", base.Add(time.Hour))
	for _, run := range []*model.TrainingRun{first, second} {
		if err := store.SaveTrainingRun(ctx, run); err != nil {
			t.Fatalf("Failed to save training run: %v", err)
		}
	}

	got, err := store.GetTrainingRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to get training run: %v", err)
	}
	if got.ModelKey != first.ModelKey || got.Metrics != first.Metrics {
		t.Errorf("GetTrainingRun() = %+v, want %+v", got, first)
	}

	latest, err := store.GetLatestTrainingRun(ctx)
	if err != nil {
		t.Fatalf("Failed to get latest training run: %v", err)
	}
	if latest.ID != "run-2" {
		t.Errorf("Expected latest run-2, got %s", latest.ID)
	}

	runs, err := store.ListTrainingRuns(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list training runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Errorf("ListTrainingRuns() returned unexpected order: %+v", runs)
	}

	if _, err := store.GetTrainingRun(ctx, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := store.SaveTrainingRun(ctx, makeTestRun("run-1", base)); !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("Expected ErrDuplicateEntry, got %v", err)
	}
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	if err := store.SaveTrainingRun(ctx, makeTestRun("mem", time.Now().UTC())); err != nil {
		t.Errorf("In-memory database not functional: %v", err)
	}
}

func TestSQLiteStorage_Migrations(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	// Test initial migration
	store1, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err2 := store1.Migrate(ctx); err2 != nil {
		t.Fatalf("Initial migration failed: %v", err2)
	}
	_ = store1.Close()

	// Test idempotency - running migrations again should not error
	store2, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer func() { _ = store2.Close() }()

	if err := store2.Migrate(ctx); err != nil {
		t.Fatalf("Repeated migration failed: %v", err)
	}

	version, err := store2.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("Schema version = %d, want %d", version, ExpectedSchemaVersion)
	}

	var indexCount int
	err = store2.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND name='idx_datasets_processed_key'
	`).Scan(&indexCount)
	if err != nil {
		t.Fatalf("Failed to check index: %v", err)
	}
	if indexCount != 1 {
		t.Error("Processed key index was not created")
	}
}

func TestSQLiteStorage_ConcurrentAccess(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			run := makeTestRun(fmt.Sprintf("concurrent-%d", id), base.Add(time.Duration(id)*time.Minute))
			if err := store.SaveTrainingRun(ctx, run); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := store.ListTrainingRuns(ctx, 10); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}

	runs, err := store.ListTrainingRuns(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to list training runs: %v", err)
	}
	if len(runs) != 5 {
		t.Errorf("Expected 5 runs, got %d", len(runs))
	}
}

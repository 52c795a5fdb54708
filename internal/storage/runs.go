package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/model"
)

// SaveDatasetVersion records a prepared dataset and sets its ID.
func (s *SQLiteStorage) SaveDatasetVersion(ctx context.Context, v *model.DatasetVersion) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDatasetVersion(v); err != nil {
		return err
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO datasets (source_key, processed_key, rows_in, rows_out, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, v.SourceKey, v.ProcessedKey, v.RowsIn, v.RowsOut, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save dataset version: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get dataset version id: %w", err)
	}
	v.ID = id
	return nil
}

// ListDatasetVersions returns the most recent dataset versions first.
func (s *SQLiteStorage) ListDatasetVersions(ctx context.Context, limit int) ([]model.DatasetVersion, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_key, processed_key, rows_in, rows_out, created_at
		FROM datasets
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, validateLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []model.DatasetVersion
	for rows.Next() {
		var v model.DatasetVersion
		if err := rows.Scan(&v.ID, &v.SourceKey, &v.ProcessedKey, &v.RowsIn, &v.RowsOut, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// SaveTrainingRun records a completed training run.
func (s *SQLiteStorage) SaveTrainingRun(ctx context.Context, run *model.TrainingRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTrainingRun(run); err != nil {
		return err
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO training_runs (id, version, dataset_key, model_key, train_rows, test_rows, mse, mae, r2, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Version, run.DatasetKey, run.ModelKey, run.TrainRows, run.TestRows,
		run.Metrics.MSE, run.Metrics.MAE, run.Metrics.R2, run.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("training run %s: %w", run.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to save training run: %w", err)
	}
	return nil
}

// GetTrainingRun retrieves a training run by ID.
func (s *SQLiteStorage) GetTrainingRun(ctx context.Context, id string) (*model.TrainingRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	return s.scanRun(s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id))
}

// GetLatestTrainingRun returns the most recent training run.
func (s *SQLiteStorage) GetLatestTrainingRun(ctx context.Context) (*model.TrainingRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.scanRun(s.db.QueryRowContext(ctx, selectRuns+` ORDER BY created_at DESC, rowid DESC LIMIT 1`))
}

// ListTrainingRuns returns the most recent training runs first.
func (s *SQLiteStorage) ListTrainingRuns(ctx context.Context, limit int) ([]model.TrainingRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, validateLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.TrainingRun
	for rows.Next() {
		run, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

const selectRuns = `
	SELECT id, version, dataset_key, model_key, train_rows, test_rows, mse, mae, r2, created_at
	FROM training_runs`

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStorage) scanRun(row scanner) (*model.TrainingRun, error) {
	var run model.TrainingRun
	err := row.Scan(
		&run.ID,
		&run.Version,
		&run.DatasetKey,
		&run.ModelKey,
		&run.TrainRows,
		&run.TestRows,
		&run.Metrics.MSE,
		&run.Metrics.MAE,
		&run.Metrics.R2,
		&run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("training run: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan training run: %w", err)
	}
	return &run, nil
}

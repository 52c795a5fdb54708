package training

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/objectstore"
	"github.com/Veraticus/carprice/internal/pricing"
	"github.com/Veraticus/carprice/internal/registry"
)

// TrainSteps lists the steps TrainLatest reports, in order.
var TrainSteps = []string{"locate", "load", "split", "fit", "evaluate", "upload", "publish", "record"}

// VersionDocument is the JSON document published next to every model.
type VersionDocument struct {
	Dataset string        `json:"dataset"`
	Model   string        `json:"model"`
	Metrics model.Metrics `json:"metrics"`
}

// TrainLatest fits a model on the newest prepared table, evaluates it on a held-out
// split and publishes the model with its version document.
func (j *Jobs) TrainLatest(ctx context.Context) (*model.TrainingRun, error) {
	j.step("locate")
	latest, err := j.store.FindLatest(ctx, j.config.ProcessedPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to find the latest processed dataset: %w", err)
	}

	j.step("load")
	rows, err := objectstore.ReadTable(ctx, j.store, latest.Key)
	if err != nil {
		return nil, err
	}
	ds, err := j.pipeline.Restore(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", latest.Key, err)
	}

	j.step("split")
	train, test, err := splitDataset(ds, j.config)
	if err != nil {
		return nil, err
	}

	j.step("fit")
	m, err := pricing.Fit(train, pricing.WithLambda(j.config.Lambda), pricing.WithClock(j.now))
	if err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}

	j.step("evaluate")
	metrics, err := m.Evaluate(test)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate model: %w", err)
	}
	j.log().Info("Evaluated model", "mse", metrics.MSE, "mae", metrics.MAE, "r2", metrics.R2)

	ts := j.timestamp()
	modelDir := objectstore.Join(j.config.ModelPrefix, ts)
	modelKey := objectstore.Join(modelDir, registry.ModelFile)

	j.step("upload")
	if err := j.uploadModel(ctx, m, modelKey); err != nil {
		return nil, err
	}

	j.step("publish")
	doc := VersionDocument{Dataset: latest.Key, Model: modelDir, Metrics: metrics}
	if err := objectstore.PutJSON(ctx, j.store, VersionKey(j.config.VersionPrefix, ts), doc); err != nil {
		return nil, fmt.Errorf("failed to publish version document: %w", err)
	}

	run := &model.TrainingRun{
		ID:         uuid.NewString(),
		CreatedAt:  j.now().UTC(),
		DatasetKey: latest.Key,
		ModelKey:   modelKey,
		Version:    ts,
		Metrics:    metrics,
		TrainRows:  train.Len(),
		TestRows:   test.Len(),
	}

	j.step("record")
	if j.runs != nil {
		if err := j.runs.SaveTrainingRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to record training run: %w", err)
		}
	}

	j.log().Info("Trained model",
		"id", run.ID,
		"version", run.Version,
		"dataset", run.DatasetKey,
		"model", run.ModelKey,
		"train_rows", run.TrainRows,
		"test_rows", run.TestRows)
	return run, nil
}

// VersionKey names the version document published at ts.
func VersionKey(prefix, ts string) string {
	return objectstore.Join(prefix, ts+".json")
}

func splitDataset(ds *model.Dataset, config Config) (train, test *model.Dataset, err error) {
	train, test, err = dataset.Split(ds, config.TestFraction, config.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to split dataset: %w", err)
	}
	return train, test, nil
}

func (j *Jobs) uploadModel(ctx context.Context, m *pricing.Model, key string) error {
	dir, err := os.MkdirTemp("", "carprice-model-*")
	if err != nil {
		return fmt.Errorf("failed to create model work directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	local := filepath.Join(dir, registry.ModelFile)
	if err := m.SaveFile(local); err != nil {
		return err
	}
	if err := j.store.Upload(ctx, local, key); err != nil {
		return fmt.Errorf("failed to upload model: %w", err)
	}
	return nil
}

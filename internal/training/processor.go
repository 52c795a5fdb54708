package training

import (
	"context"
	"fmt"

	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/objectstore"
)

// ProcessSteps lists the steps ProcessLatest reports, in order.
var ProcessSteps = []string{"locate", "load", "prepare", "publish", "record"}

// ProcessedKey names the prepared table derived from a raw table.
func ProcessedKey(prefix, rawKey string) string {
	return objectstore.Join(prefix, objectstore.Stem(rawKey)+"_processed.csv")
}

// ProcessLatest prepares the newest raw table in training mode and stores the result
// under the processed prefix.
func (j *Jobs) ProcessLatest(ctx context.Context) (*model.DatasetVersion, error) {
	j.step("locate")
	latest, err := j.store.FindLatest(ctx, j.config.RawPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to find the latest raw dataset: %w", err)
	}

	j.step("load")
	in, err := dataset.NewInput(ctx, model.ModeTraining, dataset.Path(latest.Key, objectstore.Tables{Store: j.store}))
	if err != nil {
		return nil, err
	}

	j.step("prepare")
	ds, err := j.pipeline.Run(in)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s: %w", latest.Key, err)
	}

	j.step("publish")
	key := ProcessedKey(j.config.ProcessedPrefix, latest.Key)
	if err := objectstore.WriteTable(ctx, j.store, key, ds); err != nil {
		return nil, err
	}

	version := &model.DatasetVersion{
		CreatedAt:    j.now().UTC(),
		SourceKey:    latest.Key,
		ProcessedKey: key,
		RowsIn:       len(in.Rows),
		RowsOut:      ds.Len(),
	}

	j.step("record")
	if j.runs != nil {
		if err := j.runs.SaveDatasetVersion(ctx, version); err != nil {
			return nil, fmt.Errorf("failed to record dataset version: %w", err)
		}
	}

	j.log().Info("Processed dataset",
		"source", version.SourceKey,
		"processed", version.ProcessedKey,
		"rows_in", version.RowsIn,
		"rows_out", version.RowsOut)
	return version, nil
}

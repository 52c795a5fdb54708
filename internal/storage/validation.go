package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/carprice/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDataset     = errors.New("invalid dataset version")
	ErrInvalidTrainingRun = errors.New("invalid training run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateDatasetVersion(v *model.DatasetVersion) error {
	if v == nil {
		return fmt.Errorf("%w: dataset version", ErrNilParameter)
	}
	if v.SourceKey == "" {
		return fmt.Errorf("%w: missing source key", ErrInvalidDataset)
	}
	if v.ProcessedKey == "" {
		return fmt.Errorf("%w: missing processed key", ErrInvalidDataset)
	}
	if v.RowsOut < 0 || v.RowsIn < v.RowsOut {
		return fmt.Errorf("%w: rows out (%d) must be between 0 and rows in (%d)", ErrInvalidDataset, v.RowsOut, v.RowsIn)
	}
	return nil
}

func validateTrainingRun(run *model.TrainingRun) error {
	if run == nil {
		return fmt.Errorf("%w: training run", ErrNilParameter)
	}
	if run.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTrainingRun)
	}
	if run.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidTrainingRun)
	}
	if run.DatasetKey == "" || run.ModelKey == "" {
		return fmt.Errorf("%w: missing dataset or model key", ErrInvalidTrainingRun)
	}
	if run.TrainRows <= 0 || run.TestRows <= 0 {
		return fmt.Errorf("%w: train and test rows must be positive", ErrInvalidTrainingRun)
	}
	return nil
}

func validateLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

// Package service defines the interfaces shared between application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/carprice/internal/model"
)

// RunStore defines the contract for the training history persistence layer.
type RunStore interface {
	// Dataset versions written by the processor job
	SaveDatasetVersion(ctx context.Context, version *model.DatasetVersion) error
	ListDatasetVersions(ctx context.Context, limit int) ([]model.DatasetVersion, error)

	// Training runs written by the trainer job
	SaveTrainingRun(ctx context.Context, run *model.TrainingRun) error
	GetTrainingRun(ctx context.Context, id string) (*model.TrainingRun, error)
	GetLatestTrainingRun(ctx context.Context) (*model.TrainingRun, error)
	ListTrainingRuns(ctx context.Context, limit int) ([]model.TrainingRun, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ProgressFunc is called by long-running jobs when they enter a new step.
type ProgressFunc func(step string)

// Package training runs the batch jobs behind the pricing service: the processor
// turns the newest raw table into a prepared training table, the trainer fits and
// publishes a model from the newest prepared table, and CreateJob snapshots the raw
// table to trigger both.
package training

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/objectstore"
	"github.com/Veraticus/carprice/internal/service"
)

// TimestampLayout names dataset snapshots, model directories and version documents.
const TimestampLayout = "2006-01-02_15:04:05"

// Config holds the key layout and split parameters of the jobs.
type Config struct {
	RawPrefix       string
	ProcessedPrefix string
	ModelPrefix     string
	VersionPrefix   string
	TestFraction    float64
	Seed            int64
	Lambda          float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		RawPrefix:       "data/raw",
		ProcessedPrefix: "data/processed",
		ModelPrefix:     "models",
		VersionPrefix:   "versions",
		TestFraction:    0.1,
		Seed:            21,
		Lambda:          1.0,
	}
}

// Jobs runs the processor, trainer and snapshot jobs against one object store.
type Jobs struct {
	store    objectstore.Store
	runs     service.RunStore
	pipeline *dataset.Pipeline
	now      func() time.Time
	progress service.ProgressFunc
	logger   *slog.Logger
	config   Config
}

// Option configures Jobs.
type Option func(*Jobs)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(j *Jobs) {
		j.now = now
	}
}

// WithProgress reports each step a job enters.
func WithProgress(fn service.ProgressFunc) Option {
	return func(j *Jobs) {
		j.progress = fn
	}
}

// WithLogger sets the logger used for job diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Jobs) {
		j.logger = logger
	}
}

// WithRunStore records dataset versions and training runs.
func WithRunStore(runs service.RunStore) Option {
	return func(j *Jobs) {
		j.runs = runs
	}
}

// New creates the jobs with the given dependencies.
func New(store objectstore.Store, pipeline *dataset.Pipeline, config Config, opts ...Option) *Jobs {
	j := &Jobs{
		store:    store,
		pipeline: pipeline,
		config:   config,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Jobs) log() *slog.Logger {
	if j.logger != nil {
		return j.logger
	}
	return slog.Default()
}

func (j *Jobs) step(name string) {
	if j.progress != nil {
		j.progress(name)
	}
	j.log().Debug("Job step", "step", name)
}

func (j *Jobs) timestamp() string {
	return j.now().UTC().Format(TimestampLayout)
}

// CreateJob copies the newest raw table to a new timestamped key next to it. The new
// object becomes the latest raw table, which is what the processor picks up.
func (j *Jobs) CreateJob(ctx context.Context) (string, error) {
	latest, err := j.store.FindLatest(ctx, j.config.RawPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to find the latest raw dataset: %w", err)
	}

	dst := SnapshotKey(latest.Key, j.now())
	if err := j.store.Copy(ctx, latest.Key, dst); err != nil {
		return "", fmt.Errorf("failed to snapshot %s: %w", latest.Key, err)
	}

	j.log().Info("Created training job", "source", latest.Key, "snapshot", dst)
	return dst, nil
}

// SnapshotKey names a copy of key taken at ts. A timestamp suffix left by an earlier
// snapshot is replaced rather than stacked.
func SnapshotKey(key string, ts time.Time) string {
	dir := path.Dir(key)
	name := objectstore.Stem(key)

	if n := len(name) - len(TimestampLayout) - 1; n > 0 && name[n] == '_' {
		if _, err := time.Parse(TimestampLayout, name[n+1:]); err == nil {
			name = name[:n]
		}
	}

	file := fmt.Sprintf("%s_%s.csv", name, ts.UTC().Format(TimestampLayout))
	if dir == "." {
		return file
	}
	return objectstore.Join(dir, file)
}

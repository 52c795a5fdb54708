package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/config"
	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/objectstore"
	"github.com/Veraticus/carprice/internal/registry"
	"github.com/Veraticus/carprice/internal/schema"
	"github.com/Veraticus/carprice/internal/service"
	"github.com/Veraticus/carprice/internal/storage"
	"github.com/Veraticus/carprice/internal/training"
)

// loadConfig reads the application configuration from the global viper instance.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if errors.Is(err, common.ErrInvalidConfig) || errors.Is(err, common.ErrMissingConfig) {
		return nil, common.NewUserError("Configuration error: "+err.Error(), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// initStorage opens the run history database and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (service.RunStore, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openObjectStore connects to the configured storage backend.
func openObjectStore(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendS3:
		return objectstore.NewS3Store(ctx, objectstore.S3Config{
			Bucket:   cfg.Storage.Bucket,
			Region:   cfg.Storage.Region,
			Profile:  cfg.Storage.Profile,
			Endpoint: cfg.Storage.Endpoint,
			Retry:    cfg.RetryOptions(),
		})
	default:
		return objectstore.NewFSStore(cfg.Storage.Root)
	}
}

// loadSchema reads the configured schema file, or the embedded one when none is set.
func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return schema.Default()
	}
	return schema.LoadFile(path)
}

// newPipeline builds the preparation pipeline over the configured schema.
func newPipeline(cfg *config.Config) (*dataset.Pipeline, error) {
	s, err := loadSchema(cfg.Schema.Path)
	if err != nil {
		return nil, err
	}
	return dataset.NewPipeline(s, dataset.WithLogger(slog.Default()))
}

// jobsConfig maps the configuration onto the batch job layout.
func jobsConfig(cfg *config.Config) training.Config {
	return training.Config{
		RawPrefix:       cfg.Training.RawPrefix,
		ProcessedPrefix: cfg.Training.ProcessedPrefix,
		ModelPrefix:     cfg.Model.Prefix,
		VersionPrefix:   cfg.Training.VersionPrefix,
		TestFraction:    cfg.Training.TestFraction,
		Seed:            cfg.Training.Seed,
		Lambda:          cfg.Model.Ridge,
	}
}

// modelLoader picks where served models come from: a fixed file in the local
// environment, the newest published object in the cloud.
func modelLoader(cfg *config.Config, store objectstore.Store) registry.Loader {
	if cfg.Environment == config.EnvLocal {
		return registry.FileLoader{Path: cfg.Model.Path}
	}
	return registry.StoreLoader{
		Store:    store,
		Prefix:   cfg.Model.Prefix,
		CacheDir: cfg.ModelCacheDir(),
	}
}

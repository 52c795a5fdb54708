// Package registry owns the model served by the API and swaps it when a newer one is
// published.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/pricing"
)

// Ref identifies one published model.
type Ref struct {
	Version  string
	Location string
}

// Loader finds and fetches published models.
type Loader interface {
	// Latest returns the newest published model, or common.ErrNotFound.
	Latest(ctx context.Context) (Ref, error)
	Load(ctx context.Context, ref Ref) (*pricing.Model, error)
}

// Handle is an immutable snapshot of the served model.
type Handle struct {
	Model   *pricing.Model
	Version string
}

// ModelRegistry guards the (version, model) pair behind a read/write lock. Readers
// never observe a partially swapped pair.
type ModelRegistry struct {
	loader  Loader
	logger  *slog.Logger
	model   *pricing.Model
	version string
	mu      sync.RWMutex
}

// Option configures a ModelRegistry.
type Option func(*ModelRegistry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ModelRegistry) {
		r.logger = logger
	}
}

// New creates an empty registry. Nothing is loaded until ReloadIfStale is called.
func New(loader Loader, opts ...Option) *ModelRegistry {
	r := &ModelRegistry{loader: loader, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Current returns the served model without touching the loader.
func (r *ModelRegistry) Current() (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.model == nil {
		return Handle{}, common.ErrModelNotLoaded
	}
	return Handle{Model: r.model, Version: r.version}, nil
}

// ReloadIfStale asks the loader for the newest model and swaps it in when its version
// differs from the served one. The write lock is only taken for a swap.
func (r *ModelRegistry) ReloadIfStale(ctx context.Context) (Handle, error) {
	ref, err := r.loader.Latest(ctx)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to find latest model: %w", err)
	}

	r.mu.RLock()
	fresh := r.model != nil && r.version == ref.Version
	current := Handle{Model: r.model, Version: r.version}
	r.mu.RUnlock()
	if fresh {
		return current, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have swapped while we waited for the lock.
	if r.model != nil && r.version == ref.Version {
		return Handle{Model: r.model, Version: r.version}, nil
	}

	m, err := r.loader.Load(ctx, ref)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to load model %s: %w", ref.Version, err)
	}

	previous := r.version
	r.model = m
	r.version = ref.Version

	r.logger.Info("Model loaded",
		"version", ref.Version,
		"location", ref.Location,
		"previous", previous)

	return Handle{Model: m, Version: ref.Version}, nil
}

// Get reloads when stale and falls back to the served model when the loader fails.
func (r *ModelRegistry) Get(ctx context.Context) (Handle, error) {
	h, err := r.ReloadIfStale(ctx)
	if err == nil {
		return h, nil
	}

	current, currentErr := r.Current()
	if currentErr != nil {
		return Handle{}, fmt.Errorf("%w: %w", common.ErrModelNotLoaded, err)
	}

	common.LogError(ctx, err, "Model reload failed, serving previous version", common.Fields{
		"version": current.Version,
	})
	return current, nil
}

package pricing

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// formatVersion guards against decoding a model written by an incompatible encoder.
const formatVersion = 1

type envelope struct {
	Model   *Model
	Version int
}

// Save writes the model to w.
func (m *Model) Save(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(envelope{Version: formatVersion, Model: m}); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Model, error) {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("unsupported model format version %d", env.Version)
	}
	if env.Model == nil {
		return nil, fmt.Errorf("model file holds no model")
	}
	return env.Model, nil
}

// SaveFile writes the model to path, creating parent directories.
func (m *Model) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	if err := m.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a model from path.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

package registry

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/Veraticus/carprice/internal/objectstore"
	"github.com/Veraticus/carprice/internal/pricing"
)

// ModelFile is the object name models are published under.
const ModelFile = "model.gob"

// StoreLoader finds the newest model object under a prefix. The version is the name of
// the directory holding the model file.
type StoreLoader struct {
	Store objectstore.Store
	// Prefix is the key prefix models are published under, such as "models".
	Prefix string
	// CacheDir, when set, receives a local copy of each downloaded model.
	CacheDir string
}

// Latest implements Loader.
func (l StoreLoader) Latest(ctx context.Context) (Ref, error) {
	obj, err := l.Store.FindLatest(ctx, l.Prefix)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Version: VersionOf(obj.Key), Location: obj.Key}, nil
}

// Load implements Loader.
func (l StoreLoader) Load(ctx context.Context, ref Ref) (*pricing.Model, error) {
	if l.CacheDir != "" {
		local := filepath.Join(l.CacheDir, filepath.FromSlash(ref.Location))
		if err := l.Store.Download(ctx, ref.Location, local); err != nil {
			return nil, err
		}
		return pricing.LoadFile(local)
	}

	obj, err := l.Store.Get(ctx, ref.Location)
	if err != nil {
		return nil, err
	}
	return pricing.Load(bytes.NewReader(obj))
}

// VersionOf derives a model version from its key: "models/2024-03-01_12:00:00/model.gob"
// yields "2024-03-01_12:00:00". Keys without a directory fall back to the file stem.
func VersionOf(key string) string {
	dir := path.Dir(key)
	if dir == "." || dir == "/" {
		return objectstore.Stem(key)
	}
	return path.Base(dir)
}

// FileLoader serves a fixed local model file. Replacing the file changes its version,
// so the registry picks it up on the next reload.
type FileLoader struct {
	Path string
}

// Latest implements Loader.
func (l FileLoader) Latest(_ context.Context) (Ref, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		return Ref{}, fmt.Errorf("model file %s: %w", l.Path, err)
	}
	return Ref{
		Version:  info.ModTime().UTC().Format(time.RFC3339Nano),
		Location: l.Path,
	}, nil
}

// Load implements Loader.
func (l FileLoader) Load(_ context.Context, ref Ref) (*pricing.Model, error) {
	return pricing.LoadFile(ref.Location)
}

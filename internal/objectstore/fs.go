package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/carprice/internal/common"
)

// FSStore maps keys onto files below a root directory.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: storage root is required", common.ErrInvalidConfig)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// Root returns the directory keys are resolved against.
func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: key %q escapes the storage root", common.ErrInvalidValue, key)
	}
	return filepath.Join(s.root, clean), nil
}

// List implements Store.
func (s *FSStore) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{Key: key, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}
	return objects, nil
}

// FindLatest implements Store.
func (s *FSStore) FindLatest(ctx context.Context, prefix string) (Object, error) {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return Object{}, err
	}
	return Latest(objects, prefix)
}

// Get implements Store.
func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p) //nolint:gosec // confined to the storage root
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("object %q: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return data, nil
}

// Put implements Store.
func (s *FSStore) Put(_ context.Context, key string, body []byte, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", key, err)
	}
	if err := os.WriteFile(p, body, 0o600); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Copy implements Store.
func (s *FSStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	body, err := s.Get(ctx, srcKey)
	if err != nil {
		return err
	}
	return s.Put(ctx, dstKey, body, "")
}

// Download implements Store.
func (s *FSStore) Download(_ context.Context, key, localPath string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	src, err := os.Open(p) //nolint:gosec // confined to the storage root
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("object %q: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", key, err)
	}
	defer func() { _ = src.Close() }()

	return writeFile(localPath, src)
}

// Upload implements Store.
func (s *FSStore) Upload(ctx context.Context, localPath, key string) error {
	body, err := os.ReadFile(localPath) //nolint:gosec // path is provided by the caller
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	return s.Put(ctx, key, body, "")
}

func writeFile(localPath string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", localPath, err)
	}
	dst, err := os.Create(localPath) //nolint:gosec // path is provided by the caller
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	return dst.Close()
}

// Package objectstore reads and writes datasets, models and version documents in a
// bucket-like key space. S3Store talks to AWS S3; FSStore maps keys onto a local
// directory for the local environment and tests.
package objectstore

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/carprice/internal/common"
)

// Content types used for stored objects.
const (
	ContentTypeCSV    = "text/csv"
	ContentTypeJSON   = "application/json"
	ContentTypeBinary = "application/octet-stream"
)

// Object describes one stored object.
type Object struct {
	LastModified time.Time
	Key          string
	Size         int64
}

// Store is the object storage contract used by the jobs and the model registry.
type Store interface {
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)

	// FindLatest returns the most recently modified object under prefix, or
	// common.ErrNotFound when there is none.
	FindLatest(ctx context.Context, prefix string) (Object, error)

	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Copy(ctx context.Context, srcKey, dstKey string) error

	// Download writes the object to a local file, creating parent directories.
	Download(ctx context.Context, key, localPath string) error

	// Upload stores a local file under key.
	Upload(ctx context.Context, localPath, key string) error
}

// Latest picks the most recently modified object. Ties go to the greater key so the
// choice does not depend on listing order.
func Latest(objects []Object, prefix string) (Object, error) {
	if len(objects) == 0 {
		return Object{}, fmt.Errorf("no objects under %q: %w", prefix, common.ErrNotFound)
	}

	sorted := append([]Object(nil), objects...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].LastModified.Equal(sorted[j].LastModified) {
			return sorted[i].LastModified.Before(sorted[j].LastModified)
		}
		return sorted[i].Key < sorted[j].Key
	})
	return sorted[len(sorted)-1], nil
}

// Join builds a key from slash-separated parts.
func Join(parts ...string) string {
	return strings.TrimPrefix(path.Join(parts...), "/")
}

// Stem returns the base name of a key without its extension.
func Stem(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}

package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when a key has no object.
var ErrObjectNotFound = errors.New("object not found")

// Object is an open stored object. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens an object in the configured bucket.
func (s *Storage) Get(ctx context.Context, key string) (Object, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// ImageKey returns a fresh object key for an image uploaded to collection.
// The extension of filename is kept so stored objects stay recognisable.
func ImageKey(collection, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " ?#%") {
		ext = ""
	}
	return path.Join("images", collection, uuid.NewString()+ext)
}

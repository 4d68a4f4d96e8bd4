package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps objects in process memory.
type MemoryStorage struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
}

// NewMemoryStorage returns an empty in-memory bucket.
func NewMemoryStorage(bucket string) *MemoryStorage {
	return &MemoryStorage{bucket: bucket, objects: make(map[string]memoryObject)}
}

// EnsureBucket is a no-op.
func (m *MemoryStorage) EnsureBucket(context.Context) error {
	return nil
}

// Put stores the content of r under key.
func (m *MemoryStorage) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	return nil
}

// Get opens the object stored under key.
func (m *MemoryStorage) Get(_ context.Context, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
	}, nil
}

// Delete removes the object stored under key.
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Bucket returns the bucket name.
func (m *MemoryStorage) Bucket() string {
	return m.bucket
}

// Len returns the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

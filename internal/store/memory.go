package store

import (
	"context"
	"sync"
	"time"

	"github.com/jjudge-oj/imageforms/types"
)

// MemoryRecordRepository keeps records in process memory. It backs local
// development and tests; contents are lost on restart.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records []types.StoredRecord
}

func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{}
}

func (r *MemoryRecordRepository) List(_ context.Context, collection string) ([]types.StoredRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.StoredRecord, 0)
	for _, rec := range r.records {
		if rec.Collection == collection {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

func (r *MemoryRecordRepository) Get(_ context.Context, collection, id string) (types.StoredRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(collection, id)
	if i < 0 {
		return types.StoredRecord{}, ErrNotFound
	}
	return cloneRecord(r.records[i]), nil
}

func (r *MemoryRecordRepository) Create(_ context.Context, rec types.StoredRecord) (types.StoredRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.records = append(r.records, cloneRecord(rec))
	return rec, nil
}

func (r *MemoryRecordRepository) Update(_ context.Context, rec types.StoredRecord) (types.StoredRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(rec.Collection, rec.ID)
	if i < 0 {
		return types.StoredRecord{}, ErrNotFound
	}
	rec.CreatedAt = r.records[i].CreatedAt
	rec.UpdatedAt = time.Now()
	r.records[i] = cloneRecord(rec)
	return rec, nil
}

func (r *MemoryRecordRepository) Delete(_ context.Context, collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(collection, id)
	if i < 0 {
		return ErrNotFound
	}
	r.records = append(r.records[:i], r.records[i+1:]...)
	return nil
}

func (r *MemoryRecordRepository) indexOf(collection, id string) int {
	for i, rec := range r.records {
		if rec.Collection == collection && rec.ID == id {
			return i
		}
	}
	return -1
}

func cloneRecord(rec types.StoredRecord) types.StoredRecord {
	rec.ImageKeys = append([]string(nil), rec.ImageKeys...)
	rec.Content = append([]string(nil), rec.Content...)
	return rec
}

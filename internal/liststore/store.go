// Package liststore keeps the in-memory list of records shown by a screen.
// The list mirrors the server at the last fetch and is then patched locally
// after each mutation; it is never re-synced or re-sorted.
package liststore

import (
	"context"
	"sync"

	"github.com/jjudge-oj/imageforms/types"
)

// Lister fetches the current records from the server.
type Lister interface {
	List(ctx context.Context) ([]types.Record, error)
}

// Store is an ordered list of records. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records []types.Record
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Initialize replaces the list with the records returned by lister. On
// failure the list is left empty and the error is returned.
func (s *Store) Initialize(ctx context.Context, lister Lister) error {
	records, err := lister.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.records = nil
		return err
	}
	s.records = append([]types.Record(nil), records...)
	return nil
}

// Append adds rec at the end of the list.
func (s *Store) Append(rec types.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// ReplaceByID replaces every entry whose ID is id with rec and reports
// whether any entry matched.
func (s *Store) ReplaceByID(id string, rec types.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i] = rec
			found = true
		}
	}
	return found
}

// RemoveByID drops every entry whose ID is id, keeping the relative order
// of the rest, and reports whether any entry was removed.
func (s *Store) RemoveByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	removed := len(kept) != len(s.records)
	clear(s.records[len(kept):])
	s.records = kept
	return removed
}

// Get returns the first entry with the given id.
func (s *Store) Get(id string) (types.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return types.Record{}, false
}

// Records returns a copy of the list.
func (s *Store) Records() []types.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Record(nil), s.records...)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

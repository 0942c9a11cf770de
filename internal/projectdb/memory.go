package projectdb

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory store. It is the default backend and the shared
// record bookkeeping for the file-backed store.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*ProjectRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*ProjectRecord)}
}

// Put inserts or replaces a record.
func (s *Memory) Put(_ context.Context, rec *ProjectRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	stored := rec.Clone()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[stored.ID] = stored
	return nil
}

// Get returns a record by project id.
func (s *Memory) Get(_ context.Context, id string) (*ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return rec.Clone(), nil
}

// List returns all records, newest first.
func (s *Memory) List(_ context.Context) ([]*ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(), nil
}

func (s *Memory) listLocked() []*ProjectRecord {
	out := make([]*ProjectRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sortNewestFirst(out)
	return out
}

// FindSimilar ranks same-tool records by context similarity.
func (s *Memory) FindSimilar(_ context.Context, tool string, attrs map[string]any, k int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankSimilar(s.listLocked(), tool, attrs, k), nil
}

// Len returns the number of stored records.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close implements Store.
func (s *Memory) Close() error {
	return nil
}

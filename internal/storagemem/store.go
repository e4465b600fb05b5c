// Package storagemem is an in-memory Cache used by tests in place of a live
// MongoDB instance. Grounded on original_source's storage/sink.rs SinkStore,
// generalized from a single-canned-response stub into a real map-backed
// store so ingestion-engine tests can assert on freshness-gate and
// updated_at behavior, not just on a fixed response.
package storagemem

import (
	"context"
	"sync"

	"github.com/ternarybob/mmreplicate/internal/model"
)

type key struct {
	typ string
	id  string
}

// Store is a mutex-protected map keyed by (type, id).
type Store struct {
	mu   sync.RWMutex
	rows map[key]model.Object
}

// New returns an empty Store.
func New() *Store {
	return &Store{rows: make(map[key]model.Object)}
}

func (s *Store) Get(_ context.Context, typ, id string) (model.Object, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.rows[key{typ, id}]
	return obj, ok, nil
}

func (s *Store) Put(_ context.Context, obj model.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[key{obj.Type, obj.ID}] = obj
	return nil
}

func (s *Store) UpdatedAt(_ context.Context) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cacheable := make(map[string]bool, len(model.CacheableTypes))
	for _, t := range model.CacheableTypes {
		cacheable[t] = true
	}

	var max int64
	found := false
	for k, obj := range s.rows {
		if !cacheable[k.typ] {
			continue
		}
		ts := obj.UpdatedAt().Unix()
		if !found || ts > max {
			max = ts
			found = true
		}
	}
	return max, found, nil
}

// Len returns the number of rows stored, for test assertions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// All returns a snapshot copy of every stored row, for test assertions.
func (s *Store) All() []model.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Object, 0, len(s.rows))
	for _, obj := range s.rows {
		out = append(out, obj)
	}
	return out
}

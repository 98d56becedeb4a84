package session

import (
	"context"
	"sync"
)

// InMemStore is a Store kept in process memory, suitable for tests, examples
// and single-process deployments.  It is concurrently safe.
type InMemStore struct {
	mu sync.Mutex
	c  map[string]map[string][]byte
}

var _ Store = (*InMemStore)(nil)

// NewInMemStore creates an empty in-memory store.
func NewInMemStore() *InMemStore {
	return &InMemStore{
		c: map[string]map[string][]byte{},
	}
}

// Get implements Store.Get and returns a copy of the stored value.
func (s *InMemStore) Get(ctx context.Context, sessionID string, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.c[sessionID]
	if !ok {
		return nil, false, nil
	}
	v, ok := entry[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put implements Store.Put; all values land under one lock acquisition.
func (s *InMemStore) Put(ctx context.Context, sessionID string, values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.c[sessionID]
	if !ok {
		entry = map[string][]byte{}
		s.c[sessionID] = entry
	}
	for k, v := range values {
		cp := make([]byte, len(v))
		copy(cp, v)
		entry[k] = cp
	}
	return nil
}

// Delete implements Store.Delete.
func (s *InMemStore) Delete(ctx context.Context, sessionID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.c[sessionID]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(entry, k)
	}
	if len(entry) == 0 {
		delete(s.c, sessionID)
	}
	return nil
}

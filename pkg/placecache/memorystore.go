package placecache

import (
	"context"
	"sync"
)

// InMemoryStore is a thread-safe, in-memory implementation of the Store
// interface. It is the default backing for a single-process deployment.
type InMemoryStore struct {
	sync.RWMutex
	entries map[Key]Entry
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[Key]Entry),
	}
}

// Get returns the entry for a key, if any.
func (s *InMemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	s.RLock()
	defer s.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok, nil
}

// Put stores an entry, overwriting any existing one for the key.
func (s *InMemoryStore) Put(_ context.Context, key Key, entry Entry) error {
	s.Lock()
	defer s.Unlock()
	s.entries[key] = entry
	return nil
}

// Delete removes the entry for a key. Deleting a missing key is not an error.
func (s *InMemoryStore) Delete(_ context.Context, key Key) error {
	s.Lock()
	defer s.Unlock()
	delete(s.entries, key)
	return nil
}

// Clear drops every entry.
func (s *InMemoryStore) Clear(_ context.Context) error {
	s.Lock()
	defer s.Unlock()
	s.entries = make(map[Key]Entry)
	return nil
}

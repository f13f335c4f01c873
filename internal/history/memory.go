package history

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps recent lists in process memory. Lists are lost on
// restart.
type MemoryStore struct {
	capacity int

	mu      sync.Mutex
	lists   map[string][]Entry
	updated map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore returns an empty store. A capacity <= 0 means
// DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		lists:    make(map[string][]Entry),
		updated:  make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *MemoryStore) List(_ context.Context, clientID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEntries(s.lists[clientID]), nil
}

func (s *MemoryStore) Add(_ context.Context, clientID string, e Entry) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := Push(s.lists[clientID], e, s.capacity)
	s.lists[clientID] = list
	s.updated[clientID] = s.now()
	return cloneEntries(list), nil
}

func (s *MemoryStore) Clear(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, clientID)
	delete(s.updated, clientID)
	return nil
}

// Prune drops lists not updated since cutoff.
func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, at := range s.updated {
		if at.Before(cutoff) {
			delete(s.lists, id)
			delete(s.updated, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneEntries(list []Entry) []Entry {
	out := make([]Entry, len(list))
	copy(out, list)
	return out
}

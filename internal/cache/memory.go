package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is the freshness window applied when a backend is constructed
// without an explicit one.
const DefaultTTL = 24 * time.Hour

type memoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemory builds the in-process Store backend used for the local profile and
// for tests. Entries are cloned on the way in and out so callers cannot share
// slot slices with the store.
func NewMemory(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryStore{ttl: ttl, now: time.Now, entries: make(map[string]Entry)}
}

func (s *memoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if entry.ExpiredAt(s.now()) {
		delete(s.entries, key)
		return Entry{}, false, nil
	}
	return cloneEntry(entry), true, nil
}

func (s *memoryStore) Upsert(_ context.Context, entry Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.CreatedAt = s.now().UTC()
	entry.ExpiresAt = entry.CreatedAt.Add(s.ttl)
	s.entries[entry.Key] = cloneEntry(entry)
	return entry, nil
}

func (s *memoryStore) DeleteByKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memoryStore) DeleteByDate(ctx context.Context, date, location string) (int, error) {
	if location != "" {
		key := EncodeKey(date, location)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.entries[key]; !ok {
			return 0, nil
		}
		delete(s.entries, key)
		return 1, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if entry.Date == date {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *memoryStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	return nil
}

func (s *memoryStore) SweepExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if entry.ExpiredAt(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *memoryStore) Enumerate(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, cloneEntry(entry))
	}
	return out, nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}

package availability

import "sync"

// KeyEpochs tracks a per-key invalidation version. A fetch records the epoch
// of its key at start; if an invalidation advances the epoch while the fetch
// is outstanding, the result is handed to callers but never written back, so
// an in-flight fetch cannot resurrect pre-booking availability.
type KeyEpochs struct {
	mu  sync.Mutex
	seq map[string]uint64
}

// NewKeyEpochs builds an empty epoch registry. One registry is shared between
// the service (readers) and the invalidator (writer).
func NewKeyEpochs() *KeyEpochs {
	return &KeyEpochs{seq: make(map[string]uint64)}
}

// Current returns the key's invalidation epoch. Keys never invalidated sit at
// zero.
func (e *KeyEpochs) Current(key string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq[key]
}

// Advance moves the key's epoch forward and returns the new value.
func (e *KeyEpochs) Advance(key string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq[key]++
	return e.seq[key]
}

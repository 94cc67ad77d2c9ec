package cache

import (
	"context"
	"fmt"
)

// Store is the durable keyed storage behind the availability service. All
// operations are safe for concurrent callers; composition across operations
// carries no atomicity guarantee beyond the individual calls.
type Store interface {
	// Get returns the entry for key if present and not expired. An entry
	// discovered expired is deleted as a side effect and reported as a miss.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Upsert replaces whatever is stored at entry.Key wholesale, stamping
	// CreatedAt now and ExpiresAt now+TTL. The stamped entry is returned.
	Upsert(ctx context.Context, entry Entry) (Entry, error)

	// DeleteByKey removes one entry; absent keys are a no-op.
	DeleteByKey(ctx context.Context, key string) error

	// DeleteByDate removes entries for a calendar date. With a location it
	// targets the single (date, location) key; with an empty location it
	// removes every entry stored for that date. Returns the count removed.
	DeleteByDate(ctx context.Context, date, location string) (int, error)

	// DeleteAll empties the store.
	DeleteAll(ctx context.Context) error

	// SweepExpired removes every entry whose expiry has passed. Idempotent.
	SweepExpired(ctx context.Context) (int, error)

	// Enumerate returns every stored entry, expired ones included. Consumers
	// needing only-valid semantics filter with ExpiredAt themselves.
	Enumerate(ctx context.Context) ([]Entry, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// StoreError reports an I/O failure against the backing storage. It is kept
// distinct from a miss so callers can decide whether to degrade.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

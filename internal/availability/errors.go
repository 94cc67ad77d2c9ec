package availability

import (
	"errors"
	"fmt"
)

// ErrSlotNotFound reports that no currently valid cache entry contains the
// requested slot. The stored data cannot distinguish a slot that never
// existed from one whose day entry expired or was invalidated, so a single
// not-found outcome covers all three.
var ErrSlotNotFound = errors.New("availability: slot not found")

// ValidationError reports malformed caller input. It is always caller-fixable
// and is returned before any storage or upstream work happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("availability: invalid %s: %s", e.Field, e.Reason)
}

// UpstreamError reports a failed availability fetch from the booking
// provider. The fetch result is never cached; callers see the failure as-is.
type UpstreamError struct {
	Location string
	Date     string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("availability: fetch %s %s: %v", e.Location, e.Date, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

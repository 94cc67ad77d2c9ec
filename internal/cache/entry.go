// Package cache stores per-day, per-location slot availability with a fixed
// freshness window. Entries are written wholesale by the availability service
// after a successful upstream fetch and removed either lazily on read, by an
// explicit invalidation, or by the periodic sweep.
package cache

import (
	"time"
)

// DateLayout is the calendar-date format used in keys and stored entries.
const DateLayout = "2006-01-02"

// Slot is one bookable window as reported by the upstream provider. Start and
// end are kept untrimmed; display formatting removes the provider's 30-minute
// end buffer but downstream scheduling needs the raw values.
type Slot struct {
	ID         string    `json:"slotId"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Price      float64   `json:"price"`
	OpenSpaces int       `json:"openSpaces"`
	Available  bool      `json:"available"`
	Label      string    `json:"label"`
	Sky        string    `json:"sky,omitempty"`
}

// Bookable reports whether the slot can actually be booked. The upstream
// available flag and the remaining capacity are independent signals; a slot
// with zero open spaces is unbookable regardless of the flag.
func (s Slot) Bookable() bool {
	return s.Available && s.OpenSpaces > 0
}

// Entry is the cached availability for one (date, location) pair.
type Entry struct {
	Key       string    `json:"key"`
	Location  string    `json:"location"`
	Date      string    `json:"date"`
	Slots     []Slot    `json:"slots"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExpiredAt reports whether the entry is stale at the given instant.
func (e Entry) ExpiredAt(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// AgeAt returns how long ago the entry was written.
func (e Entry) AgeAt(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

func cloneEntry(in Entry) Entry {
	out := in
	if len(in.Slots) > 0 {
		out.Slots = make([]Slot, len(in.Slots))
		copy(out.Slots, in.Slots)
	}
	return out
}

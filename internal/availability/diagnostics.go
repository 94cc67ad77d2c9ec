package availability

import (
	"context"
	"sort"
	"time"

	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/cache"
)

// EntryStatus summarizes one cache entry for operators.
type EntryStatus struct {
	Key       string    `json:"key"`
	Location  string    `json:"location"`
	Date      string    `json:"date"`
	SlotCount int       `json:"slotCount"`
	IsValid   bool      `json:"isValid"`
	AgeHours  float64   `json:"ageHours"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Report is a point-in-time inventory of the availability cache, expired
// entries included.
type Report struct {
	TotalEntries   int           `json:"totalEntries"`
	ValidEntries   int           `json:"validEntries"`
	ExpiredEntries int           `json:"expiredEntries"`
	Entries        []EntryStatus `json:"entries"`
}

// Reporter produces cache inventories for the admin surface. It only reads;
// expired entries stay in place until a sweep or lazy read removes them.
type Reporter struct {
	store cache.Store
}

func NewReporter(store cache.Store) *Reporter {
	return &Reporter{store: store}
}

// Report enumerates every stored entry and classifies it against the current
// clock. Entries are ordered by key so successive reports diff cleanly.
func (r *Reporter) Report(ctx context.Context) (Report, error) {
	entries, err := r.store.Enumerate(ctx)
	if err != nil {
		return Report{}, err
	}

	now := time.Now()
	report := Report{Entries: make([]EntryStatus, 0, len(entries))}
	for _, entry := range entries {
		valid := !entry.ExpiredAt(now)
		if valid {
			report.ValidEntries++
		} else {
			report.ExpiredEntries++
		}
		report.Entries = append(report.Entries, EntryStatus{
			Key:       entry.Key,
			Location:  entry.Location,
			Date:      entry.Date,
			SlotCount: len(entry.Slots),
			IsValid:   valid,
			AgeHours:  entry.AgeAt(now).Hours(),
			ExpiresAt: entry.ExpiresAt,
		})
	}
	report.TotalEntries = len(report.Entries)

	sort.Slice(report.Entries, func(i, j int) bool {
		return report.Entries[i].Key < report.Entries[j].Key
	})
	return report, nil
}

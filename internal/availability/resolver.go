package availability

import (
	"context"
	"time"

	"log/slog"

	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/cache"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/metrics"
)

const (
	minSlotIDLength = 8

	// Lessons end with a rinse-and-change buffer the customer does not see;
	// displayed end times trim it off.
	displayEndBuffer = 30 * time.Minute
)

// SlotDetail is the display-ready projection of one cached slot, enriched
// with the location and date of the entry that carried it.
type SlotDetail struct {
	SlotID          string    `json:"slotId"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Price           float64   `json:"price"`
	Available       bool      `json:"available"`
	AvailableSpaces int       `json:"availableSpaces"`
	Conditions      string    `json:"conditions"`
	Weather         string    `json:"weather,omitempty"`
	Location        string    `json:"location"`
	Date            string    `json:"date"`
	DisplayTime     string    `json:"displayTime"`
	FormattedDate   string    `json:"formattedDate"`
}

// Resolver locates a single slot by its identifier across all currently
// valid cache entries. It never fetches: a slot that is not in the cache is
// reported not found, whatever the reason it is absent.
type Resolver struct {
	store   cache.Store
	display *time.Location
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewResolver builds a Resolver rendering display times in the given
// timezone. A nil location falls back to UTC.
func NewResolver(store cache.Store, display *time.Location, logger *slog.Logger, rec *metrics.Recorder) *Resolver {
	if display == nil {
		display = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, display: display, logger: logger, metrics: rec}
}

// ResolveSlot scans valid cache entries for the slot and returns its display
// projection. The identifier is validated before any storage access; a
// malformed ID is a ValidationError, an absent slot is ErrSlotNotFound.
func (r *Resolver) ResolveSlot(ctx context.Context, slotID string) (SlotDetail, error) {
	if reason := slotIDProblem(slotID); reason != "" {
		r.metrics.ObserveResolution(metrics.ResolveRejected)
		return SlotDetail{}, &ValidationError{Field: "slotId", Reason: reason}
	}

	entries, err := r.store.Enumerate(ctx)
	if err != nil {
		r.logger.Error("slot resolution failed to read cache", "slot_id", slotID, "error", err)
		return SlotDetail{}, err
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.ExpiredAt(now) {
			continue
		}
		for _, slot := range entry.Slots {
			if slot.ID != slotID {
				continue
			}
			r.metrics.ObserveResolution(metrics.ResolveFound)
			return r.detail(entry, slot), nil
		}
	}

	r.metrics.ObserveResolution(metrics.ResolveNotFound)
	return SlotDetail{}, ErrSlotNotFound
}

func (r *Resolver) detail(entry cache.Entry, slot cache.Slot) SlotDetail {
	spaces := slot.OpenSpaces
	if spaces < 0 {
		spaces = 0
	}

	start := slot.StartTime.In(r.display)
	end := slot.EndTime.Add(-displayEndBuffer).In(r.display)
	displayTime := start.Format("3:04 PM") + " - " + end.Format("3:04 PM")

	formattedDate := entry.Date
	if day, err := time.ParseInLocation(cache.DateLayout, entry.Date, r.display); err == nil {
		formattedDate = day.Format("Monday, January 2, 2006")
	}

	return SlotDetail{
		SlotID:          slot.ID,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		Price:           slot.Price,
		Available:       slot.Bookable(),
		AvailableSpaces: spaces,
		Conditions:      slot.Label,
		Weather:         slot.Sky,
		Location:        entry.Location,
		Date:            entry.Date,
		DisplayTime:     displayTime,
		FormattedDate:   formattedDate,
	}
}

// slotIDProblem reports why an identifier is unusable, or "" when it passes.
// Provider IDs are at least eight characters and always carry a separator;
// anything shorter or outside [A-Za-z0-9_-] is rejected before the store is
// touched.
func slotIDProblem(slotID string) string {
	if len(slotID) < minSlotIDLength {
		return "too short"
	}
	hasSeparator := false
	for _, ch := range slotID {
		switch {
		case ch == '-' || ch == '_':
			hasSeparator = true
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		default:
			return "contains unsupported characters"
		}
	}
	if !hasSeparator {
		return "missing separator"
	}
	return ""
}

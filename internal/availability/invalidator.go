package availability

import (
	"context"
	"strings"

	"log/slog"

	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/cache"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/metrics"
)

// BookingDay names one location-day touched by a confirmed booking.
type BookingDay struct {
	Date     string `json:"date"`
	Location string `json:"location"`
}

// Invalidator evicts cache entries after a booking is confirmed so the next
// read refetches live availability. Invalidation is best-effort: a failed
// delete is logged and dropped, because the entry expires on its own within
// the freshness window and the booking itself must never be blocked.
type Invalidator struct {
	store   cache.Store
	epochs  *KeyEpochs
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func NewInvalidator(store cache.Store, epochs *KeyEpochs, logger *slog.Logger, rec *metrics.Recorder) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{store: store, epochs: epochs, logger: logger, metrics: rec}
}

// InvalidateForBooking drops the cache entries for every listed day. The
// epoch is advanced before the delete so an availability fetch already in
// flight for the same key cannot write its stale result back afterwards.
// Days that are malformed or already absent are skipped; nothing here
// returns an error to the booking flow.
func (i *Invalidator) InvalidateForBooking(ctx context.Context, days []BookingDay) {
	for _, day := range days {
		location := strings.TrimSpace(day.Location)
		if !cache.ValidDate(day.Date) || location == "" {
			i.logger.Warn("skipping malformed invalidation target", "date", day.Date, "location", day.Location)
			i.metrics.ObserveInvalidation(metrics.CacheError)
			continue
		}

		key := cache.EncodeKey(day.Date, location)
		i.epochs.Advance(key)

		deleted, err := i.store.DeleteByDate(ctx, day.Date, location)
		if err != nil {
			i.logger.Error("invalidation delete failed, entry will expire naturally", "key", key, "error", err)
			i.metrics.ObserveInvalidation(metrics.CacheError)
			continue
		}
		i.logger.Info("invalidated availability cache", "key", key, "deleted", deleted)
		i.metrics.ObserveInvalidation(metrics.CacheOK)
	}
}

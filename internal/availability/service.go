package availability

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/cache"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/metrics"
)

// Fetcher retrieves one location-day of slots from the booking provider.
type Fetcher interface {
	Fetch(ctx context.Context, location, date string) ([]cache.Slot, error)
}

// Service answers day-availability reads with a cache-aside strategy: serve
// the stored entry when one is valid, otherwise fetch upstream, write the
// result through, and return it. Concurrent misses for the same key share a
// single upstream fetch.
type Service struct {
	store   cache.Store
	fetcher Fetcher
	epochs  *KeyEpochs
	logger  *slog.Logger
	metrics *metrics.Recorder
	flights singleflight.Group
}

// ServiceOptions carries the collaborators a Service needs. Store, Fetcher,
// and Epochs are required; Logger and Metrics may be nil-ish placeholders in
// tests.
type ServiceOptions struct {
	Store   cache.Store
	Fetcher Fetcher
	Epochs  *KeyEpochs
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   opts.Store,
		fetcher: opts.Fetcher,
		epochs:  opts.Epochs,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// GetDay returns the bookable slots for one location and date. With
// forceRefresh the cache read is skipped and the upstream result replaces
// whatever is stored; the previous entry keeps serving other callers until
// the new write lands.
func (s *Service) GetDay(ctx context.Context, date, location string, forceRefresh bool) ([]cache.Slot, error) {
	location = strings.TrimSpace(location)
	if !cache.ValidDate(date) {
		return nil, &ValidationError{Field: "date", Reason: "must be formatted YYYY-MM-DD"}
	}
	if location == "" {
		return nil, &ValidationError{Field: "location", Reason: "must not be empty"}
	}

	start := time.Now()
	key := cache.EncodeKey(date, location)

	if !forceRefresh {
		entry, found, err := s.store.Get(ctx, key)
		if err != nil {
			// A broken store read degrades to a miss; the upstream
			// fetch below still answers the caller.
			s.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
			s.metrics.ObserveCacheOperation(metrics.CacheOperationGet, metrics.CacheError)
		} else if found {
			s.metrics.ObserveCacheOperation(metrics.CacheOperationGet, metrics.CacheHit)
			s.metrics.ObserveDayRequest(location, "success", true, time.Since(start))
			return entry.Slots, nil
		} else {
			s.metrics.ObserveCacheOperation(metrics.CacheOperationGet, metrics.CacheMiss)
		}
	}

	result, err, shared := s.flights.Do(key, func() (any, error) {
		return s.fetchAndStore(ctx, key, date, location)
	})
	if err != nil {
		s.metrics.ObserveDayRequest(location, "error", false, time.Since(start))
		return nil, err
	}
	if shared {
		s.logger.Debug("coalesced concurrent fetch", "key", key)
	}
	s.metrics.ObserveDayRequest(location, "success", false, time.Since(start))
	return result.([]cache.Slot), nil
}

// fetchAndStore runs inside the singleflight group. It snapshots the key's
// invalidation epoch before fetching; a bump during the fetch means a booking
// landed mid-flight, so the result is returned to callers but not written
// back.
func (s *Service) fetchAndStore(ctx context.Context, key, date, location string) ([]cache.Slot, error) {
	epoch := s.epochs.Current(key)

	fetchStart := time.Now()
	slots, err := s.fetcher.Fetch(ctx, location, date)
	if err != nil {
		s.metrics.ObserveFetch(location, metrics.FetchFailure, time.Since(fetchStart))
		return nil, &UpstreamError{Location: location, Date: date, Err: err}
	}
	s.metrics.ObserveFetch(location, metrics.FetchSuccess, time.Since(fetchStart))

	if s.epochs.Current(key) != epoch {
		s.logger.Info("discarding fetch result, key invalidated mid-flight", "key", key)
		s.metrics.ObserveFetch(location, metrics.FetchDiscarded, 0)
		return slots, nil
	}

	entry := cache.Entry{Key: key, Location: location, Date: date, Slots: slots}
	if _, err := s.store.Upsert(ctx, entry); err != nil {
		// Fresh data still reaches the caller; only the write-back is lost.
		s.logger.Error("cache write failed", "key", key, "error", err)
		s.metrics.ObserveCacheOperation(metrics.CacheOperationUpsert, metrics.CacheError)
	} else {
		s.metrics.ObserveCacheOperation(metrics.CacheOperationUpsert, metrics.CacheOK)
	}
	return slots, nil
}

package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheOperation identifies the store method being instrumented.
type CacheOperation string

const (
	// CacheOperationGet records availability cache reads.
	CacheOperationGet CacheOperation = "get"
	// CacheOperationUpsert records availability cache write-throughs.
	CacheOperationUpsert CacheOperation = "upsert"
	// CacheOperationDelete records explicit deletions.
	CacheOperationDelete CacheOperation = "delete"
)

// CacheOutcome captures the result of a store operation.
type CacheOutcome string

const (
	// CacheHit indicates a read returned a valid entry.
	CacheHit CacheOutcome = "hit"
	// CacheMiss indicates a read found nothing usable.
	CacheMiss CacheOutcome = "miss"
	// CacheOK indicates a write or delete succeeded.
	CacheOK CacheOutcome = "ok"
	// CacheError indicates the backing store failed.
	CacheError CacheOutcome = "error"
)

// FetchOutcome captures the result of an upstream availability fetch.
type FetchOutcome string

const (
	// FetchSuccess indicates the provider returned a slot list.
	FetchSuccess FetchOutcome = "success"
	// FetchFailure indicates the provider call failed.
	FetchFailure FetchOutcome = "failure"
	// FetchDiscarded indicates a completed fetch was thrown away because the
	// key was invalidated while the fetch was in flight.
	FetchDiscarded FetchOutcome = "discarded"
)

// ResolveOutcome captures the result of a slot-ID resolution.
type ResolveOutcome string

const (
	// ResolveFound indicates the slot was located in a valid entry.
	ResolveFound ResolveOutcome = "found"
	// ResolveNotFound indicates no valid entry contained the slot.
	ResolveNotFound ResolveOutcome = "not_found"
	// ResolveRejected indicates the identifier failed validation.
	ResolveRejected ResolveOutcome = "rejected"
)

// Recorder publishes Prometheus metrics for the availability subsystem.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	dayRequests *prometheus.CounterVec
	dayLatency  *prometheus.HistogramVec

	upstreamFetches *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec

	cacheOperations *prometheus.CounterVec

	invalidations *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a
// dedicated registry is created so multiple recorders can coexist without
// conflicting with the global default registerer.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	dayRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "surfschool",
		Subsystem: "availability",
		Name:      "day_requests_total",
		Help:      "Day-availability lookups served, split by cache participation.",
	}, []string{"location", "outcome", "from_cache"})

	dayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "surfschool",
		Subsystem: "availability",
		Name:      "day_request_duration_seconds",
		Help:      "Latency distribution for day-availability lookups.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"location", "outcome"})

	upstreamFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "surfschool",
		Subsystem: "upstream",
		Name:      "fetches_total",
		Help:      "Availability fetches issued to the booking provider.",
	}, []string{"location", "outcome"})

	upstreamLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "surfschool",
		Subsystem: "upstream",
		Name:      "fetch_duration_seconds",
		Help:      "Latency distribution for booking-provider fetches.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"location", "outcome"})

	cacheOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "surfschool",
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Availability cache operations by result.",
	}, []string{"operation", "result"})

	invalidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "surfschool",
		Subsystem: "cache",
		Name:      "invalidations_total",
		Help:      "Booking-driven cache invalidations by result.",
	}, []string{"result"})

	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "surfschool",
		Subsystem: "availability",
		Name:      "slot_resolutions_total",
		Help:      "Slot-ID resolutions by outcome.",
	}, []string{"outcome"})

	reg.MustRegister(dayRequests, dayLatency, upstreamFetches, upstreamLatency, cacheOperations, invalidations, resolutions)

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return &Recorder{
		gatherer:        reg,
		handler:         handler,
		dayRequests:     dayRequests,
		dayLatency:      dayLatency,
		upstreamFetches: upstreamFetches,
		upstreamLatency: upstreamLatency,
		cacheOperations: cacheOperations,
		invalidations:   invalidations,
		resolutions:     resolutions,
	}
}

// Handler exposes the Prometheus HTTP handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// Gatherer returns the underlying Prometheus gatherer for tests and advanced
// integrations.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// ObserveDayRequest records the outcome and latency of one GetDay call.
func (r *Recorder) ObserveDayRequest(location, outcome string, fromCache bool, duration time.Duration) {
	if r == nil {
		return
	}
	locationLabel := normalizeLabel(location)
	outcomeLabel := normalizeLabel(outcome)
	cacheLabel := "false"
	if fromCache {
		cacheLabel = "true"
	}
	r.dayRequests.WithLabelValues(locationLabel, outcomeLabel, cacheLabel).Inc()
	r.dayLatency.WithLabelValues(locationLabel, outcomeLabel).Observe(duration.Seconds())
}

// ObserveFetch records one upstream availability fetch.
func (r *Recorder) ObserveFetch(location string, outcome FetchOutcome, duration time.Duration) {
	if r == nil {
		return
	}
	locationLabel := normalizeLabel(location)
	outcomeLabel := string(outcome)
	if outcomeLabel == "" {
		outcomeLabel = string(FetchFailure)
	}
	r.upstreamFetches.WithLabelValues(locationLabel, outcomeLabel).Inc()
	r.upstreamLatency.WithLabelValues(locationLabel, outcomeLabel).Observe(duration.Seconds())
}

// ObserveCacheOperation records one store operation against the cache backend.
func (r *Recorder) ObserveCacheOperation(operation CacheOperation, result CacheOutcome) {
	if r == nil {
		return
	}
	opLabel := string(operation)
	if opLabel == "" {
		opLabel = string(CacheOperationGet)
	}
	resLabel := string(result)
	if resLabel == "" {
		resLabel = string(CacheError)
	}
	r.cacheOperations.WithLabelValues(opLabel, resLabel).Inc()
}

// ObserveInvalidation records one booking-driven invalidation attempt.
func (r *Recorder) ObserveInvalidation(result CacheOutcome) {
	if r == nil {
		return
	}
	resLabel := string(result)
	if resLabel == "" {
		resLabel = string(CacheError)
	}
	r.invalidations.WithLabelValues(resLabel).Inc()
}

// ObserveResolution records one slot-ID resolution.
func (r *Recorder) ObserveResolution(outcome ResolveOutcome) {
	if r == nil {
		return
	}
	outcomeLabel := string(outcome)
	if outcomeLabel == "" {
		outcomeLabel = string(ResolveNotFound)
	}
	r.resolutions.WithLabelValues(outcomeLabel).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, r *Recorder, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := r.Gatherer().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if matchesLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchesLabels(metric *dto.Metric, labels map[string]string) bool {
	seen := map[string]string{}
	for _, pair := range metric.GetLabel() {
		seen[pair.GetName()] = pair.GetValue()
	}
	for name, value := range labels {
		if seen[name] != value {
			return false
		}
	}
	return true
}

func TestRecorderObserveDayRequest(t *testing.T) {
	r := NewRecorder(nil)
	r.ObserveDayRequest("Doheny", "success", true, 3*time.Millisecond)
	r.ObserveDayRequest("Doheny", "success", true, 2*time.Millisecond)
	r.ObserveDayRequest("", "error", false, time.Millisecond)

	got := counterValue(t, r, "surfschool_availability_day_requests_total", map[string]string{
		"location":   "Doheny",
		"outcome":    "success",
		"from_cache": "true",
	})
	require.Equal(t, float64(2), got)

	// Empty location collapses to the unknown label.
	got = counterValue(t, r, "surfschool_availability_day_requests_total", map[string]string{
		"location": "unknown",
		"outcome":  "error",
	})
	require.Equal(t, float64(1), got)
}

func TestRecorderObserveFetchAndCacheOps(t *testing.T) {
	r := NewRecorder(nil)
	r.ObserveFetch("San Onofre", FetchSuccess, 120*time.Millisecond)
	r.ObserveFetch("San Onofre", FetchDiscarded, 90*time.Millisecond)
	r.ObserveCacheOperation(CacheOperationGet, CacheHit)
	r.ObserveCacheOperation(CacheOperationUpsert, CacheOK)
	r.ObserveInvalidation(CacheOK)
	r.ObserveResolution(ResolveFound)

	require.Equal(t, float64(1), counterValue(t, r, "surfschool_upstream_fetches_total", map[string]string{
		"location": "San Onofre",
		"outcome":  "success",
	}))
	require.Equal(t, float64(1), counterValue(t, r, "surfschool_upstream_fetches_total", map[string]string{
		"outcome": "discarded",
	}))
	require.Equal(t, float64(1), counterValue(t, r, "surfschool_cache_operations_total", map[string]string{
		"operation": "get",
		"result":    "hit",
	}))
	require.Equal(t, float64(1), counterValue(t, r, "surfschool_cache_invalidations_total", map[string]string{
		"result": "ok",
	}))
	require.Equal(t, float64(1), counterValue(t, r, "surfschool_availability_slot_resolutions_total", map[string]string{
		"outcome": "found",
	}))
}

func TestRecorderNilReceiverIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveDayRequest("Doheny", "success", false, time.Millisecond)
	r.ObserveFetch("Doheny", FetchSuccess, time.Millisecond)
	r.ObserveCacheOperation(CacheOperationGet, CacheHit)
	r.ObserveInvalidation(CacheOK)
	r.ObserveResolution(ResolveFound)
	require.NotNil(t, r.Handler())
	require.NotNil(t, r.Gatherer())
}

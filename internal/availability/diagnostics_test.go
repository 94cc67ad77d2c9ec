package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/cache"
)

func TestReportClassifiesAndSortsEntries(t *testing.T) {
	store := newFakeStore()
	store.put(validEntry("2024-03-11", "Doheny"))
	store.put(validEntry("2024-03-10", "San Onofre"))

	expired := validEntry("2024-03-09", "San Onofre")
	expired.CreatedAt = time.Now().UTC().Add(-30 * time.Hour)
	expired.ExpiresAt = time.Now().UTC().Add(-6 * time.Hour)
	store.put(expired)

	report, err := NewReporter(store).Report(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.TotalEntries)
	require.Equal(t, 2, report.ValidEntries)
	require.Equal(t, 1, report.ExpiredEntries)

	require.Equal(t, "2024-03-09_san_onofre", report.Entries[0].Key)
	require.Equal(t, "2024-03-10_san_onofre", report.Entries[1].Key)
	require.Equal(t, "2024-03-11_doheny", report.Entries[2].Key)

	require.False(t, report.Entries[0].IsValid)
	require.Greater(t, report.Entries[0].AgeHours, 29.0)
	require.Equal(t, 2, report.Entries[0].SlotCount)
}

func TestReportLeavesExpiredEntriesInPlace(t *testing.T) {
	store := newFakeStore()
	expired := validEntry("2024-03-09", "San Onofre")
	expired.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	store.put(expired)

	_, err := NewReporter(store).Report(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, store.len(), "reporting must not evict anything")
}

func TestReportEmptyStore(t *testing.T) {
	report, err := NewReporter(newFakeStore()).Report(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.TotalEntries)
	require.Empty(t, report.Entries)
}

func TestReportPropagatesStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.enumerateErr = &cache.StoreError{Op: "enumerate", Err: errors.New("connection refused")}

	_, err := NewReporter(store).Report(context.Background())
	require.Error(t, err)
}

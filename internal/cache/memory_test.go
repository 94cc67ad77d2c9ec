package cache

import (
	"context"
	"testing"
	"time"
)

func testEntry(date, location string, slots ...Slot) Entry {
	return Entry{
		Key:      EncodeKey(date, location),
		Location: location,
		Date:     date,
		Slots:    slots,
	}
}

func testSlot(id string) Slot {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	return Slot{
		ID:         id,
		StartTime:  start,
		EndTime:    start.Add(2 * time.Hour),
		Price:      95,
		OpenSpaces: 4,
		Available:  true,
		Label:      "Good",
		Sky:        "Sunny",
	}
}

func TestMemoryUpsertThenGet(t *testing.T) {
	store := NewMemory(time.Hour)
	ctx := context.Background()

	stamped, err := store.Upsert(ctx, testEntry("2024-03-10", "San Onofre", testSlot("son-0900-a1b2c3")))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if stamped.CreatedAt.IsZero() || !stamped.ExpiresAt.Equal(stamped.CreatedAt.Add(time.Hour)) {
		t.Fatalf("expected expiry stamped from creation, got %#v", stamped)
	}

	got, found, err := store.Get(ctx, "2024-03-10_san_onofre")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatalf("expected hit")
	}
	if got.Location != "San Onofre" || len(got.Slots) != 1 || got.Slots[0].ID != "son-0900-a1b2c3" {
		t.Fatalf("unexpected entry: %#v", got)
	}
}

func TestMemoryUpsertReplacesWholesale(t *testing.T) {
	store := NewMemory(time.Hour)
	ctx := context.Background()

	if _, err := store.Upsert(ctx, testEntry("2024-03-10", "Doheny", testSlot("doh-0900-first"), testSlot("doh-1100-first"))); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := store.Upsert(ctx, testEntry("2024-03-10", "Doheny", testSlot("doh-1300-second"))); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, found, err := store.Get(ctx, "2024-03-10_doheny")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if len(got.Slots) != 1 || got.Slots[0].ID != "doh-1300-second" {
		t.Fatalf("expected second slot list only, got %#v", got.Slots)
	}
}

func TestMemoryLazyExpiryOnGet(t *testing.T) {
	store := NewMemory(24 * time.Hour)
	mem := store.(*memoryStore)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return base }
	if _, err := store.Upsert(ctx, testEntry("2024-03-10", "San Onofre", testSlot("son-0900-a1b2c3"))); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if _, found, _ := store.Get(ctx, "2024-03-10_san_onofre"); !found {
		t.Fatalf("expected hit before expiry")
	}

	mem.now = func() time.Time { return base.Add(24*time.Hour + time.Minute) }
	if _, found, _ := store.Get(ctx, "2024-03-10_san_onofre"); found {
		t.Fatalf("expected miss after ttl elapsed")
	}

	entries, err := store.Enumerate(ctx)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected lazy expiry to delete the entry, got %d entries", len(entries))
	}
}

func TestMemoryDeleteByDatePrecision(t *testing.T) {
	store := NewMemory(time.Hour)
	ctx := context.Background()

	for _, seed := range []struct{ date, location string }{
		{"2024-01-01", "Doheny"},
		{"2024-01-01", "T-Street"},
		{"2024-01-02", "Doheny"},
	} {
		if _, err := store.Upsert(ctx, testEntry(seed.date, seed.location)); err != nil {
			t.Fatalf("upsert %s/%s: %v", seed.date, seed.location, err)
		}
	}

	removed, err := store.DeleteByDate(ctx, "2024-01-01", "")
	if err != nil {
		t.Fatalf("delete by date: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	if _, found, _ := store.Get(ctx, "2024-01-02_doheny"); !found {
		t.Fatalf("expected other date to survive")
	}
	if _, found, _ := store.Get(ctx, "2024-01-01_doheny"); found {
		t.Fatalf("expected 2024-01-01 doheny gone")
	}
	if _, found, _ := store.Get(ctx, "2024-01-01_t-street"); found {
		t.Fatalf("expected 2024-01-01 t-street gone")
	}
}

func TestMemoryDeleteByDateWithLocation(t *testing.T) {
	store := NewMemory(time.Hour)
	ctx := context.Background()

	if _, err := store.Upsert(ctx, testEntry("2024-01-01", "Doheny")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.Upsert(ctx, testEntry("2024-01-01", "T-Street")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	removed, err := store.DeleteByDate(ctx, "2024-01-01", "Doheny")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, found, _ := store.Get(ctx, "2024-01-01_t-street"); !found {
		t.Fatalf("expected untouched location to survive")
	}

	// Absent pairs are a no-op, not an error.
	removed, err = store.DeleteByDate(ctx, "2024-01-01", "Doheny")
	if err != nil || removed != 0 {
		t.Fatalf("expected idempotent delete, removed=%d err=%v", removed, err)
	}
}

func TestMemoryDeleteByKeyAbsentIsNoop(t *testing.T) {
	store := NewMemory(time.Hour)
	if err := store.DeleteByKey(context.Background(), "2024-01-01_nowhere"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestMemorySweepExpired(t *testing.T) {
	store := NewMemory(24 * time.Hour)
	mem := store.(*memoryStore)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return base }
	if _, err := store.Upsert(ctx, testEntry("2024-03-10", "Doheny")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	mem.now = func() time.Time { return base.Add(12 * time.Hour) }
	if _, err := store.Upsert(ctx, testEntry("2024-03-11", "Doheny")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	mem.now = func() time.Time { return base.Add(25 * time.Hour) }
	removed, err := store.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 swept, got %d", removed)
	}

	// Idempotent: a second sweep has nothing left to remove.
	removed, err = store.SweepExpired(ctx)
	if err != nil || removed != 0 {
		t.Fatalf("expected idempotent sweep, removed=%d err=%v", removed, err)
	}

	entries, err := store.Enumerate(ctx)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(entries) != 1 || entries[0].Date != "2024-03-11" {
		t.Fatalf("expected only the fresh entry to survive, got %#v", entries)
	}
}

func TestMemoryEnumerateIncludesExpired(t *testing.T) {
	store := NewMemory(24 * time.Hour)
	mem := store.(*memoryStore)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return base }
	if _, err := store.Upsert(ctx, testEntry("2024-03-10", "Doheny")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	mem.now = func() time.Time { return base.Add(30 * time.Hour) }
	entries, err := store.Enumerate(ctx)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected expired entry to remain enumerable, got %d", len(entries))
	}
	if !entries[0].ExpiredAt(mem.now()) {
		t.Fatalf("expected entry to read as expired")
	}
}

func TestMemoryDeleteAll(t *testing.T) {
	store := NewMemory(time.Hour)
	ctx := context.Background()
	if _, err := store.Upsert(ctx, testEntry("2024-01-01", "Doheny")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	entries, err := store.Enumerate(ctx)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty store, got %d entries", len(entries))
	}
}

func TestMemoryGetClonesSlots(t *testing.T) {
	store := NewMemory(time.Hour)
	ctx := context.Background()
	if _, err := store.Upsert(ctx, testEntry("2024-03-10", "Doheny", testSlot("doh-0900-a1b2c3"))); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, _, err := store.Get(ctx, "2024-03-10_doheny")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Slots[0].OpenSpaces = 0

	again, _, err := store.Get(ctx, "2024-03-10_doheny")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Slots[0].OpenSpaces != 4 {
		t.Fatalf("expected store copy isolated from caller mutation")
	}
}

package security

import (
	"fmt"
	"log/slog"
	"testing"
	"time"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10, 20, nil)

	if rl == nil {
		t.Fatal("NewRateLimiter() returned nil")
	}
	if rl.rate != 10 {
		t.Errorf("rate = %v, want 10", rl.rate)
	}
	if rl.burst != 20 {
		t.Errorf("burst = %d, want 20", rl.burst)
	}
	if rl.maxEntries != DefaultMaxEntries {
		t.Errorf("maxEntries = %d, want %d", rl.maxEntries, DefaultMaxEntries)
	}
	if rl.logger == nil {
		t.Error("logger should not be nil")
	}
}

func TestNewRateLimiterWithConfig_NegativeMaxEntries(t *testing.T) {
	rl := NewRateLimiterWithConfig(1, 1, -1, slog.Default())
	if rl.maxEntries != DefaultMaxEntries {
		t.Errorf("maxEntries = %d, want %d", rl.maxEntries, DefaultMaxEntries)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(10, 5, slog.Default())
	identifier := "test-identifier"

	for i := 0; i < 5; i++ {
		if !rl.Allow(identifier) {
			t.Errorf("Allow() request %d should be allowed", i+1)
		}
	}

	if rl.Allow(identifier) {
		t.Error("Allow() should return false when rate limited")
	}
}

func TestRateLimiter_Allow_MultipleIdentifiers(t *testing.T) {
	rl := NewRateLimiter(10, 2, slog.Default())

	for i := 0; i < 2; i++ {
		if !rl.Allow("identifier-1") {
			t.Errorf("Allow(id1) request %d should be allowed", i+1)
		}
	}
	if rl.Allow("identifier-1") {
		t.Error("Allow(id1) should be rate limited")
	}
	if !rl.Allow("identifier-2") {
		t.Error("Allow(id2) should have its own budget")
	}
}

func TestRateLimiter_MarkLimited(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, nil)

	if rl.MarkLimited("unknown") {
		t.Error("MarkLimited() on untracked identifier should be false")
	}

	rl.Allow("id")
	if rl.Allow("id") {
		t.Fatal("second Allow() should be limited")
	}
	if !rl.MarkLimited("id") {
		t.Error("first MarkLimited() should be true")
	}
	if rl.MarkLimited("id") {
		t.Error("second MarkLimited() should be false")
	}
}

func TestRateLimiter_LRUEviction(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 10, 3, nil)

	for i := 0; i < 5; i++ {
		rl.Allow(fmt.Sprintf("id-%d", i))
	}

	stats := rl.GetStats()
	if stats.CurrentEntries != 3 {
		t.Errorf("CurrentEntries = %d, want 3", stats.CurrentEntries)
	}
	if stats.TotalEvictions != 2 {
		t.Errorf("TotalEvictions = %d, want 2", stats.TotalEvictions)
	}
	if stats.MemoryPressure != 100 {
		t.Errorf("MemoryPressure = %v, want 100", stats.MemoryPressure)
	}
	if _, ok := rl.limiters["id-0"]; ok {
		t.Error("least recently used entry should have been evicted")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	rl := NewRateLimiter(10, 10, nil)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(time.Hour)
	rl.Allow("fresh")

	rl.Cleanup(30 * time.Minute)

	if _, ok := rl.limiters["old"]; ok {
		t.Error("idle limiter should be removed")
	}
	if _, ok := rl.limiters["fresh"]; !ok {
		t.Error("recent limiter should be kept")
	}
	if rl.GetStats().TotalCleanups != 1 {
		t.Errorf("TotalCleanups = %d, want 1", rl.GetStats().TotalCleanups)
	}
}

func TestRateLimiter_LazyCleanup(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	rl := NewRateLimiter(10, 10, nil)
	rl.now = func() time.Time { return now }
	rl.lastCleanup = now

	rl.Allow("idle")
	now = now.Add(DefaultIdleTimeout + DefaultCleanupInterval)
	rl.Allow("trigger")

	if _, ok := rl.limiters["idle"]; ok {
		t.Error("Allow() should prune idle limiters once the cleanup interval passed")
	}
}

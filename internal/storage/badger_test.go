package storage

import (
	"fmt"
	"testing"
)

func newBadgerTest(t *testing.T, dir string, cfg BadgerConfig) *BadgerEngine {
	t.Helper()
	e, err := NewBadgerEngine(dir, cfg, testLogger())
	if err != nil {
		t.Fatalf("NewBadgerEngine() error = %v", err)
	}
	return e
}

func TestBadgerEngine_Persistence(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultBadgerConfig()

	// Store data and dispose of the engine, which flushes to disk.
	e := newBadgerTest(t, dir, cfg)
	if err := e.Set("key1", "value1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := e.Set("key2", "value2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen at the same location and verify both keys survived.
	e = newBadgerTest(t, dir, cfg)
	defer e.Close()

	for key, want := range map[string]string{"key1": "value1", "key2": "value2"} {
		got, ok := e.Get(key)
		if !ok || got != want {
			t.Errorf("Get(%s) after reopen = (%q, %v), want (%q, true)", key, got, ok, want)
		}
	}
}

func TestBadgerEngine_ReadThroughPopulatesCache(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultBadgerConfig()

	e := newBadgerTest(t, dir, cfg)
	if err := e.Set("hot", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// A fresh engine starts with a cold cache; the first Get must fall
	// through to the database and populate the cache on the way back.
	e = newBadgerTest(t, dir, cfg)
	defer e.Close()

	if got := e.Stats().CacheEntries; got != 0 {
		t.Fatalf("cold cache entries = %d, want 0", got)
	}

	got, ok := e.Get("hot")
	if !ok || got != "value" {
		t.Fatalf("Get(hot) = (%q, %v), want (%q, true)", got, ok, "value")
	}

	if got := e.Stats().CacheEntries; got != 1 {
		t.Errorf("cache entries after read-through = %d, want 1", got)
	}
}

func TestBadgerEngine_CacheStaysBounded(t *testing.T) {
	cfg := DefaultBadgerConfig()
	cfg.CacheCapacity = 100

	e := newBadgerTest(t, t.TempDir(), cfg)
	defer e.Close()

	for i := 0; i < 150; i++ {
		if err := e.Set(fmt.Sprintf("key-%03d", i), "v"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	stats := e.Stats()
	if stats.CacheEntries > 100 {
		t.Errorf("cache entries = %d, want <= 100", stats.CacheEntries)
	}
	if stats.RecordCount != 150 {
		t.Errorf("record count = %d, want 150", stats.RecordCount)
	}
}

func TestBadgerEngine_TruncateClearsCache(t *testing.T) {
	e := newBadgerTest(t, t.TempDir(), DefaultBadgerConfig())
	defer e.Close()

	if err := e.Set("k1", "v1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := e.Set("k2", "v2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := e.Truncate(); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}

	stats := e.Stats()
	if stats.RecordCount != 0 {
		t.Errorf("record count after truncate = %d, want 0", stats.RecordCount)
	}
	if stats.CacheEntries != 0 {
		t.Errorf("cache entries after truncate = %d, want 0", stats.CacheEntries)
	}
	if _, ok := e.Get("k1"); ok {
		t.Error("Get(k1) after truncate reported a hit")
	}
}

func TestBadgerEngine_DeleteReflectsDatabaseOnly(t *testing.T) {
	e := newBadgerTest(t, t.TempDir(), DefaultBadgerConfig())
	defer e.Close()

	if e.Delete("never-stored") {
		t.Error("Delete(absent) = true, want false")
	}

	if err := e.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !e.Delete("k") {
		t.Error("Delete(existing) = false, want true")
	}
}

func TestBadgerEngine_RejectsInvalidConstruction(t *testing.T) {
	cfg := DefaultBadgerConfig()
	cfg.CacheCapacity = 0

	if _, err := NewBadgerEngine(t.TempDir(), cfg, testLogger()); err == nil {
		t.Error("NewBadgerEngine(capacity=0) succeeded, want error")
	}

	if _, err := NewBadgerEngine("", DefaultBadgerConfig(), testLogger()); err == nil {
		t.Error("NewBadgerEngine(empty path) succeeded, want error")
	}
}

func TestBadgerEngine_StatsSnapshot(t *testing.T) {
	e := newBadgerTest(t, t.TempDir(), DefaultBadgerConfig())
	defer e.Close()

	if err := e.Set("k1", "v1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := e.Set("k2", "v2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	stats := e.Stats()
	if stats.RecordCount != 2 {
		t.Errorf("record count = %d, want 2", stats.RecordCount)
	}
	if stats.CacheEntries != 2 {
		t.Errorf("cache entries = %d, want 2", stats.CacheEntries)
	}
}

func TestBadgerEngine_CloseIsIdempotent(t *testing.T) {
	e := newBadgerTest(t, t.TempDir(), DefaultBadgerConfig())

	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

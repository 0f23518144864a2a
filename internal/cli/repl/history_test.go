package repl

import (
	"path/filepath"
	"testing"
)

func TestHistory_AddAndGet(t *testing.T) {
	h := &History{maxSize: 3}

	h.Add("first")
	h.Add("second")
	h.Add("third")

	if got := h.Get(0); got != "third" {
		t.Errorf("Get(0) = %q, want %q", got, "third")
	}
	if got := h.Get(2); got != "first" {
		t.Errorf("Get(2) = %q, want %q", got, "first")
	}
	if got := h.Get(3); got != "" {
		t.Errorf("Get(3) = %q, want empty", got)
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := &History{maxSize: 2}

	h.Add("a")
	h.Add("b")
	h.Add("c")

	if len(h.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(h.entries))
	}
	if got := h.Get(1); got != "b" {
		t.Errorf("oldest entry = %q, want %q (a should be evicted)", got, "b")
	}
}

func TestHistory_SaveAndLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "history")

	h := &History{maxSize: 10, file: file}
	h.Add("SET a 1")
	h.Add("GET a")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := &History{maxSize: 10, file: file}
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded.Get(0); got != "GET a" {
		t.Errorf("Get(0) after load = %q, want %q", got, "GET a")
	}
}

func TestHistory_LoadMissingFile(t *testing.T) {
	h := &History{maxSize: 10, file: filepath.Join(t.TempDir(), "nope")}
	if err := h.Load(); err != nil {
		t.Errorf("Load() on missing file error = %v, want nil", err)
	}
}

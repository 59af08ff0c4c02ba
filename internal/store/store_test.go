package store

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndList(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Add(KindText, "first"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.Add(KindText, "second"); err != nil {
		t.Fatalf("add: %v", err)
	}
	items, err := s.List(10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Content != "second" {
		t.Fatalf("newest first: got %q", items[0].Content)
	}
}

func TestAddDeduplicatesAndMovesToFront(t *testing.T) {
	s := openTestStore(t)
	a, _ := s.Add(KindText, "alpha")
	s.Add(KindText, "beta")
	b, err := s.Add(KindText, "alpha")
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if b.ID != a.ID {
		t.Fatalf("duplicate created new row: %d vs %d", b.ID, a.ID)
	}
	n, _ := s.Count()
	if n != 2 {
		t.Fatalf("count %d, want 2", n)
	}
	items, _ := s.List(10, 0)
	if items[0].Content != "alpha" {
		t.Fatalf("duplicate not moved to front: %q", items[0].Content)
	}
}

func TestSearchRegexAndFallback(t *testing.T) {
	s := openTestStore(t)
	s.Add(KindText, "error: disk full")
	s.Add(KindText, "a+b=c")
	s.Add(KindText, "all good")

	got, err := s.Search(`error:\s+\w+`, 10)
	if err != nil {
		t.Fatalf("regex search: %v", err)
	}
	if len(got) != 1 || got[0].Content != "error: disk full" {
		t.Fatalf("regex search got %+v", got)
	}

	// An invalid pattern falls back to literal substring matching.
	got, err = s.Search("a+b=(", 10)
	if err != nil {
		t.Fatalf("fallback search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("fallback matched %d items, want 0", len(got))
	}
	s.Add(KindText, "call f(x then stop")
	got, err = s.Search("f(x", 10)
	if err != nil {
		t.Fatalf("fallback search: %v", err)
	}
	if len(got) != 1 || got[0].Content != "call f(x then stop" {
		t.Fatalf("literal fallback got %+v", got)
	}
}

func TestPinSurvivesClearAndPrune(t *testing.T) {
	s := openTestStore(t)
	p, _ := s.Add(KindText, "keep me")
	s.Add(KindText, "drop me")
	if err := s.SetPinned(p.ID, true); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if err := s.Clear(true); err != nil {
		t.Fatalf("clear: %v", err)
	}
	items, _ := s.List(10, 0)
	if len(items) != 1 || items[0].Content != "keep me" {
		t.Fatalf("pinned item lost: %+v", items)
	}
}

func TestPruneDropsOldestAndRemovesImageFiles(t *testing.T) {
	s := openTestStore(t)
	dir := t.TempDir()
	img := filepath.Join(dir, "old.png")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	s.Add(KindImage, img)
	s.Add(KindText, "one")
	s.Add(KindText, "two")
	s.Add(KindText, "three")

	n, err := s.Prune(2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Fatalf("pruned %d, want 2", n)
	}
	if _, err := os.Stat(img); !os.IsNotExist(err) {
		t.Fatal("pruned image file still on disk")
	}
	count, _ := s.Count()
	if count != 2 {
		t.Fatalf("count %d after prune, want 2", count)
	}
}

func TestDeleteMissingItem(t *testing.T) {
	s := openTestStore(t)
	if err := s.Delete(12345); err == nil {
		t.Fatal("deleting a missing item should error")
	}
}

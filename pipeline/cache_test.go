package pipeline

import (
	"testing"

	"github.com/google/uuid"
)

func TestExportCacheEvictsOldest(t *testing.T) {
	cache, err := NewExportCache(2)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	cache.Add(a, []byte("a"))
	cache.Add(b, []byte("b"))
	cache.Add(c, []byte("c"))

	if _, ok := cache.Get(a); ok {
		t.Fatalf("oldest entry should be evicted")
	}
	if got, ok := cache.Get(c); !ok || string(got) != "c" {
		t.Fatalf("Get(c) = %q, %t", got, ok)
	}
	cache.Remove(c)
	if _, ok := cache.Get(c); ok {
		t.Fatalf("removed entry still cached")
	}
	if cache.Len() != 1 {
		t.Fatalf("len = %d, want 1", cache.Len())
	}
}

func TestNewExportCacheRejectsZeroSize(t *testing.T) {
	if _, err := NewExportCache(0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
)

var nasaResults = []model.SearchResult{
	{URL: "https://climate.nasa.gov/evidence/", Title: "Climate Change Evidence", Snippet: "climate change is real"},
}

func TestQueryKey(t *testing.T) {
	a := QueryKey("Climate  change is REAL", 3)
	b := QueryKey("  climate change is real ", 3)
	if a != b {
		t.Errorf("Expected normalized queries to share a key, got %s and %s", a, b)
	}

	if QueryKey("climate change is real", 5) == a {
		t.Error("Expected different result limits to produce different keys")
	}
	if QueryKey("earth is flat", 3) == a {
		t.Error("Expected different queries to produce different keys")
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("k", nasaResults, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := c.Get("k")
	if !found {
		t.Fatal("Expected hit")
	}
	if len(got) != 1 || got[0].URL != nasaResults[0].URL {
		t.Errorf("Unexpected results: %+v", got)
	}

	// Mutating the returned slice must not affect the cache
	got[0].URL = "changed"
	again, _ := c.Get("k")
	if again[0].URL != nasaResults[0].URL {
		t.Error("Expected cached results to be isolated from callers")
	}

	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set("k", nasaResults, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected entry to expire")
	}
}

func TestDiskCache_SetGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("k", nasaResults, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := c.Get("k")
	if !found {
		t.Fatal("Expected hit")
	}
	if got[0].Snippet != "climate change is real" {
		t.Errorf("Unexpected snippet: %q", got[0].Snippet)
	}

	// Empty result sets are cached too
	if err := c.Set("empty", nil, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	empty, found := c.Get("empty")
	if !found || empty == nil || len(empty) != 0 {
		t.Errorf("Expected cached empty result set, got %v (found=%v)", empty, found)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	now := time.Now()
	c.now = func() time.Time { return now }
	_ = c.Set("k", nasaResults, time.Minute)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, found := c.Get("k"); found {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("Expected expired entry file to be removed")
	}
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := os.WriteFile(c.path("bad"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, found := c.Get("bad"); found {
		t.Error("Expected corrupt entry to miss")
	}
}

func TestDiskCache_DeleteMissing(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Delete("nothing"); err != nil {
		t.Errorf("Expected no error deleting missing entry, got %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	// Write only to disk, as a previous process would have
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", nasaResults, 0); err != nil {
		t.Fatalf("disk Set failed: %v", err)
	}

	if _, found := c.memory.Get("k"); found {
		t.Fatal("Expected memory layer to start empty")
	}

	got, found := c.Get("k")
	if !found || len(got) != 1 {
		t.Fatalf("Expected disk hit, got %v (found=%v)", got, found)
	}

	if _, found := c.memory.Get("k"); !found {
		t.Error("Expected disk hit to be promoted to memory")
	}
}

func TestLayeredCache_MemoryOnly(t *testing.T) {
	c := NewLayeredCache(time.Minute, "", 0)

	if err := c.Set("k", nasaResults, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found := c.Get("k"); !found {
		t.Error("Expected memory hit")
	}
	if err := c.Delete("k"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Expected miss after delete")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
}

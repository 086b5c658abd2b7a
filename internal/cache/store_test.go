package cache

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/precheck/precheck/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PutAndGet(t *testing.T) {
	store := newTestStore(t)

	entry := domain.CacheEntry{
		Key:      "pc1-abc",
		TaskID:   "ruff:src",
		ExitCode: 0,
		Output:   "All checks passed!",
		Duration: 1200 * time.Millisecond,
	}
	store.Put(entry)

	got, ok := store.Get("pc1-abc")
	if !ok {
		t.Fatal("Get() = miss, want hit")
	}
	if got.TaskID != entry.TaskID {
		t.Errorf("TaskID = %q, want %q", got.TaskID, entry.TaskID)
	}
	if got.Output != entry.Output {
		t.Errorf("Output = %q, want %q", got.Output, entry.Output)
	}
	if got.Duration != entry.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, entry.Duration)
	}
}

func TestStore_MissForUnknownKey(t *testing.T) {
	store := newTestStore(t)

	if _, ok := store.Get("pc1-never-stored"); ok {
		t.Error("Get() = hit for a key never stored")
	}
}

func TestStore_FailuresNeverStored(t *testing.T) {
	store := newTestStore(t)

	store.Put(domain.CacheEntry{Key: "pc1-fail", TaskID: "mypy:src", ExitCode: 1, Output: "error: bad type"})

	if _, ok := store.Get("pc1-fail"); ok {
		t.Error("Get() = hit for a failing entry; failures must be re-observed")
	}
}

func TestStore_WriteToExistingKeyIsNoop(t *testing.T) {
	store := newTestStore(t)

	store.Put(domain.CacheEntry{Key: "pc1-k", TaskID: "ruff:src", Output: "first"})
	store.Put(domain.CacheEntry{Key: "pc1-k", TaskID: "ruff:src", Output: "second"})

	got, ok := store.Get("pc1-k")
	if !ok {
		t.Fatal("Get() = miss")
	}
	if got.Output != "first" {
		t.Errorf("Output = %q, want %q (entries are immutable)", got.Output, "first")
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	store.Put(domain.CacheEntry{Key: "pc1-persist", TaskID: "pytest:tests", Output: "42 passed"})
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, ok := reopened.Get("pc1-persist")
	if !ok {
		t.Fatal("Get() = miss after reopen")
	}
	if got.Output != "42 passed" {
		t.Errorf("Output = %q, want %q", got.Output, "42 passed")
	}
}

func TestStore_EvictionCapsEntries(t *testing.T) {
	store := newTestStore(t)
	store.maxEntries = 10

	for i := 0; i < 25; i++ {
		store.Put(domain.CacheEntry{Key: fmt.Sprintf("pc1-%03d", i), TaskID: "ruff:src"})
	}

	n, err := store.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n > 10 {
		t.Errorf("Len() = %d after eviction, want <= 10", n)
	}
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t)
	store.Put(domain.CacheEntry{Key: "pc1-a", TaskID: "ruff:src"})

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get("pc1-a"); ok {
		t.Error("Get() = hit after Clear()")
	}
	n, err := store.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Len() = %d after Clear(), want 0", n)
	}
}

package repostate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/precheck/precheck/internal/domain"
)

func sampleRecord(fp string) *domain.RepoStateRecord {
	return &domain.RepoStateRecord{
		Fingerprint: fp,
		RecordedAt:  time.Now().UTC(),
		ResultSet: domain.ResultSet{
			RunID: "run-1",
			Results: map[string]domain.TaskResult{
				"ruff:src": {TaskID: "ruff:src", Status: domain.StatusOK, CacheStatus: domain.CacheMissRun},
			},
		},
	}
}

func TestStore_PublishAndLoad(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), ".precheck"))

	if rec := store.Load(); rec != nil {
		t.Fatalf("Load() = %+v before any publish, want nil", rec)
	}

	if err := store.Publish(sampleRecord("fp-abc")); err != nil {
		t.Fatal(err)
	}

	rec := store.Load()
	if rec == nil {
		t.Fatal("Load() = nil after publish")
	}
	if rec.Fingerprint != "fp-abc" {
		t.Errorf("Fingerprint = %q, want %q", rec.Fingerprint, "fp-abc")
	}
	if got := rec.ResultSet.Results["ruff:src"].Status; got != domain.StatusOK {
		t.Errorf("stored result status = %q, want ok", got)
	}
}

func TestStore_PublishOverwrites(t *testing.T) {
	store := New(t.TempDir())

	if err := store.Publish(sampleRecord("fp-old")); err != nil {
		t.Fatal(err)
	}
	if err := store.Publish(sampleRecord("fp-new")); err != nil {
		t.Fatal(err)
	}

	rec := store.Load()
	if rec == nil || rec.Fingerprint != "fp-new" {
		t.Errorf("Load() = %+v, want fingerprint fp-new", rec)
	}
}

func TestStore_CorruptRecordIsAbsent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, stateFile), []byte("{truncated"), 0644); err != nil {
		t.Fatal(err)
	}

	store := New(dir)
	if rec := store.Load(); rec != nil {
		t.Errorf("Load() = %+v for corrupt record, want nil", rec)
	}
}

func TestStore_PublishLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.Publish(sampleRecord("fp")); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != stateFile {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("state dir contents = %v, want [%s]", names, stateFile)
	}
}

func TestStore_Clear(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Publish(sampleRecord("fp")); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if rec := store.Load(); rec != nil {
		t.Error("Load() != nil after Clear()")
	}
	if err := store.Clear(); err != nil {
		t.Errorf("Clear() on empty store = %v, want nil", err)
	}
}

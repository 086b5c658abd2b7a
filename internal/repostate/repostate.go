// Package repostate persists the single-slot "last green" record: the
// repo fingerprint and result set of the last fully successful run. The
// record enables the zero-run fast path.
package repostate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/precheck/precheck/internal/domain"
)

const stateFile = "state.json"

// Store reads and publishes the last-green record under a state
// directory, typically <repo>/.precheck.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created lazily on
// first publish.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Load returns the stored record, or nil when none exists. A corrupt or
// unreadable record is treated as absent: the zero-run path simply does
// not trigger and the run proceeds normally.
func (s *Store) Load() *domain.RepoStateRecord {
	data, err := os.ReadFile(filepath.Join(s.dir, stateFile))
	if err != nil {
		return nil
	}
	var rec domain.RepoStateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	if rec.Fingerprint == "" {
		return nil
	}
	return &rec
}

// Publish atomically replaces the record: write to a temp file in the
// same directory, fsync, then rename. A crash mid-write leaves either the
// old record or the new one, never a torn file.
func (s *Store) Publish(rec *domain.RepoStateRecord) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	content, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing state: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, stateFile)); err != nil {
		return fmt.Errorf("publishing state: %w", err)
	}
	return nil
}

// Clear removes the record, forcing the next run to execute in full.
func (s *Store) Clear() error {
	err := os.Remove(filepath.Join(s.dir, stateFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

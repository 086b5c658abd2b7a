// Package cache is the durable task cache: a key→result store for
// successful check runs, keyed by content-addressed cache keys. Caching is
// an optimization, never a correctness dependency — every storage error
// degrades to a miss or a dropped write.
package cache

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/precheck/precheck/internal/domain"
)

// DefaultMaxEntries caps the durable store. Keys become unreachable as
// inputs change, so without a cap the store grows without bound.
const DefaultMaxEntries = 2000

const memEntries = 256

// Store provides SQLite-backed cache persistence with an in-memory LRU
// front for entries re-read within one invocation.
type Store struct {
	db         *sql.DB
	mem        *lru.Cache[string, domain.CacheEntry]
	maxEntries int
	log        *slog.Logger
}

// New creates a Store backed by the database at dbPath. Use ":memory:"
// for an ephemeral store in tests.
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	mem, err := lru.New[string, domain.CacheEntry](memEntries)
	if err != nil {
		db.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, mem: mem, maxEntries: DefaultMaxEntries, log: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored entry for a key, or ok=false on a miss. Read
// errors and corrupt rows are misses, never surfaced.
func (s *Store) Get(key string) (domain.CacheEntry, bool) {
	if entry, ok := s.mem.Get(key); ok {
		return entry, true
	}

	row := s.db.QueryRow(`
		SELECT key, task_id, exit_code, output, duration_ms, created_at
		FROM entries WHERE key = ?
	`, key)

	var entry domain.CacheEntry
	var durationMS int64
	var output sql.NullString
	err := row.Scan(&entry.Key, &entry.TaskID, &entry.ExitCode, &output, &durationMS, &entry.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			s.log.Debug("cache read failed, treating as miss", "key", key, "error", err)
		}
		return domain.CacheEntry{}, false
	}
	entry.Output = output.String
	entry.Duration = time.Duration(durationMS) * time.Millisecond

	// Track access recency for eviction. Best effort.
	if _, err := s.db.Exec(`UPDATE entries SET accessed_at = ? WHERE key = ?`, time.Now().UTC(), key); err != nil {
		s.log.Debug("cache access touch failed", "key", key, "error", err)
	}

	s.mem.Add(key, entry)
	return entry, true
}

// Put stores a successful entry. Failing results are never stored; a write
// to an existing key is a no-op because entries are content-addressed and
// therefore immutable. Write errors are dropped.
func (s *Store) Put(entry domain.CacheEntry) {
	if entry.ExitCode != 0 {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO entries (key, task_id, exit_code, output, duration_ms, created_at, accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.Key,
		entry.TaskID,
		entry.ExitCode,
		entry.Output,
		entry.Duration.Milliseconds(),
		entry.CreatedAt,
		entry.CreatedAt,
	)
	if err != nil {
		s.log.Debug("cache write failed, dropping entry", "key", entry.Key, "error", err)
		return
	}

	s.mem.Add(entry.Key, entry)
	s.evict()
}

// evict trims the least recently accessed entries over the cap.
func (s *Store) evict() {
	_, err := s.db.Exec(`
		DELETE FROM entries WHERE key IN (
			SELECT key FROM entries ORDER BY accessed_at DESC LIMIT -1 OFFSET ?
		)
	`, s.maxEntries)
	if err != nil {
		s.log.Debug("cache eviction failed", "error", err)
	}
}

// Len returns the number of durable entries.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

// Size returns the total stored output bytes across all entries.
func (s *Store) Size() (int64, error) {
	var n sql.NullInt64
	err := s.db.QueryRow(`SELECT SUM(LENGTH(output)) FROM entries`).Scan(&n)
	return n.Int64, err
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mem.Purge()
	_, err := s.db.Exec(`DELETE FROM entries`)
	return err
}

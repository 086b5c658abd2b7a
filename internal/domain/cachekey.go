package domain

import (
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// cacheSchemaVersion is baked into every cache key. Bump it whenever key
// semantics change so old entries become unreachable instead of stale.
const cacheSchemaVersion = 1

// CacheKey is the structured identity of one cacheable task execution.
// Two invocations with an identical key are equivalent by definition.
type CacheKey struct {
	TaskID string
	// CommandHash covers the full argv so a changed command invalidates
	// old entries.
	CommandHash string
	// InputFingerprint covers the content of every file matched by the
	// task's input patterns.
	InputFingerprint string
	// Salt carries tool version hashes and catalogue-declared markers.
	Salt string
}

// Digest returns the stable content-addressed form of the key, used as the
// storage key in the task cache.
func (k CacheKey) Digest() string {
	h := blake3.New()
	fmt.Fprintf(h, "v%d\x00%s\x00%s\x00%s\x00%s",
		cacheSchemaVersion, k.TaskID, k.CommandHash, k.InputFingerprint, k.Salt)
	return fmt.Sprintf("pc%d-%x", cacheSchemaVersion, h.Sum(nil)[:16])
}

// CacheEntry is a stored successful task result. Entries are
// content-addressed and immutable once written; only exit code zero is
// ever stored.
type CacheEntry struct {
	Key       string
	TaskID    string
	ExitCode  int
	Output    string
	Duration  time.Duration
	CreatedAt time.Time
}

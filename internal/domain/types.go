package domain

// Status is the terminal outcome of a task.
type Status string

const (
	StatusOK   Status = "ok"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// CacheStatus records how a task result was obtained.
type CacheStatus string

const (
	// CacheHitLocal means the result was served from the on-disk cache.
	CacheHitLocal CacheStatus = "hit-local"
	// CacheHitRemote means the result came from a shared cache. Reserved
	// for the remote cache extension point.
	CacheHitRemote CacheStatus = "hit-remote"
	// CacheMissRun means the task actually executed.
	CacheMissRun CacheStatus = "miss-run"
)

// IsHit reports whether the status represents a cache hit of any kind.
func (c CacheStatus) IsHit() bool {
	return c == CacheHitLocal || c == CacheHitRemote
}

// Synthetic exit codes for failures that never produced a real process
// exit status.
const (
	// ExitToolNotFound mirrors the shell's "command not found" status.
	ExitToolNotFound = 127
	// ExitTimeout mirrors the coreutils timeout(1) status.
	ExitTimeout = 124
)

package domain

import "time"

// TaskResult is the outcome of one task in one invocation.
type TaskResult struct {
	TaskID      string        `json:"task_id"`
	Status      Status        `json:"status"`
	CacheStatus CacheStatus   `json:"cache_status,omitempty"`
	ExitCode    int           `json:"exit_code"`
	Duration    time.Duration `json:"duration"`
	Output      string        `json:"output,omitempty"`
	// SkipReason names the first unmet dependency, or the policy that
	// caused the skip (fail-fast, cancellation).
	SkipReason string `json:"skip_reason,omitempty"`
	// ToolMissing marks failures where the external command could not be
	// located, so reporting can suggest installation.
	ToolMissing bool `json:"tool_missing,omitempty"`
	// Optional is carried from the task definition so result consumers can
	// decide overall success without the plan at hand.
	Optional bool `json:"optional,omitempty"`
}

// ResultSet maps task ID to its result for one invocation.
type ResultSet struct {
	RunID     string                `json:"run_id"`
	StartedAt time.Time             `json:"started_at"`
	Results   map[string]TaskResult `json:"results"`
}

// NewResultSet returns an empty result set for one invocation.
func NewResultSet(runID string) *ResultSet {
	return &ResultSet{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Results:   make(map[string]TaskResult),
	}
}

// Failed returns the IDs of non-optional tasks that ended in failure.
func (rs *ResultSet) Failed() []string {
	var out []string
	for id, r := range rs.Results {
		if r.Status == StatusFail && !r.Optional {
			out = append(out, id)
		}
	}
	return out
}

// AllGreen reports whether every non-optional task ended ok. Skips caused
// by optional dependencies do not count against a green run, but a skip of
// a required task does: its precondition was never verified.
func (rs *ResultSet) AllGreen() bool {
	for _, r := range rs.Results {
		if r.Optional {
			continue
		}
		if r.Status != StatusOK {
			return false
		}
	}
	return len(rs.Results) > 0
}

// Counts returns how many results ended ok, failed and skipped.
func (rs *ResultSet) Counts() (ok, fail, skip int) {
	for _, r := range rs.Results {
		switch r.Status {
		case StatusOK:
			ok++
		case StatusFail:
			fail++
		case StatusSkip:
			skip++
		}
	}
	return
}

// RepoStateRecord is the single-slot "last green" record: the whole-repo
// fingerprint and result set of the last run where every non-optional task
// succeeded.
type RepoStateRecord struct {
	Fingerprint string    `json:"fingerprint"`
	RecordedAt  time.Time `json:"recorded_at"`
	ResultSet   ResultSet `json:"result_set"`
}

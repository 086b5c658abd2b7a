// Package executor walks an execution plan phase by phase, serving task
// results from the cache where sound and running cache misses on a
// bounded worker pool.
package executor

import (
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/precheck/precheck/internal/cache"
	"github.com/precheck/precheck/internal/domain"
	"github.com/precheck/precheck/internal/fingerprint"
	"github.com/precheck/precheck/internal/repostate"
)

// DefaultTimeout bounds a single task execution when neither the task nor
// the config declares one.
const DefaultTimeout = 5 * time.Minute

// Config holds the execution policy for one invocation.
type Config struct {
	// Root is the repository root all commands and patterns resolve
	// against.
	Root string
	// Workers bounds per-phase concurrency. The mutating phase ignores it
	// and always runs serially.
	Workers int
	// FailFast skips every not-yet-started task after the first
	// non-optional failure.
	FailFast bool
	// DefaultTimeout applies to tasks without their own timeout.
	DefaultTimeout time.Duration
	// Version is the orchestrator version, mixed into the repo
	// fingerprint so upgrades force a real run.
	Version string
}

// Executor runs plans against a repository.
type Executor struct {
	cfg   Config
	cache *cache.Store
	state *repostate.Store
	log   *slog.Logger
}

// New creates an Executor. The cache store may be nil to disable caching
// entirely; the state store may be nil to disable the zero-run path.
func New(cfg Config, cacheStore *cache.Store, stateStore *repostate.Store, logger *slog.Logger) *Executor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{cfg: cfg, cache: cacheStore, state: stateStore, log: logger}
}

// run tracks the mutable state of one Execute call.
type run struct {
	rs *domain.ResultSet
	mu sync.Mutex

	// mutatingRan is set once any mutating task executes; from then on
	// every slow-phase cache lookup is a forced miss for this invocation.
	mutatingRan bool
	// failFastTripped stops dispatch after the first non-optional failure
	// when fail-fast is enabled.
	failFastTripped bool
	failFastCause   string
}

// Execute walks the plan and returns a result for every task. Task
// failures are reflected in the result set, not in an error.
func (e *Executor) Execute(ctx context.Context, plan *domain.Plan) *domain.ResultSet {
	st := &run{rs: domain.NewResultSet(uuid.NewString())}
	for id, res := range plan.Dropped {
		st.rs.Results[id] = res
	}

	for _, phase := range domain.Phases() {
		tasks := plan.PhaseTasks(phase)
		if len(tasks) == 0 {
			continue
		}
		e.log.Debug("phase starting", "phase", phase.String(), "tasks", len(tasks))
		e.runPhase(ctx, phase, tasks, st)
	}
	return st.rs
}

// runPhase dispatches a phase's tasks in dependency waves: each wave
// holds every task whose predecessors are terminal, and the next wave is
// computed only after the current one drains. No task ever starts before
// all of its dependencies reached a terminal state.
func (e *Executor) runPhase(ctx context.Context, phase domain.Phase, tasks []*domain.Task, st *run) {
	pending := make(map[string]*domain.Task, len(tasks))
	for _, t := range tasks {
		pending[t.ID] = t
	}

	for len(pending) > 0 {
		var wave []*domain.Task
		st.mu.Lock()
		for _, t := range tasks {
			if _, ok := pending[t.ID]; !ok {
				continue
			}
			if !e.depsTerminal(t, st.rs) {
				continue
			}
			delete(pending, t.ID)

			// Terminal-state shortcuts never reach a worker: no process,
			// no cache lookup.
			if reason, unmet := firstUnmetDep(t, st.rs); unmet {
				st.rs.Results[t.ID] = skipResult(t, reason)
				continue
			}
			if st.failFastTripped {
				st.rs.Results[t.ID] = skipResult(t, "fail-fast after "+st.failFastCause)
				continue
			}
			if ctx.Err() != nil {
				st.rs.Results[t.ID] = skipResult(t, "cancelled")
				continue
			}
			wave = append(wave, t)
		}
		st.mu.Unlock()

		if len(wave) == 0 {
			// Planner guarantees every dependency resolves inside the plan,
			// so an empty wave with tasks pending means an invariant broke.
			// Bail out rather than spin.
			st.mu.Lock()
			for id, t := range pending {
				st.rs.Results[id] = skipResult(t, "unschedulable")
				delete(pending, id)
			}
			st.mu.Unlock()
			continue
		}

		g := new(errgroup.Group)
		g.SetLimit(phase.Concurrency(e.cfg.Workers))
		for _, t := range wave {
			g.Go(func() error {
				e.runTask(ctx, t, st)
				return nil
			})
		}
		g.Wait()
	}
}

func (e *Executor) depsTerminal(t *domain.Task, rs *domain.ResultSet) bool {
	for _, dep := range t.DependsOn {
		if _, ok := rs.Results[dep]; !ok {
			return false
		}
	}
	return true
}

// firstUnmetDep returns the first dependency that ended fail or skip.
func firstUnmetDep(t *domain.Task, rs *domain.ResultSet) (string, bool) {
	for _, dep := range t.DependsOn {
		if res, ok := rs.Results[dep]; ok && res.Status != domain.StatusOK {
			return dep, true
		}
	}
	return "", false
}

func skipResult(t *domain.Task, reason string) domain.TaskResult {
	return domain.TaskResult{
		TaskID:     t.ID,
		Status:     domain.StatusSkip,
		SkipReason: reason,
		Optional:   t.Optional,
	}
}

// runTask resolves one task to a terminal result: cache hit, executed
// run, or failure.
func (e *Executor) runTask(ctx context.Context, t *domain.Task, st *run) {
	start := time.Now()

	// A worker slot may open only after a sibling already failed or the
	// run was cancelled; tasks that have not started yet skip instead.
	st.mu.Lock()
	if st.failFastTripped {
		st.rs.Results[t.ID] = skipResult(t, "fail-fast after "+st.failFastCause)
		st.mu.Unlock()
		return
	}
	if ctx.Err() != nil {
		st.rs.Results[t.ID] = skipResult(t, "cancelled")
		st.mu.Unlock()
		return
	}
	forcedMiss := t.Phase == domain.PhaseSlow && st.mutatingRan
	st.mu.Unlock()

	key, cacheable := e.buildKey(ctx, t)

	// Mutating tasks exist to apply changes, so they are always
	// re-executed, never served from cache.
	if e.cache != nil && cacheable && !forcedMiss && t.Phase != domain.PhaseMutating {
		if entry, ok := e.cache.Get(key.Digest()); ok {
			e.log.Debug("cache hit", "task", t.ID, "key", key.Digest())
			e.record(st, domain.TaskResult{
				TaskID:      t.ID,
				Status:      domain.StatusOK,
				CacheStatus: domain.CacheHitLocal,
				ExitCode:    0,
				Duration:    time.Since(start),
				Output:      entry.Output,
				Optional:    t.Optional,
			})
			return
		}
	}

	if t.Phase == domain.PhaseMutating {
		st.mu.Lock()
		st.mutatingRan = true
		st.mu.Unlock()
	}

	if _, err := exec.LookPath(t.Command[0]); err != nil {
		e.log.Debug("tool not found", "task", t.ID, "command", t.Command[0])
		e.fail(st, t, domain.TaskResult{
			TaskID:      t.ID,
			Status:      domain.StatusFail,
			CacheStatus: domain.CacheMissRun,
			ExitCode:    domain.ExitToolNotFound,
			Duration:    time.Since(start),
			Output:      "executable not found: " + t.Command[0],
			ToolMissing: true,
			Optional:    t.Optional,
		})
		return
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = e.cfg.DefaultTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	e.log.Debug("task starting", "task", t.ID, "phase", t.Phase.String())
	exitCode, output, err := runProcess(tctx, e.taskDir(t), t.Command)
	duration := time.Since(start)

	switch {
	case err != nil:
		e.fail(st, t, domain.TaskResult{
			TaskID:      t.ID,
			Status:      domain.StatusFail,
			CacheStatus: domain.CacheMissRun,
			ExitCode:    1,
			Duration:    duration,
			Output:      err.Error(),
			Optional:    t.Optional,
		})
		return
	case tctx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		// Timeouts are failures with a synthetic exit status, never
		// cached and never retried.
		e.fail(st, t, domain.TaskResult{
			TaskID:      t.ID,
			Status:      domain.StatusFail,
			CacheStatus: domain.CacheMissRun,
			ExitCode:    domain.ExitTimeout,
			Duration:    duration,
			Output:      output + "\ntask timed out after " + timeout.String(),
			Optional:    t.Optional,
		})
		return
	case ctx.Err() != nil:
		// The run was cancelled out from under the process; that is not a
		// verdict on the check.
		e.record(st, skipResult(t, "cancelled"))
		return
	}

	result := domain.TaskResult{
		TaskID:      t.ID,
		Status:      domain.StatusOK,
		CacheStatus: domain.CacheMissRun,
		ExitCode:    exitCode,
		Duration:    duration,
		Output:      output,
		Optional:    t.Optional,
	}
	if exitCode != 0 {
		result.Status = domain.StatusFail
		e.fail(st, t, result)
		return
	}

	// A cancelled run must leave durable caches as they were.
	if e.cache != nil && cacheable && ctx.Err() == nil {
		e.cache.Put(domain.CacheEntry{
			Key:      key.Digest(),
			TaskID:   t.ID,
			ExitCode: 0,
			Output:   output,
			Duration: duration,
		})
	}
	e.record(st, result)
	e.log.Debug("task finished", "task", t.ID, "exit", exitCode, "duration", duration)
}

// buildKey assembles the structured cache key for a task. When inputs
// cannot be resolved the task is treated as uncacheable for this run
// rather than risking a stale hit.
func (e *Executor) buildKey(ctx context.Context, t *domain.Task) (domain.CacheKey, bool) {
	salt := t.Salt
	if len(t.VersionCommand) > 0 {
		salt += "|tv:" + fingerprint.ToolVersion(ctx, e.cfg.Root, t.VersionCommand)
	}

	inputs, err := fingerprint.Inputs(e.cfg.Root, t.InputPatterns, "")
	if err != nil {
		e.log.Debug("input resolution failed, task uncacheable this run", "task", t.ID, "error", err)
		return domain.CacheKey{}, false
	}

	return domain.CacheKey{
		TaskID:           t.ID,
		CommandHash:      fingerprint.Command(t.Command),
		InputFingerprint: inputs,
		Salt:             salt,
	}, true
}

func (e *Executor) taskDir(t *domain.Task) string {
	if t.Dir == "" {
		return e.cfg.Root
	}
	return filepath.Join(e.cfg.Root, t.Dir)
}

func (e *Executor) record(st *run, res domain.TaskResult) {
	st.mu.Lock()
	st.rs.Results[res.TaskID] = res
	st.mu.Unlock()
}

func (e *Executor) fail(st *run, t *domain.Task, res domain.TaskResult) {
	st.mu.Lock()
	st.rs.Results[res.TaskID] = res
	if e.cfg.FailFast && !t.Optional && !st.failFastTripped {
		st.failFastTripped = true
		st.failFastCause = t.ID
	}
	st.mu.Unlock()
}

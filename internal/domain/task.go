package domain

import (
	"fmt"
	"time"
)

// Task is one unit of work in a plan: a single external check invocation.
type Task struct {
	// ID is unique within a plan, e.g. "mypy:src".
	ID string
	// Command is the program and its arguments.
	Command []string
	// Dir is the working directory, relative to the repo root. Empty means
	// the repo root itself.
	Dir string
	// InputPatterns are the path globs whose content determines this task's
	// cache key.
	InputPatterns []string
	// DependsOn lists task IDs that must succeed before this task may run.
	DependsOn []string
	Phase     Phase
	// Optional tasks do not fail the overall run when they fail.
	Optional bool
	// Salt is extra metadata mixed into the cache key (environment markers,
	// pinned tool versions declared in the catalogue).
	Salt string
	// VersionCommand, when set, is invoked once per run and its output hash
	// joins the cache key so a tool upgrade invalidates old entries.
	VersionCommand []string
	// Timeout bounds one execution. Zero means the global default applies.
	Timeout time.Duration
}

// Validate checks the fields that the config boundary must guarantee
// before a task ever reaches the planner.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is required")
	}
	if len(t.Command) == 0 {
		return fmt.Errorf("task %s: command is required", t.ID)
	}
	for _, dep := range t.DependsOn {
		if dep == t.ID {
			return fmt.Errorf("task %s depends on itself", t.ID)
		}
	}
	return nil
}

// Plan is the ordered set of tasks for one invocation, partitioned by
// phase. It is immutable after the planner builds it.
type Plan struct {
	// Tasks maps task ID to the task definition.
	Tasks map[string]*Task
	// Order preserves catalogue order for stable dispatch and reporting.
	Order []string
	// Dropped records tasks excluded at planning time because a dependency
	// was not selected; they carry an immediate skip result.
	Dropped map[string]TaskResult
}

// PhaseTasks returns the plan's tasks for one phase, in plan order.
func (p *Plan) PhaseTasks(phase Phase) []*Task {
	var out []*Task
	for _, id := range p.Order {
		if t := p.Tasks[id]; t.Phase == phase {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of runnable tasks in the plan.
func (p *Plan) Len() int {
	return len(p.Tasks)
}

package domain

import "fmt"

// Phase is the concurrency/ordering bucket a task runs in. Phases execute
// strictly in declaration order: fast, then mutating, then slow.
type Phase int

const (
	PhaseFast Phase = iota
	PhaseMutating
	PhaseSlow
)

// Phases returns all phases in execution order. This is the single source
// of truth for phase ordering.
func Phases() []Phase {
	return []Phase{PhaseFast, PhaseMutating, PhaseSlow}
}

// String returns the canonical name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseFast:
		return "fast"
	case PhaseMutating:
		return "mutating"
	case PhaseSlow:
		return "slow"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// ParsePhase parses a phase name as found in a check catalogue.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "fast":
		return PhaseFast, nil
	case "mutating":
		return PhaseMutating, nil
	case "slow":
		return PhaseSlow, nil
	}
	return 0, fmt.Errorf("unknown phase %q (expected fast, mutating or slow)", s)
}

// Concurrency returns the worker pool size for this phase given the
// configured worker count. Mutating tasks write to shared files, so their
// pool is pinned to one worker.
func (p Phase) Concurrency(workers int) int {
	if p == PhaseMutating {
		return 1
	}
	if workers < 1 {
		return 1
	}
	return workers
}

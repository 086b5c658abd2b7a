// Package planner converts a check catalogue and a selection into an
// execution plan: an acyclic task graph partitioned into phases.
package planner

import (
	"fmt"
	"strings"

	"github.com/precheck/precheck/internal/domain"
	"github.com/precheck/precheck/internal/fingerprint"
)

// PlanError marks a configuration bug discovered while building a plan:
// a dependency cycle or a reference to an unknown check. It is fatal and
// aborts the invocation before any task runs.
type PlanError struct {
	Reason string
	Cycle  []string
}

func (e *PlanError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("plan error: %s: %s", e.Reason, strings.Join(e.Cycle, " -> "))
	}
	return "plan error: " + e.Reason
}

// Selection narrows the catalogue to the checks in scope for one
// invocation. The tier/profile resolution happens at the configuration
// boundary; the planner only ever sees concrete check IDs.
type Selection struct {
	// Checks lists the selected IDs. Empty selects the whole catalogue.
	Checks []string
	// ChangedOnly drops tasks whose input patterns match none of the
	// changed paths.
	ChangedOnly bool
	// Changed holds the changed paths when ChangedOnly is set.
	Changed []string
}

// Build filters the catalogue to the selection, verifies the induced
// dependency graph, and partitions tasks into phases. Tasks whose
// dependencies were not selected are dropped with an immediate skip
// result, since their precondition can never be verified.
func Build(catalogue []*domain.Task, sel Selection) (*domain.Plan, error) {
	byID := make(map[string]*domain.Task, len(catalogue))
	for _, t := range catalogue {
		if _, dup := byID[t.ID]; dup {
			return nil, &PlanError{Reason: fmt.Sprintf("duplicate check id %q", t.ID)}
		}
		byID[t.ID] = t
	}

	for _, t := range catalogue {
		for _, dep := range t.DependsOn {
			depTask, ok := byID[dep]
			if !ok {
				return nil, &PlanError{Reason: fmt.Sprintf("check %q depends on unknown check %q", t.ID, dep)}
			}
			if depTask.Phase > t.Phase {
				return nil, &PlanError{Reason: fmt.Sprintf(
					"check %q (%s phase) depends on %q in the later %s phase", t.ID, t.Phase, dep, depTask.Phase)}
			}
		}
	}

	selected := make(map[string]bool)
	var order []string
	if len(sel.Checks) == 0 {
		for _, t := range catalogue {
			selected[t.ID] = true
			order = append(order, t.ID)
		}
	} else {
		for _, id := range sel.Checks {
			if _, ok := byID[id]; !ok {
				return nil, &PlanError{Reason: fmt.Sprintf("selection references unknown check %q", id)}
			}
			if !selected[id] {
				selected[id] = true
				order = append(order, id)
			}
		}
	}

	if cycle := findCycle(byID, selected); cycle != nil {
		return nil, &PlanError{Reason: "dependency cycle", Cycle: cycle}
	}

	// Changed-only narrowing. A task without declared inputs cannot be
	// proven irrelevant, so it is kept.
	if sel.ChangedOnly {
		kept := make(map[string]bool)
		var keptOrder []string
		for _, id := range order {
			t := byID[id]
			if len(t.InputPatterns) == 0 || fingerprint.MatchesAny(t.InputPatterns, sel.Changed) {
				kept[id] = true
				keptOrder = append(keptOrder, id)
			}
		}
		selected, order = kept, keptOrder
	}

	// Drop tasks whose dependencies fell out of scope, transitively.
	dropped := make(map[string]domain.TaskResult)
	for {
		removed := false
		for _, id := range order {
			if !selected[id] {
				continue
			}
			t := byID[id]
			for _, dep := range t.DependsOn {
				if selected[dep] {
					continue
				}
				selected[id] = false
				dropped[id] = domain.TaskResult{
					TaskID:     id,
					Status:     domain.StatusSkip,
					SkipReason: dep,
					Optional:   t.Optional,
				}
				removed = true
				break
			}
		}
		if !removed {
			break
		}
	}

	plan := &domain.Plan{
		Tasks:   make(map[string]*domain.Task),
		Dropped: dropped,
	}
	for _, id := range order {
		if selected[id] {
			plan.Tasks[id] = byID[id]
			plan.Order = append(plan.Order, id)
		}
	}
	return plan, nil
}

// findCycle runs a three-color DFS over the selected subgraph and returns
// the first cycle found as a path, or nil.
func findCycle(byID map[string]*domain.Task, selected map[string]bool) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range byID[id].DependsOn {
			if !selected[dep] {
				continue
			}
			switch color[dep] {
			case gray:
				// Slice the stack from the first occurrence of dep to close
				// the loop.
				for i, v := range stack {
					if v == dep {
						return append(append([]string(nil), stack[i:]...), dep)
					}
				}
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for id := range selected {
		if selected[id] && color[id] == white {
			stack = stack[:0]
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

package executor

import (
	"context"
	"time"

	"github.com/precheck/precheck/internal/domain"
	"github.com/precheck/precheck/internal/fingerprint"
	"github.com/precheck/precheck/internal/planner"
)

// Run is the full invocation path: zero-run check, planning, execution,
// and last-green publication. A plan error is returned as an error; task
// failures are reflected in the result set.
func (e *Executor) Run(ctx context.Context, catalogue []*domain.Task, sel planner.Selection) (*domain.ResultSet, error) {
	// Zero-run fast path: when nothing relevant changed since the last
	// fully green run, return its result set without planning anything.
	// Subset requests always plan, so their results stay scoped to what
	// was asked for.
	repoFP, fpErr := fingerprint.Repo(e.cfg.Root, e.cfg.Version)
	if fpErr == nil && e.state != nil && len(sel.Checks) == 0 && !sel.ChangedOnly {
		if rec := e.state.Load(); rec != nil && rec.Fingerprint == repoFP {
			e.log.Debug("zero-run: repo fingerprint unchanged since last green run",
				"fingerprint", repoFP, "recorded_at", rec.RecordedAt)
			rs := rec.ResultSet
			return &rs, nil
		}
	}

	plan, err := planner.Build(catalogue, sel)
	if err != nil {
		return nil, err
	}

	rs := e.Execute(ctx, plan)

	// Publish the last-green record only for complete, uncancelled, fully
	// green runs of the whole catalogue. A green subset must not stand in
	// for a full run on the zero-run path. The fingerprint is recomputed
	// because mutating tasks may have rewritten files since the pre-run
	// snapshot.
	fullRun := len(sel.Checks) == 0 && !sel.ChangedOnly
	if fullRun && ctx.Err() == nil && rs.AllGreen() && e.state != nil {
		newFP, err := fingerprint.Repo(e.cfg.Root, e.cfg.Version)
		if err != nil {
			e.log.Debug("skipping last-green publish, fingerprint failed", "error", err)
			return rs, nil
		}
		rec := &domain.RepoStateRecord{
			Fingerprint: newFP,
			RecordedAt:  time.Now().UTC(),
			ResultSet:   *rs,
		}
		if err := e.state.Publish(rec); err != nil {
			e.log.Debug("last-green publish failed", "error", err)
		}
	}
	return rs, nil
}

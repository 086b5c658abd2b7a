package watch

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// ParseSchedule parses a standard five-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// RunOnSchedule invokes fn at every tick of the schedule until ctx is
// cancelled. Long-running fn invocations delay the next tick rather than
// overlapping it.
func RunOnSchedule(ctx context.Context, sched cron.Schedule, fn func()) {
	for {
		next := sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			fn()
		}
	}
}

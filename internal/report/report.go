// Package report renders run results for the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/precheck/precheck/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	failStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("196"))

	skipStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	cachedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))

	dimmedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	sectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
)

// Summary renders a one-screen result table plus totals for a completed
// run.
func Summary(rs *domain.ResultSet) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("precheck"))
	b.WriteString("\n\n")

	ids := make([]string, 0, len(rs.Results))
	width := 0
	for id := range rs.Results {
		ids = append(ids, id)
		if len(id) > width {
			width = len(id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		r := rs.Results[id]
		b.WriteString(fmt.Sprintf("  %-*s  %s\n", width, id, resultLine(r)))
	}

	ok, fail, skip := rs.Counts()
	totals := fmt.Sprintf("%d ok, %d failed, %d skipped in %s",
		ok, fail, skip, totalDuration(rs).Round(time.Millisecond))
	b.WriteString("\n")
	if fail > 0 {
		b.WriteString(failStyle.Render(totals))
	} else {
		b.WriteString(okStyle.Render(totals))
	}
	b.WriteString("\n")

	return b.String()
}

func resultLine(r domain.TaskResult) string {
	switch r.Status {
	case domain.StatusOK:
		badge := okStyle.Render("ok")
		if r.CacheStatus.IsHit() {
			badge += cachedStyle.Render(" (cached)")
		}
		return badge + dimmedStyle.Render("  "+r.Duration.Round(time.Millisecond).String())
	case domain.StatusFail:
		label := fmt.Sprintf("failed (exit %d)", r.ExitCode)
		switch r.ExitCode {
		case domain.ExitToolNotFound:
			label = "failed (tool not found)"
		case domain.ExitTimeout:
			label = "failed (timed out)"
		}
		if r.Optional {
			label += " [optional]"
		}
		return failStyle.Render(label)
	case domain.StatusSkip:
		return skipStyle.Render("skipped: " + r.SkipReason)
	default:
		return string(r.Status)
	}
}

// Failures renders the captured output of every failed check, each in
// its own bordered section.
func Failures(rs *domain.ResultSet) string {
	var failed []domain.TaskResult
	for _, r := range rs.Results {
		if r.Status == domain.StatusFail {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		return ""
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].TaskID < failed[j].TaskID })

	var b strings.Builder
	for _, r := range failed {
		header := failStyle.Render(r.TaskID)
		body := strings.TrimRight(r.Output, "\n")
		if body == "" {
			body = dimmedStyle.Render("(no output)")
		}
		b.WriteString(sectionStyle.Render(header + "\n" + body))
		b.WriteString("\n")
	}
	return b.String()
}

// Status renders the repository status line: the stored last-green run,
// if any, and cache occupancy.
func Status(rec *domain.RepoStateRecord, entries int, bytes int64) string {
	var b strings.Builder

	if rec == nil {
		b.WriteString(dimmedStyle.Render("no green run recorded"))
	} else {
		ok, _, skip := rec.ResultSet.Counts()
		b.WriteString(okStyle.Render(fmt.Sprintf("last green run %s", humanize.Time(rec.RecordedAt))))
		b.WriteString(dimmedStyle.Render(fmt.Sprintf(" (%d ok, %d skipped)", ok, skip)))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("cache: %d entries, %s\n", entries, humanize.Bytes(uint64(bytes))))

	return b.String()
}

func totalDuration(rs *domain.ResultSet) time.Duration {
	var total time.Duration
	for _, r := range rs.Results {
		total += r.Duration
	}
	return total
}

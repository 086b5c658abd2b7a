// Package changes determines which working-tree paths changed relative to
// a baseline, used to narrow check selection under changed-only mode.
package changes

import (
	"context"
	"os/exec"
	"sort"
	"strings"
	"time"
)

const gitTimeout = 5 * time.Second

// Detector inspects a git working tree for modified paths.
type Detector struct {
	root string
}

// NewDetector creates a Detector for the repository at root.
func NewDetector(root string) *Detector {
	return &Detector{root: root}
}

// ChangedPaths returns repo-relative paths that differ from HEAD,
// including staged changes and untracked files. The second return value
// is false when git is unavailable or errors; callers must then assume
// everything changed rather than silently skipping checks.
func (d *Detector) ChangedPaths(ctx context.Context) ([]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	modified, err := d.gitLines(ctx, "diff", "--name-only", "HEAD")
	if err != nil {
		return nil, false
	}
	untracked, err := d.gitLines(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, false
	}

	seen := make(map[string]struct{})
	for _, p := range append(modified, untracked...) {
		if p != "" {
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, true
}

func (d *Detector) gitLines(ctx context.Context, args ...string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.root
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

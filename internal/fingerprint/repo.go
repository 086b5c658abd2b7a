package fingerprint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
)

// ignoreDirs are never part of a repo fingerprint. Tool caches and build
// output churn constantly without being inputs to any check.
var ignoreDirs = map[string]struct{}{
	".git":          {},
	".hg":           {},
	".svn":          {},
	".idea":         {},
	".vscode":       {},
	".venv":         {},
	"venv":          {},
	"node_modules":  {},
	"build":         {},
	"dist":          {},
	"__pycache__":   {},
	".mypy_cache":   {},
	".pytest_cache": {},
	".ruff_cache":   {},
	".tox":          {},
	".precheck":     {},
}

var ignoreSuffixes = map[string]struct{}{
	".pyc": {},
	".pyo": {},
}

// Ignored reports whether a path component or file name is excluded from
// fingerprinting. The watcher uses the same rule so that watched events
// and fingerprinted inputs agree.
func Ignored(name string) bool {
	if _, skip := ignoreDirs[name]; skip {
		return true
	}
	_, skip := ignoreSuffixes[filepath.Ext(name)]
	return skip
}

// RepoFiles enumerates every fingerprint-relevant file under root,
// returning sorted repo-relative paths.
func RepoFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are treated as absent.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, skip := ignoreDirs[d.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if _, skip := ignoreSuffixes[filepath.Ext(d.Name())]; skip {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Repo computes the whole-repo fingerprint: a digest over every relevant
// file plus auxiliary metadata (orchestrator version, tool versions). The
// broad file set is deliberate — zero-run detection must be conservative
// where per-task keys are precise.
func Repo(root string, meta ...string) (string, error) {
	files, err := RepoFiles(root)
	if err != nil {
		return "", err
	}

	h := blake3.New()
	for _, rel := range files {
		f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		io.WriteString(h, rel)
		h.Write([]byte{0})
		io.Copy(h, f)
		h.Write([]byte{0})
		f.Close()
	}
	sorted := append([]string(nil), meta...)
	sort.Strings(sorted)
	for _, m := range sorted {
		io.WriteString(h, "meta:"+m)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:16]), nil
}

// ToolVersion runs a version probe (e.g. ["ruff", "--version"]) and
// returns a digest of its output, so a tool upgrade changes every cache
// key that salts with it. A failed probe hashes to the empty-output
// digest rather than erroring; caching only needs the value to be stable.
func ToolVersion(ctx context.Context, dir string, argv []string) string {
	if len(argv) == 0 {
		return HashBytes(nil)
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	_ = cmd.Run()
	return HashBytes(bytes.TrimSpace(buf.Bytes()))
}

// Package fingerprint computes deterministic digests over file sets and
// metadata. Digests drive both per-task cache keys and the whole-repo
// zero-run check.
package fingerprint

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/zeebo/blake3"
)

// HashBytes returns the hex BLAKE3 digest of arbitrary bytes.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%x", sum[:16])
}

// HashFile returns the hex BLAKE3 digest of a file's content, streaming to
// keep large files out of memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:16]), nil
}

// Command returns a digest of a full argv, separator-safe so that
// ["a b"] and ["a", "b"] hash differently.
func Command(argv []string) string {
	return HashBytes([]byte(strings.Join(argv, "\x00")))
}

// Glob resolves glob patterns (doublestar syntax, ** supported) to a
// sorted, de-duplicated list of regular files relative to root.
func Glob(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	for _, pat := range patterns {
		matches, err := doublestar.Glob(fsys, pat)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pat, err)
		}
		for _, m := range matches {
			info, err := fs.Stat(fsys, m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			seen[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// Files computes a digest over the given repo-relative paths plus a salt.
// Paths are sorted internally, so the result is independent of the order
// they were discovered in. A missing path contributes nothing rather than
// failing, so keys stay valid when an optional file does not exist.
func Files(root string, relPaths []string, salt string) string {
	paths := append([]string(nil), relPaths...)
	sort.Strings(paths)

	h := blake3.New()
	for _, rel := range paths {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		f, err := os.Open(abs)
		if err != nil {
			continue
		}
		info, err := f.Stat()
		if err != nil || !info.Mode().IsRegular() {
			f.Close()
			continue
		}
		io.WriteString(h, rel)
		h.Write([]byte{0})
		io.Copy(h, f)
		h.Write([]byte{0})
		f.Close()
	}
	io.WriteString(h, "salt:"+salt)
	return fmt.Sprintf("%x", h.Sum(nil)[:16])
}

// Inputs resolves a task's input patterns and digests the matched files.
func Inputs(root string, patterns []string, salt string) (string, error) {
	paths, err := Glob(root, patterns)
	if err != nil {
		return "", err
	}
	return Files(root, paths, salt), nil
}

// MatchesAny reports whether any of the repo-relative paths matches any of
// the glob patterns.
func MatchesAny(patterns, paths []string) bool {
	for _, pat := range patterns {
		for _, p := range paths {
			if ok, err := doublestar.Match(pat, filepath.ToSlash(p)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// ValidatePatterns rejects malformed glob patterns at the config boundary.
func ValidatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("invalid glob pattern %q", pat)
		}
	}
	return nil
}

package changes

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// initRepo creates a git repository with one committed file.
func initRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %s: %v", args, out, err)
		}
	}

	run("init")
	if err := os.WriteFile(filepath.Join(root, "committed.py"), []byte("print('x')\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-m", "initial")
	return root
}

func TestChangedPaths_CleanTree(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	root := initRepo(t)

	paths, ok := NewDetector(root).ChangedPaths(context.Background())
	if !ok {
		t.Fatal("ChangedPaths() not ok in a valid repo")
	}
	if len(paths) != 0 {
		t.Errorf("ChangedPaths() = %v in a clean tree, want none", paths)
	}
}

func TestChangedPaths_ModifiedAndUntracked(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	root := initRepo(t)

	if err := os.WriteFile(filepath.Join(root, "committed.py"), []byte("print('y')\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "new.py"), []byte("print('new')\n"), 0644); err != nil {
		t.Fatal(err)
	}

	paths, ok := NewDetector(root).ChangedPaths(context.Background())
	if !ok {
		t.Fatal("ChangedPaths() not ok in a valid repo")
	}
	want := []string{"committed.py", "new.py"}
	if len(paths) != len(want) {
		t.Fatalf("ChangedPaths() = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("ChangedPaths()[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestChangedPaths_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	_, ok := NewDetector(t.TempDir()).ChangedPaths(context.Background())
	if ok {
		t.Error("ChangedPaths() ok outside a repository, want detection failure")
	}
}

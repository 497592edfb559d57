// Package testutil builds throwaway git repositories for tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// GitRepo is a temporary working tree with a scripted history.
type GitRepo struct {
	Root string
}

// RequireGit skips the test when no git binary is on PATH.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// NewGitRepo initializes an empty repository in a temp dir.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	RequireGit(t)

	root := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	r := &GitRepo{Root: root}
	r.Run(t, "init", "-q")
	r.Run(t, "config", "user.email", "test@test.com")
	r.Run(t, "config", "user.name", "Test")
	r.Run(t, "config", "commit.gpgsign", "false")
	return r
}

// Run executes git in the repository and returns trimmed stdout.
func (r *GitRepo) Run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Root
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

// Commit writes every file (creating directories) and commits exactly those
// paths. Returns the new commit hash.
func (r *GitRepo) Commit(t *testing.T, message string, files ...string) string {
	t.Helper()
	for _, f := range files {
		full := filepath.Join(r.Root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		// Append so that re-committing a file always produces a change.
		fh, err := os.OpenFile(full, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fh.WriteString(message + "\n"); err != nil {
			t.Fatal(err)
		}
		_ = fh.Close()
	}
	r.Run(t, append([]string{"add", "--"}, files...)...)
	r.Run(t, "commit", "-q", "-m", message)
	return r.Run(t, "rev-parse", "HEAD")
}

// Remove deletes a file from the working tree and commits the deletion.
func (r *GitRepo) Remove(t *testing.T, message string, file string) {
	t.Helper()
	r.Run(t, "rm", "-q", "--", file)
	r.Run(t, "commit", "-q", "-m", message)
}

// Path returns the absolute path of a repo-relative file.
func (r *GitRepo) Path(rel string) string {
	return filepath.Join(r.Root, filepath.FromSlash(rel))
}

// Package repostate answers questions about the repository as a whole:
// whether a directory is inside one, where its root is, and what HEAD is.
package repostate

import (
	"context"
	"os/exec"
	"strings"

	"relfiles/internal/errors"
)

// IsGitRepository checks if the given path is inside a git work tree
func IsGitRepository(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// GetRepoRoot finds the git repository root from the given directory
func GetRepoRoot(startPath string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = startPath

	output, err := cmd.Output()
	if err != nil {
		return "", errors.NewRelfilesError(
			errors.NotARepository,
			"Not a git repository",
			err,
			nil,
		).WithDetails(map[string]interface{}{
			"path": startPath,
		})
	}

	return strings.TrimSpace(string(output)), nil
}

// HeadCommit returns the full hash HEAD points at. A repository without
// commits yields a RetrievalFailed error.
func HeadCommit(ctx context.Context, repoRoot string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "-q", "HEAD")
	cmd.Dir = repoRoot

	output, err := cmd.Output()
	if err != nil {
		return "", errors.NewRelfilesError(
			errors.RetrievalFailed,
			"Failed to resolve HEAD",
			err,
			nil,
		)
	}
	return strings.TrimSpace(string(output)), nil
}

// Package paths converts between absolute, working-directory-relative and
// repo-relative paths. Repo-relative paths always use forward slashes, which is
// how git reports them.
package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CanonicalizePath converts an absolute path to a repo-relative canonical path.
// Symlinks are resolved on both sides when they exist.
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := evalIfExists(absolutePath)
	if err != nil {
		return "", err
	}
	rootResolved, err := evalIfExists(repoRoot)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// evalIfExists resolves symlinks in the longest existing prefix of p, so a
// deleted file under a symlinked root still canonicalizes correctly.
func evalIfExists(p string) (string, error) {
	p = filepath.Clean(p)
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	parent := filepath.Dir(p)
	if parent == p {
		return p, nil
	}
	resolvedParent, err := evalIfExists(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(p)), nil
}

// Resolve returns the canonical repo-relative form of p. Absolute paths are
// made relative to repoRoot; relative paths are taken as already repo-relative
// and only cleaned.
func Resolve(p string, repoRoot string) string {
	if filepath.IsAbs(p) {
		if canonical, err := CanonicalizePath(p, repoRoot); err == nil {
			return canonical
		}
		return filepath.ToSlash(filepath.Clean(p))
	}
	return path.Clean(NormalizePath(p))
}

// SamePath reports whether a and b name the same file under repoRoot,
// regardless of absolute/relative spelling.
func SamePath(a, b string, repoRoot string) bool {
	return Resolve(a, repoRoot) == Resolve(b, repoRoot)
}

// FromWorkingDir converts a user-supplied path (absolute, or relative to
// workDir) to a repo-relative path.
func FromWorkingDir(p string, workDir string, repoRoot string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(workDir, p)
	}
	return CanonicalizePath(p, repoRoot)
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(p string, repoRoot string) bool {
	canonical, err := CanonicalizePath(p, repoRoot)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts backslashes to forward slashes
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	parts := strings.Split(NormalizePath(canonicalPath), "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}

// FileExists returns a predicate reporting whether a repo-relative path
// currently exists in the working tree under repoRoot.
func FileExists(repoRoot string) func(string) bool {
	return func(rel string) bool {
		_, err := os.Stat(JoinRepoPath(repoRoot, rel))
		return err == nil
	}
}

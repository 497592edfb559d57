package repostate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"relfiles/internal/errors"
	"relfiles/internal/testutil"
)

func TestIsGitRepository(t *testing.T) {
	repo := testutil.NewGitRepo(t)

	if !IsGitRepository(repo.Root) {
		t.Error("freshly initialized repo should be detected")
	}
	if IsGitRepository(t.TempDir()) {
		t.Error("plain temp dir should not be a repository")
	}
}

func TestGetRepoRoot(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	sub := filepath.Join(repo.Root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	root, err := GetRepoRoot(sub)
	if err != nil {
		t.Fatalf("GetRepoRoot() error = %v", err)
	}
	if root != repo.Root {
		t.Errorf("GetRepoRoot() = %q, want %q", root, repo.Root)
	}
}

func TestGetRepoRoot_NotARepository(t *testing.T) {
	testutil.RequireGit(t)

	_, err := GetRepoRoot(t.TempDir())
	if !errors.HasCode(err, errors.NotARepository) {
		t.Errorf("GetRepoRoot() error = %v, want NOT_A_REPOSITORY", err)
	}
}

func TestHeadCommit(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	ctx := context.Background()

	if _, err := HeadCommit(ctx, repo.Root); !errors.IsRetrieval(err) {
		t.Errorf("HeadCommit() on empty repo error = %v, want retrieval error", err)
	}

	hash := repo.Commit(t, "first", "a.go")
	got, err := HeadCommit(ctx, repo.Root)
	if err != nil {
		t.Fatalf("HeadCommit() error = %v", err)
	}
	if got != hash {
		t.Errorf("HeadCommit() = %q, want %q", got, hash)
	}
}

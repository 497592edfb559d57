package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src", "pkg"), 0755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(root, "src", "pkg", "a.go")
	if err := os.WriteFile(file, []byte("package pkg"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := CanonicalizePath(file, root)
	if err != nil {
		t.Fatalf("CanonicalizePath() error = %v", err)
	}
	if got != "src/pkg/a.go" {
		t.Errorf("CanonicalizePath() = %q, want %q", got, "src/pkg/a.go")
	}

	// Missing files are canonicalized as-is
	got, err = CanonicalizePath(filepath.Join(root, "gone.go"), root)
	if err != nil {
		t.Fatalf("CanonicalizePath() error = %v", err)
	}
	if got != "gone.go" {
		t.Errorf("CanonicalizePath() = %q, want %q", got, "gone.go")
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"repo relative", "src/a.go", "src/a.go"},
		{"dot prefix", "./src/a.go", "src/a.go"},
		{"backslashes", `src\a.go`, "src/a.go"},
		{"redundant segments", "src/../src/./a.go", "src/a.go"},
		{"absolute", filepath.Join(root, "src", "a.go"), "src/a.go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.in, root); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSamePath(t *testing.T) {
	root := t.TempDir()

	if !SamePath(filepath.Join(root, "a", "b.go"), "a/b.go", root) {
		t.Error("absolute and repo-relative spellings should match")
	}
	if !SamePath("./a/b.go", "a/b.go", root) {
		t.Error("dot-prefixed path should match")
	}
	if SamePath("a/b.go", "a/c.go", root) {
		t.Error("different files should not match")
	}
}

func TestFromWorkingDir(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FromWorkingDir("x.go", sub, root)
	if err != nil {
		t.Fatalf("FromWorkingDir() error = %v", err)
	}
	if got != "pkg/x.go" {
		t.Errorf("FromWorkingDir() = %q, want %q", got, "pkg/x.go")
	}
}

func TestIsWithinRepo(t *testing.T) {
	root := t.TempDir()

	if !IsWithinRepo(filepath.Join(root, "a.go"), root) {
		t.Error("file under root should be within repo")
	}
	if IsWithinRepo(filepath.Dir(root), root) {
		t.Error("parent of root should not be within repo")
	}
}

func TestJoinRepoPath(t *testing.T) {
	got := JoinRepoPath("/repo", "src/a.go")
	want := filepath.Join("/repo", "src", "a.go")
	if got != want {
		t.Errorf("JoinRepoPath() = %q, want %q", got, want)
	}
}

func TestFileExists(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "here.go"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	exists := FileExists(root)
	if !exists("here.go") {
		t.Error("here.go should exist")
	}
	if exists("gone.go") {
		t.Error("gone.go should not exist")
	}
}

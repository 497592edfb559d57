package main

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"relfiles/internal/config"
	"relfiles/internal/query"
	"relfiles/internal/testutil"
)

func TestRelatedCommand(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	repo.Commit(t, "init", "main.go", "flags.go", "main.css")
	repo.Commit(t, "flags", "main.go", "flags.go")
	chdir(t, repo.Root)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"related", "--quiet", "--similar", "--format", "json", "--limit", "1", "main.go"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("related failed: %v", err)
	}

	var resp query.Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(resp.EditedTogether) != 1 || resp.EditedTogether[0].File != "flags.go" {
		t.Errorf("EditedTogether = %v, want [flags.go]", resp.EditedTogether)
	}
	if len(resp.SimilarNames) != 1 || resp.SimilarNames[0] != "main.css" {
		t.Errorf("SimilarNames = %v, want [main.css]", resp.SimilarNames)
	}
}

func TestConfigInitAndCheck(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	chdir(t, repo.Root)

	var out bytes.Buffer
	rootCmd.SetOut(&out)

	rootCmd.SetArgs([]string{"config", "init"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(config.ConfigPath(repo.Root)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	rootCmd.SetArgs([]string{"config", "check"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config check failed on defaults: %v\n%s", err, out.String())
	}

	rootCmd.SetArgs([]string{"config", "init"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("config init should refuse to overwrite without --force")
	}
}

func TestResolveFile(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	if err := os.MkdirAll(repo.Path("src"), 0755); err != nil {
		t.Fatal(err)
	}
	chdir(t, repo.Path("src"))

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{"relative to working dir", "main.go", "src/main.go", false},
		{"parent dir", "../README.md", "README.md", false},
		{"absolute", repo.Path("cmd/x.go"), "cmd/x.go", false},
		{"outside repo", "../../elsewhere.go", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveFile(tt.arg, repo.Root)
			if tt.wantErr {
				if err == nil {
					t.Errorf("resolveFile(%q) = %q, want error", tt.arg, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveFile(%q) error = %v", tt.arg, err)
			}
			if got != tt.want {
				t.Errorf("resolveFile(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Errorf("restore wd: %v", err)
		}
	})
}

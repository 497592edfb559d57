package version

import (
	"regexp"
	"strings"
	"testing"
)

// setBuild overrides the link-time variables for one test.
func setBuild(t *testing.T, version, commit, buildDate string) {
	t.Helper()
	origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
	})
	Version, Commit, BuildDate = version, commit, buildDate
}

func TestVersionIsSemver(t *testing.T) {
	if !regexp.MustCompile(`^\d+\.\d+\.\d+`).MatchString(Version) {
		t.Errorf("Version = %q, want MAJOR.MINOR.PATCH", Version)
	}
}

func TestInfo_ShortHash(t *testing.T) {
	tests := []struct {
		name   string
		commit string
		want   string
	}{
		{"release build without commit", "unknown", "0.3.0"},
		{"abbreviated hash is not shortened further", "1a2b3c4", "0.3.0"},
		{"full hash is cut to seven characters", "1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b", "0.3.0 (1a2b3c4)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuild(t, "0.3.0", tt.commit, "unknown")
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull_NamesRelfiles(t *testing.T) {
	setBuild(t, "0.3.0", "1a2b3c4d5e6f", "2026-10-19T00:00:00Z")

	lines := strings.Split(Full(), "\n")
	want := []string{
		"relfiles version 0.3.0",
		"Commit: 1a2b3c4d5e6f",
		"Built: 2026-10-19T00:00:00Z",
	}
	if len(lines) != len(want) {
		t.Fatalf("Full() has %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

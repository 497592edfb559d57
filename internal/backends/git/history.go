package git

import (
	"context"
	"fmt"
	"strings"

	"relfiles/internal/errors"
	"relfiles/internal/paths"
)

// CommitInfo represents information about a single commit
type CommitInfo struct {
	Hash      string `json:"hash" yaml:"hash"`
	Author    string `json:"author" yaml:"author"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Message   string `json:"message" yaml:"message"` // First line only
}

// RecentCommits returns up to count hashes of the commits that touched
// filePath, newest first. filePath may be absolute or repo-relative.
func (g *GitAdapter) RecentCommits(ctx context.Context, filePath string, count int) ([]string, error) {
	if filePath == "" {
		return nil, errors.NewRelfilesError(
			errors.RetrievalFailed,
			"File path is required",
			nil,
			nil,
		)
	}
	if count <= 0 {
		return []string{}, nil
	}

	rel := paths.Resolve(filePath, g.repoRoot)
	return g.executeGitCommandLines(ctx,
		"log",
		"--format=%H",
		fmt.Sprintf("-n%d", count),
		"--",
		rel,
	)
}

// FilesInCommit returns the distinct repo-relative paths touched by commitID.
func (g *GitAdapter) FilesInCommit(ctx context.Context, commitID string) ([]string, error) {
	if commitID == "" {
		return nil, errors.NewRelfilesError(
			errors.RetrievalFailed,
			"Commit id is required",
			nil,
			nil,
		)
	}

	lines, err := g.executeGitCommandLines(ctx,
		"show",
		"--name-only",
		"--format=",
		commitID,
	)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(lines))
	files := make([]string, 0, len(lines))
	for _, f := range lines {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		files = append(files, f)
	}
	return files, nil
}

// FileHistory returns commit metadata for the commits that touched filePath,
// newest first. limit <= 0 means no limit.
func (g *GitAdapter) FileHistory(ctx context.Context, filePath string, limit int) ([]CommitInfo, error) {
	// %x1f (unit separator) cannot appear in author names or subjects
	args := []string{"log", "--format=%H%x1f%an%x1f%aI%x1f%s"}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}
	args = append(args, "--", paths.Resolve(filePath, g.repoRoot))

	lines, err := g.executeGitCommandLines(ctx, args...)
	if err != nil {
		return nil, err
	}

	commits := make([]CommitInfo, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, "\x1f", 4)
		if len(parts) != 4 {
			g.logger.Warn("Skipping malformed git log line", "line", line)
			continue
		}
		commits = append(commits, CommitInfo{
			Hash:      parts[0],
			Author:    parts[1],
			Timestamp: parts[2],
			Message:   parts[3],
		})
	}
	return commits, nil
}

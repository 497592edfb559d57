package git

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"relfiles/internal/config"
	"relfiles/internal/errors"
	"relfiles/internal/repostate"
)

const (
	// BackendID is the unique identifier for the Git backend
	BackendID = "git"

	// DefaultQueryTimeout bounds a single git invocation
	DefaultQueryTimeout = 5000 * time.Millisecond
)

// GitAdapter runs git commands against one working tree.
type GitAdapter struct {
	repoRoot     string
	binary       string
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewGitAdapter creates a Git adapter rooted at repoRoot. It fails with
// NOT_A_REPOSITORY when repoRoot is not inside a git work tree.
func NewGitAdapter(cfg *config.Config, repoRoot string, logger *slog.Logger) (*GitAdapter, error) {
	if logger == nil {
		return nil, errors.NewRelfilesError(
			errors.InternalError,
			"Logger is required for GitAdapter",
			nil,
			nil,
		)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	timeout := DefaultQueryTimeout
	if cfg.Git.TimeoutMs > 0 {
		timeout = time.Duration(cfg.Git.TimeoutMs) * time.Millisecond
	}
	binary := cfg.Git.Binary
	if binary == "" {
		binary = "git"
	}

	adapter := &GitAdapter{
		repoRoot:     repoRoot,
		binary:       binary,
		queryTimeout: timeout,
		logger:       logger,
	}

	if !adapter.IsAvailable() {
		return nil, errors.NewRelfilesError(
			errors.NotARepository,
			"Git is not available in this directory",
			nil,
			[]errors.FixAction{
				{
					Type:        errors.RunCommand,
					Command:     "git status",
					Safe:        true,
					Description: "Verify you're in a git repository",
				},
				{
					Type:        errors.InstallTool,
					Tool:        "git",
					Description: "Install git and make sure it is on PATH",
				},
			},
		).WithDetails(map[string]interface{}{
			"repoRoot": repoRoot,
		})
	}

	logger.Debug("Git adapter initialized",
		"backend", BackendID,
		"repoRoot", repoRoot,
		"timeout", timeout,
	)

	return adapter, nil
}

// IsAvailable checks if git is installed and repoRoot is a git repository
func (g *GitAdapter) IsAvailable() bool {
	if _, err := exec.LookPath(g.binary); err != nil {
		return false
	}
	return repostate.IsGitRepository(g.repoRoot)
}

// executeGitCommand runs git under ctx plus the per-command timeout.
// Every failure is reported as a RelfilesError: TIMEOUT when the per-command
// deadline fired, RETRIEVAL_FAILED otherwise (the cause is kept, so
// errors.Is(err, context.Canceled) still works).
func (g *GitAdapter) executeGitCommand(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout)
	defer cancel()

	full := append([]string{"-c", "core.quotePath=false"}, args...)
	cmd := exec.CommandContext(ctx, g.binary, full...)
	cmd.Dir = g.repoRoot

	g.logger.Debug("Executing git command",
		"args", args,
		"timeout", g.queryTimeout,
	)

	output, err := cmd.Output()
	if err == nil {
		return strings.TrimSpace(string(output)), nil
	}

	switch ctxErr := ctx.Err(); {
	case stderrors.Is(ctxErr, context.DeadlineExceeded):
		return "", errors.NewRelfilesError(
			errors.Timeout,
			"Git command timed out",
			ctxErr,
			nil,
		).WithDetails(map[string]interface{}{
			"args":    args,
			"timeout": g.queryTimeout.String(),
		})
	case ctxErr != nil:
		return "", errors.NewRelfilesError(
			errors.RetrievalFailed,
			"Git command cancelled",
			ctxErr,
			nil,
		)
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return "", errors.NewRelfilesError(
			errors.RetrievalFailed,
			"Git command failed",
			err,
			nil,
		).WithDetails(map[string]interface{}{
			"args":   args,
			"stderr": strings.TrimSpace(string(exitErr.Stderr)),
		})
	}

	return "", errors.NewRelfilesError(
		errors.RetrievalFailed,
		"Failed to execute git command",
		err,
		nil,
	)
}

// executeGitCommandLines runs a git command and returns non-empty trimmed lines
func (g *GitAdapter) executeGitCommandLines(ctx context.Context, args ...string) ([]string, error) {
	output, err := g.executeGitCommand(ctx, args...)
	if err != nil {
		return nil, err
	}

	if output == "" {
		return []string{}, nil
	}

	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result, nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"relfiles/internal/config"
	"relfiles/internal/paths"
	"relfiles/internal/query"
	"relfiles/internal/repostate"
	"relfiles/internal/slogutil"
)

// getRepoRoot returns the root of the repository containing --repo or the
// working directory.
func getRepoRoot() (string, error) {
	start := repoFlag
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = wd
	}
	return repostate.GetRepoRoot(start)
}

// loadConfig reads and validates the repository's configuration.
func loadConfig(repoRoot string) (*config.Config, error) {
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the command logger. -v/--quiet win over logging.level.
// The returned closer releases the --log-file handle.
func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, func(), error) {
	level := slogutil.LevelFromVerbosity(verbosity, quiet)
	if verbosity == 0 && !quiet && cfg != nil {
		level = slogutil.LevelFromString(cfg.Logging.Level)
	}

	if logFile == "" {
		return slogutil.NewLogger(stderr, level), func() {}, nil
	}

	fileLogger, f, err := slogutil.NewFileLogger(logFile, level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	tee := slogutil.NewTeeHandler(slogutil.NewLogger(stderr, level).Handler(), fileLogger.Handler())
	return slog.New(tee), func() { _ = f.Close() }, nil
}

// resolveFile converts a user-supplied path (absolute or relative to the
// working directory) to a repo-relative one.
func resolveFile(arg, repoRoot string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	rel, err := paths.FromWorkingDir(arg, wd, repoRoot)
	if err != nil {
		return "", err
	}
	if !paths.IsWithinRepo(paths.JoinRepoPath(repoRoot, rel), repoRoot) {
		return "", &config.ConfigError{Field: "file", Message: fmt.Sprintf("%s is outside the repository", arg)}
	}
	return rel, nil
}

// commandEnv bundles what most commands need.
type commandEnv struct {
	repoRoot string
	cfg      *config.Config
	logger   *slog.Logger
	close    func()
}

func setupCommand() (*commandEnv, error) {
	repoRoot, err := getRepoRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return nil, err
	}
	logger, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &commandEnv{repoRoot: repoRoot, cfg: cfg, logger: logger, close: closer}, nil
}

func (env *commandEnv) engine() (*query.Engine, error) {
	return query.NewEngine(env.repoRoot, env.logger, env.cfg)
}

// newContext returns a context cancelled by Ctrl+C or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

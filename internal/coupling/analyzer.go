package coupling

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"relfiles/internal/config"
	"relfiles/internal/errors"
	"relfiles/internal/slogutil"
)

// Analyzer computes edited-together recommendations for one repository.
type Analyzer struct {
	source   HistorySource
	repoRoot string
	opts     Options
	exists   ExistsFunc
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer over source. Options are validated eagerly
// so a bad configuration never reaches a query. A nil exists keeps every
// candidate, which suits sources with no working tree behind them.
func NewAnalyzer(source HistorySource, repoRoot string, opts Options, exists ExistsFunc, logger *slog.Logger) (*Analyzer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Analyzer{
		source:   source,
		repoRoot: repoRoot,
		opts:     opts,
		exists:   exists,
		logger:   logger,
	}, nil
}

// Options returns the analyzer's effective options.
func (a *Analyzer) Options() Options {
	return a.opts
}

// RelatedFiles returns up to limit files most often edited together with filePath.
func (a *Analyzer) RelatedFiles(ctx context.Context, filePath string, limit int) ([]WeightedFile, error) {
	analysis, err := a.Analyze(ctx, filePath, limit)
	if err != nil {
		return []WeightedFile{}, err
	}
	return analysis.Related, nil
}

// Analyze runs one query and reports the ranking together with how much
// history contributed to it.
//
// History retrieval problems never fail the query: an unreadable log yields an
// empty result, and a commit whose file list cannot be read counts as empty.
// Cancelling ctx abandons the query and returns ctx.Err().
func (a *Analyzer) Analyze(ctx context.Context, filePath string, limit int) (*Analysis, error) {
	analysis := &Analysis{File: filePath, Related: []WeightedFile{}}

	if err := config.ValidateLimit("limit", limit); err != nil {
		return analysis, err
	}
	if filePath == "" {
		return analysis, &config.ConfigError{Field: "file", Message: "must not be empty"}
	}
	if limit == 0 {
		return analysis, nil
	}

	logger := a.logger.With("query", uuid.NewString(), "file", filePath)
	logger.Debug("Starting edited-together analysis",
		"limit", limit,
		"numberOfCommits", a.opts.NumberOfCommits,
		"maxFilesPerCommit", a.opts.Heuristics.MaxFilesPerCommit,
	)

	commits, err := a.source.RecentCommits(ctx, filePath, a.opts.NumberOfCommits)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return analysis, ctxErr
		}
		if errors.IsRetrieval(err) {
			logger.Warn("Commit history unavailable, returning no related files", "error", err)
		} else {
			logger.Error("Unexpected history source error, returning no related files", "error", err)
		}
		return analysis, nil
	}
	if len(commits) == 0 {
		logger.Debug("No commits touched file")
		return analysis, nil
	}

	fileSets, failures := a.collectFileSets(ctx, logger, commits)
	if err := ctx.Err(); err != nil {
		logger.Debug("Analysis abandoned", "error", err)
		return analysis, err
	}

	acc := Accumulate(fileSets, a.opts.Heuristics)
	analysis.CommitsExamined = len(commits)
	analysis.CommitsSkipped = acc.Skipped
	analysis.LookupFailures = failures
	analysis.Candidates = acc.Len()
	analysis.Related = Rank(acc, filePath, limit, a.exists, a.repoRoot)

	logger.Debug("Edited-together analysis complete",
		"commits", len(commits),
		"skipped", acc.Skipped,
		"failures", failures,
		"candidates", acc.Len(),
		"results", len(analysis.Related),
	)
	return analysis, nil
}

// collectFileSets looks up every commit's files concurrently. Each lookup
// writes only its own slot, so the result keeps the newest-first order of
// commits. A failed lookup leaves its slot nil.
func (a *Analyzer) collectFileSets(ctx context.Context, logger *slog.Logger, commits []string) ([][]string, int) {
	fileSets := make([][]string, len(commits))
	failed := make([]bool, len(commits))

	var g errgroup.Group
	if a.opts.MaxInFlight > 0 {
		g.SetLimit(a.opts.MaxInFlight)
	}

	for i, id := range commits {
		i, id := i, id
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			files, err := a.source.FilesInCommit(ctx, id)
			if err != nil {
				failed[i] = true
				if ctx.Err() == nil {
					logger.Warn("Failed to get files in commit", "commit", id, "error", err)
				}
				return nil
			}
			fileSets[i] = files
			return nil
		})
	}
	_ = g.Wait()

	failures := 0
	for _, f := range failed {
		if f {
			failures++
		}
	}
	return fileSets, failures
}

// Insights summarizes an analysis for human readers.
func (an *Analysis) Insights() []string {
	var insights []string
	if an.CommitsExamined == 0 {
		return []string{"No commits touched this file"}
	}
	if an.CommitsSkipped > 0 {
		insights = append(insights, fmt.Sprintf("%d of %d commits ignored as empty or too large", an.CommitsSkipped, an.CommitsExamined))
	}
	if an.LookupFailures > 0 {
		insights = append(insights, fmt.Sprintf("%d commits could not be read", an.LookupFailures))
	}
	if len(an.Related) == 0 {
		insights = append(insights, "No other existing files were edited together with this file")
	}
	return insights
}

// Package coupling recommends files related to a target file from co-change
// history. Every commit that touched the target spreads a weight across the
// files it touched; newer and smaller commits weigh more, and files that keep
// reappearing are boosted.
package coupling

import (
	"context"
	"math"

	"relfiles/internal/config"
)

// HistorySource supplies commit history for one working tree.
type HistorySource interface {
	// RecentCommits returns up to count commit ids that touched filePath, newest first.
	RecentCommits(ctx context.Context, filePath string, count int) ([]string, error)

	// FilesInCommit returns the repo-relative paths touched by commitID.
	FilesInCommit(ctx context.Context, commitID string) ([]string, error)
}

// ExistsFunc reports whether a repo-relative path is present in the working tree.
type ExistsFunc func(path string) bool

// WeightedFile is one ranked recommendation.
type WeightedFile struct {
	File   string  `json:"file" yaml:"file"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Heuristics are the weighting parameters of the accumulation step.
type Heuristics struct {
	MaxFilesPerCommit int     // commits touching more files are ignored
	DecayFactor       float64 // applied to the base weight after each counted commit, (0,1]
	RepeatBoost       float64 // modifier multiplier per re-appearance, >= 1
	BaseWeight        float64 // weight of the newest commit
}

// DefaultHeuristics returns the stock weighting parameters.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		MaxFilesPerCommit: 100,
		DecayFactor:       0.9,
		RepeatBoost:       1.5,
		BaseWeight:        1.0,
	}
}

// Options configures an Analyzer.
type Options struct {
	NumberOfCommits int // history depth examined per query
	MaxInFlight     int // concurrent commit lookups, 0 = unbounded
	Heuristics      Heuristics
}

// DefaultOptions returns the stock analyzer options.
func DefaultOptions() Options {
	return Options{
		NumberOfCommits: 30,
		MaxInFlight:     8,
		Heuristics:      DefaultHeuristics(),
	}
}

// OptionsFromConfig maps the editedTogether section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	et := cfg.RelatedFiles.EditedTogether
	opts.NumberOfCommits = et.NumberOfCommits
	opts.MaxInFlight = cfg.Git.MaxInFlight
	opts.Heuristics.MaxFilesPerCommit = et.MaxFilesPerCommit
	opts.Heuristics.DecayFactor = et.Heuristics.OlderCommitDecayFactor
	opts.Heuristics.RepeatBoost = et.Heuristics.RepeatModifierFactor
	return opts
}

// Validate rejects out-of-range parameters with a *config.ConfigError.
func (o Options) Validate() error {
	if err := config.ValidateHeuristics(o.NumberOfCommits, o.Heuristics.MaxFilesPerCommit, o.Heuristics.DecayFactor, o.Heuristics.RepeatBoost); err != nil {
		return err
	}
	if w := o.Heuristics.BaseWeight; math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return &config.ConfigError{Field: "baseWeight", Message: "must be positive and finite"}
	}
	if o.MaxInFlight < 0 {
		return &config.ConfigError{Field: "maxInFlight", Message: "must not be negative"}
	}
	return nil
}

// Analysis is the outcome of one query, with bookkeeping for renderers.
type Analysis struct {
	File            string         `json:"file" yaml:"file"`
	CommitsExamined int            `json:"commitsExamined" yaml:"commitsExamined"`
	CommitsSkipped  int            `json:"commitsSkipped" yaml:"commitsSkipped"`
	LookupFailures  int            `json:"lookupFailures" yaml:"lookupFailures"`
	Candidates      int            `json:"candidates" yaml:"candidates"`
	Related         []WeightedFile `json:"related" yaml:"related"`
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relfiles/internal/query"
)

var (
	relatedLimit       int
	relatedCommits     int
	relatedMaxFiles    int
	relatedDecay       float64
	relatedRepeatBoost float64
	relatedSimilar     bool
	relatedFormat      string
)

var relatedCmd = &cobra.Command{
	Use:   "related <file>",
	Short: "List files edited together with a file",
	Long: `List files that were committed together with the target file.

Each of the most recent commits touching the file spreads a weight over the
files it touched. Newer commits weigh more (--decay), small commits weigh more
than large ones, commits touching more than --max-files files are ignored, and
files that keep reappearing are boosted (--repeat-boost).

Flags override .relfiles/config.toml for this run.

Examples:
  relfiles related src/auth/login.go
  relfiles related --limit 5 --similar src/ui/button.tsx
  relfiles related --commits 100 --decay 0.8 --format json internal/api/server.go`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

func init() {
	relatedCmd.Flags().IntVar(&relatedLimit, "limit", 10, "Maximum results to return")
	relatedCmd.Flags().IntVar(&relatedCommits, "commits", 30, "Number of recent commits to examine")
	relatedCmd.Flags().IntVar(&relatedMaxFiles, "max-files", 100, "Ignore commits touching more files than this")
	relatedCmd.Flags().Float64Var(&relatedDecay, "decay", 0.9, "Weight decay per older commit, in (0,1]")
	relatedCmd.Flags().Float64Var(&relatedRepeatBoost, "repeat-boost", 1.5, "Multiplier for each repeat appearance, >= 1")
	relatedCmd.Flags().BoolVar(&relatedSimilar, "similar", false, "Include files with the same base name")
	relatedCmd.Flags().StringVar(&relatedFormat, "format", "human", "Output format (human, json, yaml)")
	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) error {
	env, err := setupCommand()
	if err != nil {
		return err
	}
	defer env.close()

	applyRelatedFlags(cmd, env)
	if err := env.cfg.Validate(); err != nil {
		return err
	}

	file, err := resolveFile(args[0], env.repoRoot)
	if err != nil {
		return err
	}

	engine, err := env.engine()
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	resp, err := engine.Related(ctx, query.RelatedRequest{
		File:  file,
		Limit: env.cfg.RelatedFiles.Limit,
	})
	if err != nil {
		return err
	}

	out, err := FormatResponse(resp, OutputFormat(relatedFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// applyRelatedFlags copies explicitly set flags over the loaded config.
func applyRelatedFlags(cmd *cobra.Command, env *commandEnv) {
	flags := cmd.Flags()
	rf := &env.cfg.RelatedFiles

	if flags.Changed("limit") {
		rf.Limit = relatedLimit
	}
	if flags.Changed("commits") {
		rf.EditedTogether.NumberOfCommits = relatedCommits
	}
	if flags.Changed("max-files") {
		rf.EditedTogether.MaxFilesPerCommit = relatedMaxFiles
	}
	if flags.Changed("decay") {
		rf.EditedTogether.Heuristics.OlderCommitDecayFactor = relatedDecay
	}
	if flags.Changed("repeat-boost") {
		rf.EditedTogether.Heuristics.RepeatModifierFactor = relatedRepeatBoost
	}
	// The similar-name signal is opt-in on the command line.
	rf.SimilarNames.Enabled = relatedSimilar
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relfiles/internal/backends/git"
)

var (
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history <file>",
	Short: "Show the commits that feed a file's recommendations",
	Long: `Show the most recent commits touching a file, newest first.

These are the commits "relfiles related" weighs; the default limit matches
relatedFiles.editedTogether.numberOfCommits.

Examples:
  relfiles history src/auth/login.go
  relfiles history --limit 5 --format yaml main.go`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum commits to show (default: numberOfCommits)")
	historyCmd.Flags().StringVar(&historyFormat, "format", "human", "Output format (human, json, yaml)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	env, err := setupCommand()
	if err != nil {
		return err
	}
	defer env.close()

	limit := env.cfg.RelatedFiles.EditedTogether.NumberOfCommits
	if historyLimit > 0 {
		limit = historyLimit
	}

	file, err := resolveFile(args[0], env.repoRoot)
	if err != nil {
		return err
	}

	adapter, err := git.NewGitAdapter(env.cfg, env.repoRoot, env.logger)
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	commits, err := adapter.FileHistory(ctx, file, limit)
	if err != nil {
		return err
	}

	out, err := FormatResponse(&HistoryResponseCLI{File: file, Commits: commits}, OutputFormat(historyFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

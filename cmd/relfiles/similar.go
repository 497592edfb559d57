package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relfiles/internal/similar"
)

var (
	similarLimit  int
	similarFormat string
)

var similarCmd = &cobra.Command{
	Use:   "similar <file>",
	Short: "List files sharing a file's base name",
	Long: `List files whose name starts with the target's base name followed by a dot.

The base name is everything before the first dot, so src/ui/button.tsx matches
button.css and button.stories.tsx anywhere in the tree, but not buttons.ts.
Paths matching relatedFiles.similarNames.exclude are skipped.

Examples:
  relfiles similar src/ui/button.tsx
  relfiles similar --limit 3 --format json main.go`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().IntVar(&similarLimit, "limit", 10, "Maximum results to return")
	similarCmd.Flags().StringVar(&similarFormat, "format", "human", "Output format (human, json, yaml)")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	env, err := setupCommand()
	if err != nil {
		return err
	}
	defer env.close()

	limit := env.cfg.RelatedFiles.SimilarNames.Limit
	if cmd.Flags().Changed("limit") {
		limit = similarLimit
	}

	file, err := resolveFile(args[0], env.repoRoot)
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	finder := similar.NewFinder(env.repoRoot, env.cfg.RelatedFiles.SimilarNames.Exclude, env.logger)
	names, err := finder.Find(ctx, file, limit)
	if err != nil {
		return err
	}

	out, err := FormatResponse(&SimilarResponseCLI{File: file, SimilarNames: names}, OutputFormat(similarFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

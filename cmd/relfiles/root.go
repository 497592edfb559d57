package main

import (
	"github.com/spf13/cobra"

	"relfiles/internal/version"
)

var (
	// verbosity is the repeatable -v flag
	verbosity int
	quiet     bool
	repoFlag  string
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "relfiles",
	Short: "relfiles - find files related to the one you are editing",
	Long: `relfiles recommends files related to a given file in a git working tree.

Two signals are combined:
  - edited together: files committed alongside the target, weighted so that
    newer and smaller commits count more and repeat partners are boosted
  - similar names: files sharing the target's base name (button.tsx,
    button.css, button.html)`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("relfiles version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress all logging")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Directory inside the repository (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append logs to this file")
}

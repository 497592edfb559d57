package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	toml "github.com/pelletier/go-toml/v2"

	"relfiles/internal/config"
)

var (
	configFormat string
	configForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage relfiles configuration",
	Long:  "View and manage relfiles configuration stored in .relfiles/config.toml",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, .relfiles/config.toml and
RELFILES_* environment overrides are applied.

Examples:
  relfiles config show
  relfiles config show --format json
  RELFILES_RELATEDFILES_LIMIT=5 relfiles config show`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .relfiles/config.toml",
	RunE:  runConfigInit,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate .relfiles/config.toml",
	Long:  "Report unknown keys and out-of-range values in .relfiles/config.toml",
	RunE:  runConfigCheck,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format (toml, json, yaml)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	repoRoot, err := getRepoRoot()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return err
	}

	var out string
	switch configFormat {
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		out = string(data)
	default:
		out, err = FormatResponse(cfg, OutputFormat(configFormat))
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	repoRoot, err := getRepoRoot()
	if err != nil {
		return err
	}

	path := config.ConfigPath(repoRoot)
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(repoRoot); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	repoRoot, err := getRepoRoot()
	if err != nil {
		return err
	}

	path := config.ConfigPath(repoRoot)
	problems := 0

	if _, err := os.Stat(path); err == nil {
		unknown, err := config.CheckUnknownKeys(path)
		if err != nil {
			return err
		}
		for _, key := range unknown {
			fmt.Fprintf(cmd.OutOrStdout(), "unknown key: %s\n", key)
			problems++
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s not found, checking defaults\n", path)
	}

	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "invalid: %v\n", err)
		problems++
	}

	if problems > 0 {
		return fmt.Errorf("%d configuration problem(s) found", problems)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration OK")
	return nil
}

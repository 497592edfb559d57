package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"relfiles/internal/backends/git"
	"relfiles/internal/output"
	"relfiles/internal/query"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatHuman OutputFormat = "human"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// SimilarResponseCLI is the output of the similar command.
type SimilarResponseCLI struct {
	File         string   `json:"file" yaml:"file"`
	SimilarNames []string `json:"similarNames" yaml:"similarNames"`
}

// HistoryResponseCLI is the output of the history command.
type HistoryResponseCLI struct {
	File    string           `json:"file" yaml:"file"`
	Commits []git.CommitInfo `json:"commits" yaml:"commits"`
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := output.DeterministicEncodeIndented(resp, "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *query.Response:
		return formatRelatedHuman(v), nil
	case *SimilarResponseCLI:
		return formatSimilarHuman(v), nil
	case *HistoryResponseCLI:
		return formatHistoryHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatRelatedHuman(resp *query.Response) string {
	var b strings.Builder

	if resp.Superseded {
		b.WriteString("Query superseded by a newer request\n")
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString(fmt.Sprintf("Edited together with %s:\n", resp.File))
	if len(resp.EditedTogether) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, wf := range resp.EditedTogether {
		b.WriteString(fmt.Sprintf("  %s - %.4f\n", wf.File, wf.Weight))
	}

	if len(resp.SimilarNames) > 0 {
		b.WriteString("\nSimilar names:\n")
		for _, name := range resp.SimilarNames {
			b.WriteString(fmt.Sprintf("  %s\n", name))
		}
	}

	if len(resp.Insights) > 0 {
		b.WriteString("\n")
		for _, insight := range resp.Insights {
			b.WriteString(fmt.Sprintf("* %s\n", insight))
		}
	}

	for _, w := range resp.Provenance.Warnings {
		b.WriteString(fmt.Sprintf("Warning: %s\n", w))
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatSimilarHuman(resp *SimilarResponseCLI) string {
	if len(resp.SimilarNames) == 0 {
		return fmt.Sprintf("No files share a base name with %s", resp.File)
	}
	return strings.Join(resp.SimilarNames, "\n")
}

func formatHistoryHuman(resp *HistoryResponseCLI) string {
	if len(resp.Commits) == 0 {
		return fmt.Sprintf("No commits touched %s", resp.File)
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMIT\tAUTHOR\tDATE\tMESSAGE")
	fmt.Fprintln(tw, "------\t------\t----\t-------")
	for _, c := range resp.Commits {
		hash := c.Hash
		if len(hash) > 8 {
			hash = hash[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", hash, c.Author, c.Timestamp, truncate(c.Message, 60))
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// truncate shortens s to at most max runes, never splitting a character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

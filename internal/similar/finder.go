// Package similar finds files that share a base name with a target file, such
// as a component's template, stylesheet and script.
package similar

import (
	"context"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"relfiles/internal/config"
	"relfiles/internal/paths"
	"relfiles/internal/slogutil"
)

// Finder searches one working tree.
type Finder struct {
	repoRoot string
	exclude  []string
	logger   *slog.Logger
}

// NewFinder creates a finder rooted at repoRoot. Exclude entries are
// path.Match patterns checked against each entry's name and its repo-relative
// path; a matching directory is not descended into.
func NewFinder(repoRoot string, exclude []string, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Finder{
		repoRoot: repoRoot,
		exclude:  exclude,
		logger:   logger,
	}
}

// BaseName returns the file name up to its first dot: "button.test.tsx"
// gives "button". Dotfiles have no base name.
func BaseName(filePath string) string {
	name := path.Base(paths.NormalizePath(filePath))
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// Find returns up to limit repo-relative paths named "<base>.*" anywhere in
// the tree, in lexical walk order, excluding filePath itself.
func (f *Finder) Find(ctx context.Context, filePath string, limit int) ([]string, error) {
	if err := config.ValidateLimit("limit", limit); err != nil {
		return nil, err
	}

	results := []string{}
	base := BaseName(filePath)
	if limit == 0 || base == "" {
		return results, nil
	}

	query := paths.Resolve(filePath, f.repoRoot)
	prefix := base + "."

	err := filepath.WalkDir(f.repoRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}

		rel, relErr := filepath.Rel(f.repoRoot, p)
		if relErr != nil || rel == "." {
			return nil //nolint:nilerr // root itself or unrelatable path
		}
		rel = filepath.ToSlash(rel)

		if f.excluded(d.Name(), rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), prefix) || rel == query {
			return nil
		}

		results = append(results, rel)
		if len(results) >= limit {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return []string{}, err
	}

	f.logger.Debug("Similar-name search complete", "file", filePath, "base", base, "results", len(results))
	return results, nil
}

func (f *Finder) excluded(name, rel string) bool {
	for _, pattern := range f.exclude {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

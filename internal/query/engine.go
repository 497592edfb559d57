// Package query provides the engine that answers "which files are related to
// this one". It combines the edited-together and similar-name signals, caches
// answers per HEAD commit, and drops queries a client no longer wants.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"relfiles/internal/backends/git"
	"relfiles/internal/config"
	"relfiles/internal/coupling"
	"relfiles/internal/paths"
	"relfiles/internal/repostate"
	"relfiles/internal/similar"
	"relfiles/internal/slogutil"
)

// Engine is the central query coordinator for relfiles.
type Engine struct {
	logger   *slog.Logger
	config   *config.Config
	repoRoot string

	analyzer *coupling.Analyzer
	finder   *similar.Finder
	cache    *ResultCache
	sessions *Sessions
	exists   coupling.ExistsFunc

	// head returns the current HEAD commit; it scopes cache entries.
	head func(ctx context.Context) (string, error)
}

// RelatedRequest is one related-files query.
type RelatedRequest struct {
	File    string // absolute or repo-relative
	Limit   int    // edited-together result cap
	Session string // optional; newer queries in a session supersede older ones
}

// Response is the answer to a related-files query.
type Response struct {
	File           string                  `json:"file" yaml:"file"`
	HeadCommit     string                  `json:"headCommit,omitempty" yaml:"headCommit,omitempty"`
	EditedTogether []coupling.WeightedFile `json:"editedTogether" yaml:"editedTogether"`
	SimilarNames   []string                `json:"similarNames" yaml:"similarNames"`
	Insights       []string                `json:"insights,omitempty" yaml:"insights,omitempty"`
	Superseded     bool                    `json:"superseded" yaml:"superseded"`
	Provenance     Provenance              `json:"provenance" yaml:"provenance"`
}

// Provenance contains metadata about how a response was generated.
type Provenance struct {
	QueryID         string   `json:"queryId" yaml:"queryId"`
	Cached          bool     `json:"cached" yaml:"cached"`
	CachedAt        string   `json:"cachedAt,omitempty" yaml:"cachedAt,omitempty"`
	QueryDurationMs int64    `json:"queryDurationMs" yaml:"queryDurationMs"`
	CommitsExamined int      `json:"commitsExamined" yaml:"commitsExamined"`
	CommitsSkipped  int      `json:"commitsSkipped" yaml:"commitsSkipped"`
	LookupFailures  int      `json:"lookupFailures" yaml:"lookupFailures"`
	Warnings        []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Stats reports engine state for health endpoints.
type Stats struct {
	CachedResponses int `json:"cachedResponses"`
	ActiveSessions  int `json:"activeSessions"`
}

// NewEngine creates a query engine for the repository at repoRoot.
func NewEngine(repoRoot string, logger *slog.Logger, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}

	gitAdapter, err := git.NewGitAdapter(cfg, repoRoot, logger)
	if err != nil {
		return nil, err
	}

	return newEngine(repoRoot, logger, cfg, gitAdapter, func(ctx context.Context) (string, error) {
		return repostate.HeadCommit(ctx, repoRoot)
	})
}

func newEngine(repoRoot string, logger *slog.Logger, cfg *config.Config, source coupling.HistorySource, head func(context.Context) (string, error)) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exists := paths.FileExists(repoRoot)
	analyzer, err := coupling.NewAnalyzer(source, repoRoot, coupling.OptionsFromConfig(cfg), exists, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		logger:   logger,
		config:   cfg,
		repoRoot: repoRoot,
		analyzer: analyzer,
		finder:   similar.NewFinder(repoRoot, cfg.RelatedFiles.SimilarNames.Exclude, logger),
		cache:    NewResultCache(time.Duration(cfg.Cache.TTLSeconds)*time.Second, cfg.Cache.MaxEntries),
		sessions: NewSessions(),
		exists:   exists,
		head:     head,
	}, nil
}

// Related answers a related-files query. A query superseded by a newer one in
// the same session returns an empty response with Superseded set and is never
// cached. Cancelling ctx otherwise returns ctx's error.
func (e *Engine) Related(ctx context.Context, req RelatedRequest) (*Response, error) {
	startTime := time.Now()

	if err := config.ValidateLimit("limit", req.Limit); err != nil {
		return nil, err
	}
	if req.File == "" {
		return nil, &config.ConfigError{Field: "file", Message: "is required"}
	}
	file := paths.Resolve(req.File, e.repoRoot)

	if req.Session != "" {
		var done func()
		ctx, done = e.sessions.Begin(ctx, req.Session, file)
		defer done()
	}

	key := ""
	head, headErr := e.head(ctx)
	if headErr == nil {
		key = cacheKey(head, file, req.Limit)
		if cached, cachedAt, ok := e.cache.Get(key); ok && e.stillExists(cached) {
			hit := *cached
			hit.Provenance.Cached = true
			hit.Provenance.CachedAt = cachedAt.UTC().Format(time.RFC3339)
			return &hit, nil
		}
	}

	resp := emptyResponse(file)
	resp.HeadCommit = head
	resp.Provenance.QueryID = uuid.NewString()
	logger := e.logger.With("query", resp.Provenance.QueryID, "file", file)

	if e.config.RelatedFiles.EditedTogether.Enabled {
		analysis, err := e.analyzer.Analyze(ctx, file, req.Limit)
		if err != nil {
			return e.abandoned(ctx, logger, file, err)
		}
		resp.EditedTogether = analysis.Related
		resp.Insights = analysis.Insights()
		resp.Provenance.CommitsExamined = analysis.CommitsExamined
		resp.Provenance.CommitsSkipped = analysis.CommitsSkipped
		resp.Provenance.LookupFailures = analysis.LookupFailures
	}

	if e.config.RelatedFiles.SimilarNames.Enabled {
		names, err := e.finder.Find(ctx, file, e.config.RelatedFiles.SimilarNames.Limit)
		switch {
		case ctx.Err() != nil:
			return e.abandoned(ctx, logger, file, ctx.Err())
		case err != nil:
			logger.Warn("Similar-name search failed", "error", err)
			resp.Provenance.Warnings = append(resp.Provenance.Warnings, fmt.Sprintf("similar-name search failed: %v", err))
		default:
			resp.SimilarNames = names
		}
	}

	if err := ctx.Err(); err != nil {
		return e.abandoned(ctx, logger, file, err)
	}

	resp.Provenance.QueryDurationMs = time.Since(startTime).Milliseconds()
	if key != "" {
		e.cache.Set(key, resp)
	}

	logger.Debug("Related-files query complete",
		"editedTogether", len(resp.EditedTogether),
		"similarNames", len(resp.SimilarNames),
		"durationMs", resp.Provenance.QueryDurationMs,
	)
	return resp, nil
}

// Similar runs only the similar-name search. As with Related, limit 0
// returns no names and limit < 0 is rejected.
func (e *Engine) Similar(ctx context.Context, file string, limit int) ([]string, error) {
	if err := config.ValidateLimit("limit", limit); err != nil {
		return nil, err
	}
	if file == "" {
		return nil, &config.ConfigError{Field: "file", Message: "is required"}
	}
	return e.finder.Find(ctx, paths.Resolve(file, e.repoRoot), limit)
}

// stillExists reports whether every file a cached response recommends is
// still in the working tree. A response naming a deleted file is recomputed.
func (e *Engine) stillExists(resp *Response) bool {
	for _, wf := range resp.EditedTogether {
		if !e.exists(wf.File) {
			return false
		}
	}
	for _, name := range resp.SimilarNames {
		if !e.exists(name) {
			return false
		}
	}
	return true
}

func (e *Engine) abandoned(ctx context.Context, logger *slog.Logger, file string, err error) (*Response, error) {
	if IsSuperseded(ctx) {
		logger.Debug("Query superseded, discarding results")
		resp := emptyResponse(file)
		resp.Superseded = true
		return resp, nil
	}
	return nil, err
}

func emptyResponse(file string) *Response {
	return &Response{
		File:           file,
		EditedTogether: []coupling.WeightedFile{},
		SimilarNames:   []string{},
	}
}

func cacheKey(head, file string, limit int) string {
	return fmt.Sprintf("%s\x00%s\x00%d", head, file, limit)
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() *config.Config {
	return e.config
}

// Stats returns a snapshot of cache and session state.
func (e *Engine) Stats() Stats {
	return Stats{
		CachedResponses: e.cache.Size(),
		ActiveSessions:  e.sessions.Active(),
	}
}

// ClearCache drops every cached response.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

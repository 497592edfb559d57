package coupling

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relfiles/internal/backends/git"
	"relfiles/internal/config"
	"relfiles/internal/errors"
	"relfiles/internal/paths"
	"relfiles/internal/slogutil"
	"relfiles/internal/testutil"
)

// fakeSource serves a scripted newest-first history.
type fakeSource struct {
	commits    []string
	files      map[string][]string
	logErr     error
	failCommit map[string]bool
	delay      time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeSource(sets ...[]string) *fakeSource {
	s := &fakeSource{files: make(map[string][]string), failCommit: make(map[string]bool)}
	for i, set := range sets {
		id := fmt.Sprintf("c%02d", i)
		s.commits = append(s.commits, id)
		s.files[id] = set
	}
	return s
}

func (s *fakeSource) RecentCommits(ctx context.Context, _ string, count int) ([]string, error) {
	if s.logErr != nil {
		return nil, s.logErr
	}
	if count < len(s.commits) {
		return s.commits[:count], nil
	}
	return s.commits, nil
}

func (s *fakeSource) FilesInCommit(ctx context.Context, id string) ([]string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxInFlight.Load()
		if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.failCommit[id] {
		return nil, errors.NewRelfilesError(errors.RetrievalFailed, "bad object "+id, nil, nil)
	}
	return s.files[id], nil
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.NumberOfCommits = 100
	return opts
}

func newTestAnalyzer(t *testing.T, source HistorySource, exists ExistsFunc) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(source, "/repo", testOptions(), exists, slogutil.NewDiscardLogger())
	require.NoError(t, err)
	return a
}

func filesOf(results []WeightedFile) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.File
	}
	return out
}

func TestAccumulate_EditedTogetherExample(t *testing.T) {
	acc := Accumulate([][]string{{"A", "B"}, {"A"}}, DefaultHeuristics())

	a, ok := acc.Get("A")
	require.True(t, ok)
	assert.InDelta(t, 1.4, a.Additive, 1e-9)
	assert.InDelta(t, 1.5, a.Modifier, 1e-9)
	assert.InDelta(t, 2.1, a.Final(), 1e-9)

	b, ok := acc.Get("B")
	require.True(t, ok)
	assert.InDelta(t, 0.5, b.Additive, 1e-9)
	assert.InDelta(t, 1.0, b.Modifier, 1e-9)
	assert.InDelta(t, 0.5, b.Final(), 1e-9)

	assert.Equal(t, []string{"A", "B"}, acc.Files())
	assert.Equal(t, 2, acc.Processed)
	assert.Equal(t, 0, acc.Skipped)
}

func TestAccumulate_DecayMonotonicity(t *testing.T) {
	h := DefaultHeuristics()
	h.DecayFactor = 0.5

	acc := Accumulate([][]string{{"A"}, {"B"}}, h)
	a, _ := acc.Get("A")
	b, _ := acc.Get("B")
	assert.Greater(t, a.Additive, b.Additive)
	assert.InDelta(t, 0.5, b.Additive, 1e-9)
}

func TestAccumulate_RepeatBoost(t *testing.T) {
	h := DefaultHeuristics()
	h.DecayFactor = 1

	acc := Accumulate([][]string{{"A", "B"}, {"A", "C"}}, h)
	a, _ := acc.Get("A")
	b, _ := acc.Get("B")
	c, _ := acc.Get("C")

	assert.Greater(t, a.Final(), b.Final())
	assert.InDelta(t, b.Final(), c.Final(), 1e-9)
	assert.InDelta(t, 1.0*1.5, a.Final(), 1e-9)
}

func TestAccumulate_ModifierCompounds(t *testing.T) {
	h := DefaultHeuristics()
	acc := Accumulate([][]string{{"A"}, {"A"}, {"A"}}, h)

	a, _ := acc.Get("A")
	assert.InDelta(t, 1.5*1.5, a.Modifier, 1e-9)
	assert.InDelta(t, 1+0.9+0.81, a.Additive, 1e-9)
}

func TestAccumulate_NoiseFilter(t *testing.T) {
	big := make([]string, 101)
	for i := range big {
		big[i] = fmt.Sprintf("gen/f%03d.go", i)
	}
	big[0] = "shared.go"

	acc := Accumulate([][]string{{"A"}, big, {"B"}, {"shared.go"}}, DefaultHeuristics())

	assert.Equal(t, 1, acc.Skipped)
	assert.Equal(t, 3, acc.Processed)

	_, ok := acc.Get("gen/f050.go")
	assert.False(t, ok, "files only in an oversized commit must not be candidates")

	// The oversized commit does not decay the base weight.
	b, _ := acc.Get("B")
	assert.InDelta(t, 0.9, b.Additive, 1e-9)

	shared, ok := acc.Get("shared.go")
	require.True(t, ok)
	assert.InDelta(t, 0.81, shared.Additive, 1e-9)
	assert.InDelta(t, 1.0, shared.Modifier, 1e-9)
}

func TestAccumulate_EmptySetSkipped(t *testing.T) {
	acc := Accumulate([][]string{nil, {}, {"A"}}, DefaultHeuristics())

	a, _ := acc.Get("A")
	assert.InDelta(t, 1.0, a.Additive, 1e-9)
	assert.Equal(t, 2, acc.Skipped)
}

func TestAccumulate_MaxFilesBoundaryInclusive(t *testing.T) {
	h := DefaultHeuristics()
	h.MaxFilesPerCommit = 2

	acc := Accumulate([][]string{{"A", "B"}, {"C", "D", "E"}}, h)
	assert.Equal(t, 2, acc.Len())
	assert.Equal(t, 1, acc.Skipped)
}

func TestRank_Order(t *testing.T) {
	acc := Accumulate([][]string{{"A", "B"}, {"A"}}, DefaultHeuristics())

	results := Rank(acc, "Q", 10, nil, "/repo")
	require.Len(t, results, 2)
	assert.Equal(t, []string{"A", "B"}, filesOf(results))
	assert.InDelta(t, 2.1, results[0].Weight, 1e-9)
	assert.InDelta(t, 0.5, results[1].Weight, 1e-9)
}

func TestRank_DescendingWeights(t *testing.T) {
	sets := [][]string{
		{"q.go", "a.go", "b.go"},
		{"q.go", "c.go"},
		{"q.go", "a.go", "d.go", "e.go"},
		{"q.go", "b.go"},
		{"q.go", "f.go", "a.go"},
	}
	acc := Accumulate(sets, DefaultHeuristics())

	results := Rank(acc, "q.go", 10, nil, "/repo")
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Weight, results[i].Weight, "results must be in descending weight")
	}
}

func TestRank_TiesKeepFirstSeenOrder(t *testing.T) {
	acc := Accumulate([][]string{{"z.go", "a.go", "m.go"}}, DefaultHeuristics())

	results := Rank(acc, "q.go", 10, nil, "/repo")
	assert.Equal(t, []string{"z.go", "a.go", "m.go"}, filesOf(results))
}

func TestRank_ExcludesQueryFile(t *testing.T) {
	acc := Accumulate([][]string{{"src/q.go", "src/a.go"}, {"src/q.go"}}, DefaultHeuristics())

	tests := []struct {
		name  string
		query string
	}{
		{"relative", "src/q.go"},
		{"dotted", "./src/q.go"},
		{"absolute", "/repo/src/q.go"},
		{"redundant", "src/../src/q.go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Rank(acc, tt.query, 10, nil, "/repo")
			assert.Equal(t, []string{"src/a.go"}, filesOf(results))
		})
	}
}

func TestRank_ExistenceFilterBeforeLimit(t *testing.T) {
	acc := Accumulate([][]string{{"gone.go"}, {"a.go"}, {"b.go"}}, DefaultHeuristics())
	exists := func(p string) bool { return p != "gone.go" }

	results := Rank(acc, "q.go", 2, exists, "/repo")
	assert.Equal(t, []string{"a.go", "b.go"}, filesOf(results))
}

func TestRank_Bounds(t *testing.T) {
	acc := Accumulate([][]string{{"a.go", "b.go", "c.go"}}, DefaultHeuristics())

	assert.Len(t, Rank(acc, "q.go", 2, nil, "/repo"), 2)
	assert.Len(t, Rank(acc, "q.go", 50, nil, "/repo"), 3)
	assert.Empty(t, Rank(acc, "q.go", 0, nil, "/repo"))
	assert.Empty(t, Rank(acc, "q.go", -1, nil, "/repo"))
	assert.Empty(t, Rank(nil, "q.go", 5, nil, "/repo"))
	assert.NotNil(t, Rank(acc, "q.go", 0, nil, "/repo"))
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(o *Options)
		wantField string
	}{
		{"defaults", func(o *Options) {}, ""},
		{"decay zero", func(o *Options) { o.Heuristics.DecayFactor = 0 }, "olderCommitDecayFactor"},
		{"decay above one", func(o *Options) { o.Heuristics.DecayFactor = 1.01 }, "olderCommitDecayFactor"},
		{"repeat below one", func(o *Options) { o.Heuristics.RepeatBoost = 0.99 }, "repeatModifierFactor"},
		{"negative commits", func(o *Options) { o.NumberOfCommits = -1 }, "numberOfCommits"},
		{"zero max files", func(o *Options) { o.Heuristics.MaxFilesPerCommit = 0 }, "maxFilesPerCommit"},
		{"zero base weight", func(o *Options) { o.Heuristics.BaseWeight = 0 }, "baseWeight"},
		{"negative in flight", func(o *Options) { o.MaxInFlight = -2 }, "maxInFlight"},
		{"decay NaN", func(o *Options) { o.Heuristics.DecayFactor = math.NaN() }, "olderCommitDecayFactor"},
		{"repeat NaN", func(o *Options) { o.Heuristics.RepeatBoost = math.NaN() }, "repeatModifierFactor"},
		{"repeat infinite", func(o *Options) { o.Heuristics.RepeatBoost = math.Inf(1) }, "repeatModifierFactor"},
		{"base weight NaN", func(o *Options) { o.Heuristics.BaseWeight = math.NaN() }, "baseWeight"},
		{"base weight infinite", func(o *Options) { o.Heuristics.BaseWeight = math.Inf(1) }, "baseWeight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)

			_, err := NewAnalyzer(newFakeSource(), "/repo", opts, nil, nil)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *config.ConfigError
			require.True(t, stderrors.As(err, &cfgErr), "want *config.ConfigError, got %T", err)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RelatedFiles.EditedTogether.NumberOfCommits = 12
	cfg.RelatedFiles.EditedTogether.MaxFilesPerCommit = 40
	cfg.RelatedFiles.EditedTogether.Heuristics.OlderCommitDecayFactor = 0.7
	cfg.RelatedFiles.EditedTogether.Heuristics.RepeatModifierFactor = 2
	cfg.Git.MaxInFlight = 3

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 12, opts.NumberOfCommits)
	assert.Equal(t, 40, opts.Heuristics.MaxFilesPerCommit)
	assert.Equal(t, 0.7, opts.Heuristics.DecayFactor)
	assert.Equal(t, 2.0, opts.Heuristics.RepeatBoost)
	assert.Equal(t, 1.0, opts.Heuristics.BaseWeight)
	assert.Equal(t, 3, opts.MaxInFlight)

	assert.Equal(t, DefaultOptions(), OptionsFromConfig(nil))
}

func TestAnalyzer_EditedTogether(t *testing.T) {
	source := newFakeSource([]string{"A", "B"}, []string{"A"})
	a := newTestAnalyzer(t, source, nil)

	results, err := a.RelatedFiles(context.Background(), "Q", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].File)
	assert.InDelta(t, 2.1, results[0].Weight, 1e-9)
	assert.Equal(t, "B", results[1].File)
	assert.InDelta(t, 0.5, results[1].Weight, 1e-9)
}

func TestAnalyzer_EmptyHistory(t *testing.T) {
	a := newTestAnalyzer(t, newFakeSource(), nil)

	analysis, err := a.Analyze(context.Background(), "Q", 10)
	require.NoError(t, err)
	assert.Empty(t, analysis.Related)
	assert.Equal(t, []string{"No commits touched this file"}, analysis.Insights())
}

func TestAnalyzer_ZeroLimit(t *testing.T) {
	a := newTestAnalyzer(t, newFakeSource([]string{"A", "B"}), nil)

	results, err := a.RelatedFiles(context.Background(), "Q", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAnalyzer_NegativeLimit(t *testing.T) {
	a := newTestAnalyzer(t, newFakeSource([]string{"A"}), nil)

	_, err := a.RelatedFiles(context.Background(), "Q", -1)
	var cfgErr *config.ConfigError
	require.True(t, stderrors.As(err, &cfgErr))
	assert.Equal(t, "limit", cfgErr.Field)
}

func TestAnalyzer_OversizedCommitSkipped(t *testing.T) {
	big := []string{"Q"}
	for i := 0; i < 100; i++ {
		big = append(big, fmt.Sprintf("noise%03d.go", i))
	}
	require.Len(t, big, 101)

	a := newTestAnalyzer(t, newFakeSource(big, []string{"Q", "noise007.go"}, []string{"Q", "B"}), nil)

	analysis, err := a.Analyze(context.Background(), "Q", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.CommitsSkipped)
	assert.Equal(t, []string{"noise007.go", "B"}, filesOf(analysis.Related))
	assert.InDelta(t, 0.5, analysis.Related[0].Weight, 1e-9)
	assert.InDelta(t, 0.45, analysis.Related[1].Weight, 1e-9)
}

func TestAnalyzer_HistoryUnavailable(t *testing.T) {
	source := newFakeSource([]string{"A"})
	source.logErr = errors.NewRelfilesError(errors.RetrievalFailed, "git log failed", nil, nil)
	a := newTestAnalyzer(t, source, nil)

	results, err := a.RelatedFiles(context.Background(), "Q", 10)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestAnalyzer_HistoryErrorLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
	}{
		{"retrieval failure", errors.NewRelfilesError(errors.Timeout, "git log timed out", nil, nil), "[warn]"},
		{"unexpected failure", stderrors.New("source closed"), "[error]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newFakeSource([]string{"A"})
			source.logErr = tt.err

			var logs bytes.Buffer
			a, err := NewAnalyzer(source, "/repo", testOptions(), nil, slogutil.NewLogger(&logs, slog.LevelDebug))
			require.NoError(t, err)

			results, err := a.RelatedFiles(context.Background(), "Q", 10)
			assert.NoError(t, err)
			assert.Empty(t, results)
			assert.Contains(t, logs.String(), tt.wantLevel)
		})
	}
}

func TestAnalyzer_FailedCommitLookupCountsAsEmpty(t *testing.T) {
	source := newFakeSource([]string{"Q", "A"}, []string{"Q", "B"}, []string{"Q", "C"})
	source.failCommit["c01"] = true
	a := newTestAnalyzer(t, source, nil)

	analysis, err := a.Analyze(context.Background(), "Q", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.LookupFailures)
	assert.Equal(t, []string{"A", "C"}, filesOf(analysis.Related))
	// The failed commit does not decay the base weight.
	assert.InDelta(t, 0.5, analysis.Related[0].Weight, 1e-9)
	assert.InDelta(t, 0.45, analysis.Related[1].Weight, 1e-9)
}

func TestAnalyzer_ExcludesQueryAndMissingFiles(t *testing.T) {
	source := newFakeSource([]string{"src/q.go", "src/a.go", "deleted.go"}, []string{"src/q.go", "src/b.go"})
	exists := func(p string) bool { return p != "deleted.go" }
	a := newTestAnalyzer(t, source, exists)

	results, err := a.RelatedFiles(context.Background(), "/repo/src/q.go", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.go", "src/b.go"}, filesOf(results))
}

func TestAnalyzer_NumberOfCommitsBoundsHistory(t *testing.T) {
	source := newFakeSource([]string{"Q", "A"}, []string{"Q", "B"}, []string{"Q", "C"})
	opts := testOptions()
	opts.NumberOfCommits = 2
	a, err := NewAnalyzer(source, "/repo", opts, nil, nil)
	require.NoError(t, err)

	results, err := a.RelatedFiles(context.Background(), "Q", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, filesOf(results))
}

func TestAnalyzer_ConcurrencyLimit(t *testing.T) {
	sets := make([][]string, 20)
	for i := range sets {
		sets[i] = []string{"Q", fmt.Sprintf("f%02d.go", i)}
	}
	source := newFakeSource(sets...)
	source.delay = 5 * time.Millisecond

	opts := testOptions()
	opts.MaxInFlight = 3
	a, err := NewAnalyzer(source, "/repo", opts, nil, nil)
	require.NoError(t, err)

	results, err := a.RelatedFiles(context.Background(), "Q", 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, source.maxInFlight.Load(), int32(3))

	// Newest commits still weigh most despite concurrent lookups.
	assert.Equal(t, []string{"f00.go", "f01.go", "f02.go", "f03.go", "f04.go"}, filesOf(results))
}

func TestAnalyzer_Cancelled(t *testing.T) {
	sets := make([][]string, 10)
	for i := range sets {
		sets[i] = []string{"Q", fmt.Sprintf("f%02d.go", i)}
	}
	source := newFakeSource(sets...)
	source.delay = time.Second
	a := newTestAnalyzer(t, source, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	var (
		results []WeightedFile
		err     error
	)
	go func() {
		defer wg.Done()
		results, err = a.RelatedFiles(ctx, "Q", 10)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	wg.Wait()

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestAnalysis_Insights(t *testing.T) {
	an := &Analysis{CommitsExamined: 10, CommitsSkipped: 2, LookupFailures: 1}
	insights := an.Insights()
	require.Len(t, insights, 3)
	assert.Contains(t, insights[0], "2 of 10 commits")
	assert.Contains(t, insights[1], "1 commits could not be read")
}

func TestAnalyzer_GitHistory(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	repo.Commit(t, "init", "main.go", "util.go", "README.md")
	repo.Commit(t, "feature", "main.go", "handler.go")
	repo.Commit(t, "docs", "README.md")
	repo.Commit(t, "tidy", "main.go", "handler.go", "old.go")
	repo.Remove(t, "drop old", "old.go")

	cfg := config.DefaultConfig()
	adapter, err := git.NewGitAdapter(cfg, repo.Root, slogutil.NewDiscardLogger())
	require.NoError(t, err)

	a, err := NewAnalyzer(adapter, repo.Root, OptionsFromConfig(cfg), paths.FileExists(repo.Root), slogutil.NewDiscardLogger())
	require.NoError(t, err)

	results, err := a.RelatedFiles(context.Background(), repo.Path("main.go"), 10)
	require.NoError(t, err)

	// handler.go: (1/3 + 0.9/2) * 1.5; README.md and util.go tie at 0.81/3 in
	// git's listing order; old.go no longer exists.
	require.Equal(t, []string{"handler.go", "README.md", "util.go"}, filesOf(results))
	assert.InDelta(t, (1.0/3+0.45)*1.5, results[0].Weight, 1e-9)
	assert.InDelta(t, 0.27, results[1].Weight, 1e-9)
	assert.InDelta(t, 0.27, results[2].Weight, 1e-9)
}

package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
)

// mockJudge implements driven.ConflictJudge for testing.
type mockJudge struct {
	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
	delay       time.Duration
	judgeFn     func(textA, textB string) (driven.Judgment, error)
}

func (m *mockJudge) Judge(ctx context.Context, textA, textB string) (driven.Judgment, error) {
	m.mu.Lock()
	m.calls++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	delay := m.delay
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return driven.Judgment{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return driven.Judgment{}, err
	}

	if m.judgeFn != nil {
		return m.judgeFn(textA, textB)
	}
	return driven.Judgment{Verdict: domain.VerdictNoConflict, Confidence: 0.9}, nil
}

func (m *mockJudge) ModelName() string            { return "mock" }
func (m *mockJudge) Ping(_ context.Context) error { return nil }
func (m *mockJudge) Close() error                 { return nil }

func (m *mockJudge) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func fastSettings() domain.AnalysisSettings {
	s := domain.DefaultAnalysisSettings()
	s.PerCallTimeoutMs = 500
	s.RetryAttempts = 1
	return s
}

func pendingPairs(ids ...[2]string) ([]domain.CandidatePair, map[string]domain.EnrichedDocument) {
	pairs := make([]domain.CandidatePair, len(ids))
	docs := make(map[string]domain.EnrichedDocument)
	for i, pair := range ids {
		a, b := pair[0], pair[1]
		pairs[i] = domain.CandidatePair{
			ID:              a + ":" + b,
			DocA:            a,
			DocB:            b,
			SimilarityScore: 0.9,
			Tier:            i / domain.DefaultTierSize,
			Status:          domain.PairPending,
		}
		for _, id := range []string{a, b} {
			docs[id] = domain.EnrichedDocument{
				Document: domain.Document{ID: id, Title: id, Content: "text of " + id, Vector: []float32{1}},
			}
		}
	}
	return pairs, docs
}

func defaultBudget() domain.Budget {
	return domain.Budget{MaxPairs: 10, MaxWallClockMs: 10000, MaxConcurrency: 2, MaxCostUnits: 100}
}

func requireAllTerminal(t *testing.T, pairs []domain.CandidatePair) {
	t.Helper()
	for _, p := range pairs {
		assert.True(t, p.Status.IsTerminal(), "pair %s left in state %s", p.ID, p.Status)
	}
}

func TestAnalyzeRespectsPairBudget(t *testing.T) {
	judge := &mockJudge{}
	analyzer := NewAnalyzer(judge, fastSettings(), nil)

	pairs, docs := pendingPairs([2]string{"a", "b"}, [2]string{"a", "c"}, [2]string{"b", "c"},
		[2]string{"a", "d"}, [2]string{"c", "d"})

	budget := defaultBudget()
	budget.MaxPairs = 2

	outcome := analyzer.Analyze(context.Background(), pairs, docs, budget)

	assert.Equal(t, 2, judge.callCount())
	assert.Len(t, outcome.Results, 2)
	requireAllTerminal(t, outcome.Pairs)

	report := BuildReport(nil, outcome)
	assert.True(t, report.Degraded)
	assert.Equal(t, 2, report.Stats.PairsAnalyzed)
	assert.Equal(t, 3, report.Stats.PairsSkipped)
	assert.LessOrEqual(t, report.Stats.PairsAnalyzed, budget.MaxPairs)
}

func TestAnalyzeZeroWallClockSkipsEverything(t *testing.T) {
	judge := &mockJudge{}
	analyzer := NewAnalyzer(judge, fastSettings(), nil)

	pairs, docs := pendingPairs([2]string{"a", "b"}, [2]string{"a", "c"})

	budget := defaultBudget()
	budget.MaxWallClockMs = 0

	outcome := analyzer.Analyze(context.Background(), pairs, docs, budget)

	assert.Zero(t, judge.callCount())
	assert.Empty(t, outcome.Results)
	assert.Zero(t, outcome.CostUnitsSpent)
	for _, p := range outcome.Pairs {
		assert.Equal(t, domain.PairSkipped, p.Status)
	}

	report := BuildReport(nil, outcome)
	assert.True(t, report.Degraded)
	assert.Zero(t, report.Stats.PairsAnalyzed)
}

func TestAnalyzeProviderErrorRecordsInconclusive(t *testing.T) {
	judge := &mockJudge{
		judgeFn: func(textA, textB string) (driven.Judgment, error) {
			if strings.Contains(textA, "flaky") || strings.Contains(textB, "flaky") {
				return driven.Judgment{}, errors.New("upstream 500")
			}
			return driven.Judgment{
				Verdict:     domain.VerdictConflict,
				Explanation: "dates disagree",
				Confidence:  0.8,
			}, nil
		},
	}
	analyzer := NewAnalyzer(judge, fastSettings(), nil)

	pairs, docs := pendingPairs([2]string{"a", "flaky"}, [2]string{"a", "b"})

	outcome := analyzer.Analyze(context.Background(), pairs, docs, defaultBudget())

	require.Len(t, outcome.Results, 2)
	requireAllTerminal(t, outcome.Pairs)

	byPair := make(map[string]domain.ConflictResult)
	for _, r := range outcome.Results {
		byPair[r.PairID] = r
	}
	assert.Equal(t, domain.VerdictInconclusive, byPair["a:flaky"].Verdict)
	assert.Equal(t, domain.VerdictConflict, byPair["a:b"].Verdict)

	// One retry for the failing pair, one call for the clean one.
	assert.Equal(t, 3, judge.callCount())

	report := BuildReport(nil, outcome)
	assert.False(t, report.Degraded)
}

func TestAnalyzePerCallTimeout(t *testing.T) {
	settings := fastSettings()
	settings.PerCallTimeoutMs = 50
	judge := &mockJudge{delay: 500 * time.Millisecond}
	analyzer := NewAnalyzer(judge, settings, nil)

	pairs, docs := pendingPairs([2]string{"a", "b"})

	outcome := analyzer.Analyze(context.Background(), pairs, docs, defaultBudget())

	require.Len(t, outcome.Pairs, 1)
	assert.Equal(t, domain.PairTimedOut, outcome.Pairs[0].Status)
	assert.Empty(t, outcome.Results)
	// Timed-out dispatches are still charged.
	assert.Equal(t, 1, outcome.CostUnitsSpent)

	report := BuildReport(nil, outcome)
	assert.True(t, report.Degraded)
	assert.Equal(t, 1, report.Stats.PairsTimedOut)
	assert.Zero(t, report.Stats.PairsSkipped)
}

func TestAnalyzeWallClockBoundsSlotWait(t *testing.T) {
	settings := fastSettings()
	settings.PerCallTimeoutMs = 1000
	judge := &mockJudge{delay: 150 * time.Millisecond}
	analyzer := NewAnalyzer(judge, settings, nil)

	pairs, docs := pendingPairs([2]string{"a", "b"}, [2]string{"a", "c"})

	budget := defaultBudget()
	budget.MaxWallClockMs = 100
	budget.MaxConcurrency = 1

	outcome := analyzer.Analyze(context.Background(), pairs, docs, budget)

	// The second pair waits for the only worker slot; by the time one
	// frees up the wall-clock budget is spent, so it must not dispatch.
	assert.Equal(t, 1, judge.callCount())
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, domain.PairSkipped, outcome.Pairs[1].Status)
	assert.LessOrEqual(t, outcome.WallClockMs,
		budget.MaxWallClockMs+int64(settings.PerCallTimeoutMs))

	report := BuildReport(nil, outcome)
	assert.True(t, report.Degraded)
	assert.Equal(t, 1, report.Stats.PairsSkipped)
}

func TestAnalyzeHardCancellation(t *testing.T) {
	judge := &mockJudge{}
	analyzer := NewAnalyzer(judge, fastSettings(), nil)

	pairs, docs := pendingPairs([2]string{"a", "b"}, [2]string{"a", "c"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := analyzer.Analyze(ctx, pairs, docs, defaultBudget())

	assert.Zero(t, judge.callCount())
	requireAllTerminal(t, outcome.Pairs)
	assert.Empty(t, outcome.Results)
}

func TestAnalyzeConcurrencyCap(t *testing.T) {
	judge := &mockJudge{delay: 30 * time.Millisecond}
	analyzer := NewAnalyzer(judge, fastSettings(), nil)

	pairs, docs := pendingPairs([2]string{"a", "b"}, [2]string{"a", "c"}, [2]string{"a", "d"},
		[2]string{"b", "c"}, [2]string{"b", "d"}, [2]string{"c", "d"})

	budget := defaultBudget()
	budget.MaxConcurrency = 2

	outcome := analyzer.Analyze(context.Background(), pairs, docs, budget)

	assert.Len(t, outcome.Results, 6)
	judge.mu.Lock()
	maxInFlight := judge.maxInFlight
	judge.mu.Unlock()
	assert.LessOrEqual(t, maxInFlight, 2)
}

func TestAnalyzeCostBudget(t *testing.T) {
	settings := fastSettings()
	settings.CostPerCall = 2
	judge := &mockJudge{}
	analyzer := NewAnalyzer(judge, settings, nil)

	pairs, docs := pendingPairs([2]string{"a", "b"}, [2]string{"a", "c"}, [2]string{"b", "c"})

	budget := defaultBudget()
	budget.MaxCostUnits = 3

	outcome := analyzer.Analyze(context.Background(), pairs, docs, budget)

	// Only one call fits: the second would exceed three cost units.
	assert.Equal(t, 1, judge.callCount())
	assert.Equal(t, 2, outcome.CostUnitsSpent)
	assert.Len(t, outcome.Results, 1)

	report := BuildReport(nil, outcome)
	assert.True(t, report.Degraded)
	assert.Equal(t, 2, report.Stats.PairsSkipped)
}

func TestAnalyzeNilJudgeSkipsEverything(t *testing.T) {
	analyzer := NewAnalyzer(nil, fastSettings(), nil)
	pairs, docs := pendingPairs([2]string{"a", "b"})

	outcome := analyzer.Analyze(context.Background(), pairs, docs, defaultBudget())
	require.Len(t, outcome.Pairs, 1)
	assert.Equal(t, domain.PairSkipped, outcome.Pairs[0].Status)
}

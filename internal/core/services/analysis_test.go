package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	docs       []domain.Document
	queryErr   error
	lastFilter domain.Filter
	lastK      int
}

func (m *mockVectorStore) Query(
	_ context.Context, _ []float32, filter domain.Filter, k int,
) ([]domain.Document, error) {
	m.lastFilter = filter
	m.lastK = k
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if k > len(m.docs) {
		return m.docs, nil
	}
	return m.docs[:k], nil
}

func (m *mockVectorStore) Close() error { return nil }

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	vector []float32
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vector, nil
}

func (m *mockEmbedder) Dimensions() int               { return len(m.vector) }
func (m *mockEmbedder) ModelName() string             { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error  { return nil }
func (m *mockEmbedder) Close() error                  { return nil }

func candidateDocs() []domain.Document {
	return []domain.Document{
		{ID: "a", Title: "A", Content: "release ships friday", Vector: []float32{1, 0}},
		{ID: "b", Title: "B", Content: "release ships monday", Vector: []float32{0.99, 0.14}},
		{ID: "c", Title: "C", Content: "auth uses oauth", Vector: []float32{0.97, 0.24}},
		{ID: "d", Title: "D", Content: "db is postgres", Vector: []float32{0, 1}},
		{ID: "e", Title: "E", Content: "cache is redis", Vector: []float32{0.14, 0.99}},
	}
}

func newTestService(store *mockVectorStore, judge *mockJudge) *ConflictAnalysisService {
	settings := fastSettings()
	settings.SimilarityThreshold = 0
	svc := NewConflictAnalysisService(store, &mockEmbedder{vector: []float32{1, 0}}, judge, settings)
	// Tests drive concurrency and timing directly.
	svc.analyzer.pacer = nil
	return svc
}

func TestDetectConflictsEndToEnd(t *testing.T) {
	store := &mockVectorStore{docs: candidateDocs()}
	judge := &mockJudge{}
	svc := newTestService(store, judge)

	report, err := svc.DetectConflicts(context.Background(), "when does the release ship?", domain.AnalysisOptions{
		Limit:    5,
		MaxPairs: 2,
	})
	require.NoError(t, err)
	require.NotNil(t, report)

	// Exactly the pair budget is analysed; everything else is skipped.
	assert.Equal(t, 2, report.Stats.PairsAnalyzed)
	assert.Equal(t, 2, judge.callCount())
	assert.True(t, report.Degraded)
	assert.Equal(t, report.Stats.PairsConsidered,
		report.Stats.PairsAnalyzed+report.Stats.PairsSkipped+report.Stats.PairsTimedOut)

	// Accounting is complete: every pair holds a terminal status.
	for _, p := range report.Pairs {
		assert.True(t, p.Status.IsTerminal())
	}

	assert.NotEmpty(t, report.Clusters)
	assert.Len(t, report.Results, 2)
}

func TestDetectConflictsRetrievalFailureIsFatal(t *testing.T) {
	store := &mockVectorStore{queryErr: errors.New("connection refused")}
	svc := newTestService(store, &mockJudge{})

	report, err := svc.DetectConflicts(context.Background(), "anything", domain.AnalysisOptions{})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, domain.ErrRetrieval))

	var retrievalErr *domain.RetrievalError
	require.True(t, errors.As(err, &retrievalErr))
	assert.Equal(t, "anything", retrievalErr.Query)
}

func TestDetectConflictsRejectsInvalidFilter(t *testing.T) {
	store := &mockVectorStore{docs: candidateDocs()}
	svc := newTestService(store, &mockJudge{})

	_, err := svc.DetectConflicts(context.Background(), "q", domain.AnalysisOptions{
		Filter: domain.Filter{Conditions: []domain.FilterCondition{
			{Field: "", Op: domain.FilterOpEq, Values: []string{"x"}},
		}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidFilter))

	// Fail fast: no store call happened.
	assert.Zero(t, store.lastK)
}

func TestDetectConflictsPassesFilterThrough(t *testing.T) {
	store := &mockVectorStore{docs: candidateDocs()}
	svc := newTestService(store, &mockJudge{})

	filter := domain.Filter{Conditions: []domain.FilterCondition{
		{Field: "project_id", Op: domain.FilterOpIn, Values: []string{"alpha", "beta"}},
	}}
	_, err := svc.DetectConflicts(context.Background(), "q", domain.AnalysisOptions{Filter: filter})
	require.NoError(t, err)

	// The predicate travels as a value, never rendered into a string.
	assert.Equal(t, filter, store.lastFilter)
}

func TestDetectConflictsSingleCandidate(t *testing.T) {
	store := &mockVectorStore{docs: candidateDocs()[:1]}
	judge := &mockJudge{}
	svc := newTestService(store, judge)

	report, err := svc.DetectConflicts(context.Background(), "q", domain.AnalysisOptions{})
	require.NoError(t, err)

	// Nothing to compare: empty but well-formed report, not degraded.
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Pairs)
	assert.False(t, report.Degraded)
	assert.Zero(t, judge.callCount())
	assert.Len(t, report.Clusters, 1)
}

func TestDetectConflictsMalformedCandidateIsIsolated(t *testing.T) {
	docs := candidateDocs()[:3]
	docs[1].ID = "" // malformed
	store := &mockVectorStore{docs: docs}
	svc := newTestService(store, &mockJudge{})

	report, err := svc.DetectConflicts(context.Background(), "q", domain.AnalysisOptions{MaxPairs: 5})
	require.NoError(t, err)

	// The two well-formed candidates still produce a pair.
	assert.Equal(t, 1, report.Stats.PairsConsidered)
	assert.Equal(t, 1, report.Stats.PairsAnalyzed)
}

func TestDetectConflictsZeroWallClockOverride(t *testing.T) {
	store := &mockVectorStore{docs: candidateDocs()}
	judge := &mockJudge{}
	svc := newTestService(store, judge)

	wall := int64(0)
	report, err := svc.DetectConflicts(context.Background(), "q", domain.AnalysisOptions{
		MaxWallClockMs: &wall,
	})
	require.NoError(t, err)

	assert.True(t, report.Degraded)
	assert.Zero(t, report.Stats.PairsAnalyzed)
	assert.Zero(t, judge.callCount())
	for _, p := range report.Pairs {
		assert.Equal(t, domain.PairSkipped, p.Status)
	}
}

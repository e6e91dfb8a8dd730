package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

func TestServer_handleDetectConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("returns report as output", func(t *testing.T) {
		mock := &mockConflictService{
			report: &domain.Report{
				Results: []domain.ConflictResult{
					{
						PairID:      "pair-1",
						DocA:        "doc-a",
						DocB:        "doc-b",
						Verdict:     domain.VerdictConflict,
						Explanation: "contradictory restart intervals",
						Confidence:  0.9,
					},
				},
				Clusters: []domain.Cluster{
					{ID: "cluster-1", MemberDocumentIDs: []string{"doc-a", "doc-b"}, CentroidSimilarity: 0.92},
				},
				Pairs: []domain.CandidatePair{
					{ID: "pair-1", DocA: "doc-a", DocB: "doc-b", SimilarityScore: 0.92, SameCluster: true, Status: domain.PairDone},
					{ID: "pair-2", DocA: "doc-a", DocB: "doc-c", SimilarityScore: 0.6, Tier: 1, Status: domain.PairSkipped},
				},
				Degraded: true,
				Stats: domain.Stats{
					PairsConsidered: 2,
					PairsAnalyzed:   1,
					PairsSkipped:    1,
					CostUnitsSpent:  1,
				},
			},
		}

		server, err := NewServer(&Ports{Conflict: mock})
		require.NoError(t, err)

		input := DetectInput{Query: "service restart policy"}
		_, output, err := server.handleDetectConflicts(ctx, nil, input)

		require.NoError(t, err)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "pair-1", output.Results[0].PairID)
		assert.Equal(t, "conflict", output.Results[0].Verdict)
		assert.Equal(t, 0.9, output.Results[0].Confidence)
		require.Len(t, output.Clusters, 1)
		assert.Equal(t, []string{"doc-a", "doc-b"}, output.Clusters[0].MemberDocumentIDs)
		require.Len(t, output.Pairs, 2)
		assert.Equal(t, "done", output.Pairs[0].Status)
		assert.Equal(t, "skipped", output.Pairs[1].Status)
		assert.True(t, output.Degraded)
		assert.Equal(t, 2, output.Stats.PairsConsidered)
	})

	t.Run("maps options and filters", func(t *testing.T) {
		mock := &mockConflictService{report: &domain.Report{}}
		server, err := NewServer(&Ports{Conflict: mock})
		require.NoError(t, err)

		wallclock := int64(0)
		input := DetectInput{
			Query: "rollout",
			Filters: []FilterInput{
				{Field: "source_type", Op: "eq", Values: []string{"wiki"}},
				{Field: "space", Op: "in", Values: []string{"ops", "eng"}},
			},
			Limit:          7,
			MaxPairs:       3,
			MaxWallclockMs: &wallclock,
			MaxConcurrency: 2,
			MaxCostUnits:   5,
		}
		_, _, err = server.handleDetectConflicts(ctx, nil, input)
		require.NoError(t, err)

		assert.Equal(t, "rollout", mock.lastQuery)
		assert.Equal(t, 7, mock.lastOpts.Limit)
		assert.Equal(t, 3, mock.lastOpts.MaxPairs)
		require.NotNil(t, mock.lastOpts.MaxWallClockMs)
		assert.Equal(t, int64(0), *mock.lastOpts.MaxWallClockMs)
		assert.Equal(t, 2, mock.lastOpts.MaxConcurrency)
		assert.Equal(t, 5, mock.lastOpts.MaxCostUnits)

		require.Len(t, mock.lastOpts.Filter.Conditions, 2)
		assert.Equal(t, domain.FilterOpEq, mock.lastOpts.Filter.Conditions[0].Op)
		assert.Equal(t, []string{"ops", "eng"}, mock.lastOpts.Filter.Conditions[1].Values)
	})

	t.Run("returns error on service failure", func(t *testing.T) {
		mock := &mockConflictService{
			err: errors.New("vector store unreachable"),
		}
		server, err := NewServer(&Ports{Conflict: mock})
		require.NoError(t, err)

		_, _, err = server.handleDetectConflicts(ctx, nil, DetectInput{Query: "anything"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vector store unreachable")
	})
}

package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/logger"
)

// Prioritizer builds the ranked, tiered pair queue that feeds the
// budgeted analyzer. Pairs ranked past the pair budget are marked
// skipped here, before any expensive work starts, so the analyzer never
// discovers an oversized queue mid-run.
type Prioritizer struct {
	settings domain.AnalysisSettings
}

// NewPrioritizer creates a new prioritizer.
func NewPrioritizer(settings domain.AnalysisSettings) *Prioritizer {
	return &Prioritizer{settings: settings}
}

// Prioritize ranks scored pairs into tiers. Higher similarity first;
// pairs spanning different clusters carry a priority penalty, and among
// equal priorities same-cluster pairs win. Tier assignment is monotonic:
// the queue is sorted once and never re-evaluated.
func (p *Prioritizer) Prioritize(
	scores PairScores, clusters []domain.Cluster, maxPairs int,
) []domain.CandidatePair {
	clusterOf := make(map[string]int)
	for i := range clusters {
		for _, id := range clusters[i].MemberDocumentIDs {
			clusterOf[id] = i
		}
	}

	type rankedPair struct {
		pair           domain.CandidatePair
		priority       float64
		belowThreshold bool
	}

	ranked := make([]rankedPair, 0, len(scores))
	for key, score := range scores {
		sameCluster := clusterOf[key.A] == clusterOf[key.B]
		priority := score
		if !sameCluster {
			priority -= p.settings.CrossClusterPenalty
		}
		ranked = append(ranked, rankedPair{
			pair: domain.CandidatePair{
				ID:              uuid.NewString(),
				DocA:            key.A,
				DocB:            key.B,
				SimilarityScore: score,
				SameCluster:     sameCluster,
				Status:          domain.PairPending,
			},
			priority:       priority,
			belowThreshold: score < p.settings.SimilarityThreshold,
		})
	}

	// Below-threshold pairs sink to the bottom and never dispatch, but
	// they stay in the queue as skipped so the final accounting covers
	// every pair that was considered.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].belowThreshold != ranked[j].belowThreshold {
			return !ranked[i].belowThreshold
		}
		if ranked[i].priority != ranked[j].priority {
			return ranked[i].priority > ranked[j].priority
		}
		if ranked[i].pair.SameCluster != ranked[j].pair.SameCluster {
			return ranked[i].pair.SameCluster
		}
		if ranked[i].pair.DocA != ranked[j].pair.DocA {
			return ranked[i].pair.DocA < ranked[j].pair.DocA
		}
		return ranked[i].pair.DocB < ranked[j].pair.DocB
	})

	if maxPairs < 0 {
		maxPairs = 0
	}

	pairs := make([]domain.CandidatePair, len(ranked))
	for rank := range ranked {
		pair := ranked[rank].pair
		pair.Tier = rank / p.settings.TierSize
		if rank >= maxPairs || ranked[rank].belowThreshold {
			// Past the budget or under the similarity threshold:
			// never enters the dispatch queue.
			pair.Status = domain.PairSkipped
		}
		pairs[rank] = pair
	}

	logger.Debug("Prioritize: %d pairs ranked, %d within budget", len(pairs), min(maxPairs, len(pairs)))
	return pairs
}

package services

import (
	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

// BuildReport merges completed judgments with the pair accounting into
// the final response. It never fails: once upstream stages succeeded,
// degradation is data, not an error.
func BuildReport(clusters []domain.Cluster, outcome AnalysisOutcome) domain.Report {
	stats := domain.Stats{
		PairsConsidered: len(outcome.Pairs),
		PairsAnalyzed:   len(outcome.Results),
		WallClockMs:     outcome.WallClockMs,
		CostUnitsSpent:  outcome.CostUnitsSpent,
	}

	degraded := false
	for i := range outcome.Pairs {
		switch outcome.Pairs[i].Status {
		case domain.PairSkipped:
			stats.PairsSkipped++
			degraded = true
		case domain.PairTimedOut:
			stats.PairsTimedOut++
			degraded = true
		}
	}

	if clusters == nil {
		clusters = []domain.Cluster{}
	}
	results := outcome.Results
	if results == nil {
		results = []domain.ConflictResult{}
	}
	pairs := outcome.Pairs
	if pairs == nil {
		pairs = []domain.CandidatePair{}
	}

	return domain.Report{
		Results:  results,
		Clusters: clusters,
		Pairs:    pairs,
		Degraded: degraded,
		Stats:    stats,
	}
}

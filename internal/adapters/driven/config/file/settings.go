package file

import (
	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
)

// Configuration keys for analysis settings, dot-notation under [analysis].
const (
	KeyMaxPairs                 = "analysis.max_pairs"
	KeyMaxWallClockMs           = "analysis.max_wallclock_ms"
	KeyMaxConcurrency           = "analysis.max_concurrency"
	KeyMaxCostUnits             = "analysis.max_cost_units"
	KeySimilarityThreshold      = "analysis.similarity_threshold"
	KeyClusterLinkageCutoff     = "analysis.cluster_linkage_cutoff"
	KeyPerCallTimeoutMs         = "analysis.per_call_timeout_ms"
	KeyRetryAttempts            = "analysis.retry_attempts"
	KeyRetrieveLimit            = "analysis.retrieve_limit"
	KeyMaxRetrieveLimit         = "analysis.max_retrieve_limit"
	KeyApproxCandidateThreshold = "analysis.approx_candidate_threshold"
	KeyTopKNeighbours           = "analysis.top_k_neighbours"
	KeyCrossClusterPenalty      = "analysis.cross_cluster_penalty"
	KeyCostPerCall              = "analysis.cost_per_call"
	KeyTierSize                 = "analysis.tier_size"
)

// SettingsFromStore builds analysis settings from the config store,
// falling back to built-in defaults for absent keys. The result is
// validated; invalid configuration returns the error and the defaults.
func SettingsFromStore(store driven.ConfigStore) (domain.AnalysisSettings, error) {
	s := domain.DefaultAnalysisSettings()

	if v := store.GetInt(KeyMaxPairs); v > 0 {
		s.MaxPairs = v
	}
	if _, ok := store.Get(KeyMaxWallClockMs); ok {
		s.MaxWallClockMs = int64(store.GetInt(KeyMaxWallClockMs))
	}
	if v := store.GetInt(KeyMaxConcurrency); v > 0 {
		s.MaxConcurrency = v
	}
	if _, ok := store.Get(KeyMaxCostUnits); ok {
		s.MaxCostUnits = store.GetInt(KeyMaxCostUnits)
	}
	if _, ok := store.Get(KeySimilarityThreshold); ok {
		s.SimilarityThreshold = store.GetFloat(KeySimilarityThreshold)
	}
	if _, ok := store.Get(KeyClusterLinkageCutoff); ok {
		s.ClusterLinkageCutoff = store.GetFloat(KeyClusterLinkageCutoff)
	}
	if v := store.GetInt(KeyPerCallTimeoutMs); v > 0 {
		s.PerCallTimeoutMs = int64(v)
	}
	if _, ok := store.Get(KeyRetryAttempts); ok {
		s.RetryAttempts = store.GetInt(KeyRetryAttempts)
	}
	if v := store.GetInt(KeyRetrieveLimit); v > 0 {
		s.RetrieveLimit = v
	}
	if v := store.GetInt(KeyMaxRetrieveLimit); v > 0 {
		s.MaxRetrieveLimit = v
	}
	if v := store.GetInt(KeyApproxCandidateThreshold); v > 0 {
		s.ApproxCandidateThreshold = v
	}
	if v := store.GetInt(KeyTopKNeighbours); v > 0 {
		s.TopKNeighbours = v
	}
	if _, ok := store.Get(KeyCrossClusterPenalty); ok {
		s.CrossClusterPenalty = store.GetFloat(KeyCrossClusterPenalty)
	}
	if v := store.GetInt(KeyCostPerCall); v > 0 {
		s.CostPerCall = v
	}
	if v := store.GetInt(KeyTierSize); v > 0 {
		s.TierSize = v
	}

	if err := s.Validate(); err != nil {
		return domain.DefaultAnalysisSettings(), err
	}
	return s, nil
}

package domain

import (
	"fmt"
	"time"
)

// Default analysis settings.
const (
	// DefaultMaxPairs is the default pair budget per query.
	DefaultMaxPairs = 2

	// DefaultMaxWallClockMs is the default wall-clock budget.
	DefaultMaxWallClockMs = 15000

	// DefaultMaxConcurrency is the default cap on simultaneous
	// judgment calls.
	DefaultMaxConcurrency = 2

	// DefaultMaxCostUnits is the default provider spend ceiling.
	DefaultMaxCostUnits = 10

	// DefaultSimilarityThreshold is the minimum similarity for a pair
	// to be considered at all.
	DefaultSimilarityThreshold = 0.5

	// DefaultClusterLinkageCutoff is the single-linkage cutoff for
	// cluster membership.
	DefaultClusterLinkageCutoff = 0.8

	// DefaultPerCallTimeoutMs bounds one judgment call.
	DefaultPerCallTimeoutMs = 8000

	// DefaultRetryAttempts is the number of retries after a provider
	// error (bounded, per call).
	DefaultRetryAttempts = 1

	// DefaultRetrieveLimit is the default candidate count.
	DefaultRetrieveLimit = 5

	// DefaultMaxRetrieveLimit is the hard cap on candidates.
	DefaultMaxRetrieveLimit = 50

	// DefaultApproxCandidateThreshold is the candidate count above
	// which pairwise scoring switches to top-k neighbours per document.
	DefaultApproxCandidateThreshold = 64

	// DefaultTopKNeighbours is the per-document neighbour count in
	// approximate mode.
	DefaultTopKNeighbours = 8

	// DefaultCrossClusterPenalty is subtracted from the priority score
	// of pairs whose members sit in different clusters.
	DefaultCrossClusterPenalty = 0.05

	// DefaultCostPerCall is the cost units charged per judgment call.
	DefaultCostPerCall = 1

	// DefaultTierSize is the number of pairs per priority tier.
	DefaultTierSize = 4
)

// AnalysisSettings holds the tunable configuration of the engine.
// Values come from the config store; zero fields mean "use default".
type AnalysisSettings struct {
	// MaxPairs is the default pair budget.
	MaxPairs int

	// MaxWallClockMs is the default wall-clock budget.
	MaxWallClockMs int64

	// MaxConcurrency is the default concurrency cap.
	MaxConcurrency int

	// MaxCostUnits is the default cost budget.
	MaxCostUnits int

	// SimilarityThreshold gates pair consideration.
	SimilarityThreshold float64

	// ClusterLinkageCutoff is the single-linkage cutoff.
	ClusterLinkageCutoff float64

	// PerCallTimeoutMs bounds one judgment call.
	PerCallTimeoutMs int64

	// RetryAttempts is the per-call retry budget on provider errors.
	RetryAttempts int

	// RetrieveLimit is the default candidate count.
	RetrieveLimit int

	// MaxRetrieveLimit is the hard cap on candidates.
	MaxRetrieveLimit int

	// ApproxCandidateThreshold switches clustering to top-k mode.
	ApproxCandidateThreshold int

	// TopKNeighbours is the neighbour count in approximate mode.
	TopKNeighbours int

	// CrossClusterPenalty deprioritises cross-cluster pairs.
	CrossClusterPenalty float64

	// CostPerCall is the cost units charged per judgment call.
	CostPerCall int

	// TierSize is the number of pairs per priority tier.
	TierSize int
}

// DefaultAnalysisSettings returns the built-in defaults.
func DefaultAnalysisSettings() AnalysisSettings {
	return AnalysisSettings{
		MaxPairs:                 DefaultMaxPairs,
		MaxWallClockMs:           DefaultMaxWallClockMs,
		MaxConcurrency:           DefaultMaxConcurrency,
		MaxCostUnits:             DefaultMaxCostUnits,
		SimilarityThreshold:      DefaultSimilarityThreshold,
		ClusterLinkageCutoff:     DefaultClusterLinkageCutoff,
		PerCallTimeoutMs:         DefaultPerCallTimeoutMs,
		RetryAttempts:            DefaultRetryAttempts,
		RetrieveLimit:            DefaultRetrieveLimit,
		MaxRetrieveLimit:         DefaultMaxRetrieveLimit,
		ApproxCandidateThreshold: DefaultApproxCandidateThreshold,
		TopKNeighbours:           DefaultTopKNeighbours,
		CrossClusterPenalty:      DefaultCrossClusterPenalty,
		CostPerCall:              DefaultCostPerCall,
		TierSize:                 DefaultTierSize,
	}
}

// Validate rejects settings no budget math can make sense of.
func (s AnalysisSettings) Validate() error {
	if s.MaxPairs < 0 {
		return fmt.Errorf("max pairs must be >= 0, got %d", s.MaxPairs)
	}
	if s.MaxWallClockMs < 0 {
		return fmt.Errorf("max wall clock must be >= 0, got %d", s.MaxWallClockMs)
	}
	if s.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be >= 1, got %d", s.MaxConcurrency)
	}
	if s.MaxCostUnits < 0 {
		return fmt.Errorf("max cost units must be >= 0, got %d", s.MaxCostUnits)
	}
	if s.SimilarityThreshold < 0 || s.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0,1], got %f", s.SimilarityThreshold)
	}
	if s.ClusterLinkageCutoff < 0 || s.ClusterLinkageCutoff > 1 {
		return fmt.Errorf("cluster linkage cutoff must be in [0,1], got %f", s.ClusterLinkageCutoff)
	}
	if s.PerCallTimeoutMs <= 0 {
		return fmt.Errorf("per-call timeout must be > 0, got %d", s.PerCallTimeoutMs)
	}
	if s.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts must be >= 0, got %d", s.RetryAttempts)
	}
	if s.CostPerCall < 1 {
		return fmt.Errorf("cost per call must be >= 1, got %d", s.CostPerCall)
	}
	if s.TierSize < 1 {
		return fmt.Errorf("tier size must be >= 1, got %d", s.TierSize)
	}
	return nil
}

// PerCallTimeout returns the per-call timeout as a duration.
func (s AnalysisSettings) PerCallTimeout() time.Duration {
	return time.Duration(s.PerCallTimeoutMs) * time.Millisecond
}

// BudgetFor resolves the effective budget for one query: per-call
// overrides where set, configured defaults otherwise.
func (s AnalysisSettings) BudgetFor(opts AnalysisOptions) Budget {
	b := Budget{
		MaxPairs:       s.MaxPairs,
		MaxWallClockMs: s.MaxWallClockMs,
		MaxConcurrency: s.MaxConcurrency,
		MaxCostUnits:   s.MaxCostUnits,
	}
	if opts.MaxPairs > 0 {
		b.MaxPairs = opts.MaxPairs
	}
	if opts.MaxWallClockMs != nil && *opts.MaxWallClockMs >= 0 {
		b.MaxWallClockMs = *opts.MaxWallClockMs
	}
	if opts.MaxConcurrency > 0 {
		b.MaxConcurrency = opts.MaxConcurrency
	}
	if opts.MaxCostUnits > 0 {
		b.MaxCostUnits = opts.MaxCostUnits
	}
	return b
}

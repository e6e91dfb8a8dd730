package domain

// Cluster groups candidates whose pairwise similarity clears the linkage
// cutoff. Computed fresh per query; membership order carries no meaning.
type Cluster struct {
	// ID is the cluster identifier, unique within one query.
	ID string `json:"id"`

	// MemberDocumentIDs are the documents in this cluster.
	MemberDocumentIDs []string `json:"member_document_ids"`

	// CentroidSimilarity is the mean pairwise similarity among members.
	// 1.0 for singleton clusters.
	CentroidSimilarity float64 `json:"centroid_similarity"`
}

// PairStatus is the lifecycle state of a candidate pair.
type PairStatus string

// Pair lifecycle states.
const (
	// PairPending means the pair is queued and not yet dispatched.
	PairPending PairStatus = "pending"

	// PairRunning means a judgment call is in flight.
	PairRunning PairStatus = "running"

	// PairDone means a judgment was recorded (including inconclusive
	// results after a failed retry).
	PairDone PairStatus = "done"

	// PairSkipped means the pair was never dispatched: it ranked past
	// the pair budget, or the budget ran out before its turn.
	PairSkipped PairStatus = "skipped"

	// PairTimedOut means a dispatched call hit its per-call timeout.
	// Counted separately from skipped for observability.
	PairTimedOut PairStatus = "timed_out"
)

// IsTerminal returns true once the pair can no longer change state.
func (s PairStatus) IsTerminal() bool {
	switch s {
	case PairDone, PairSkipped, PairTimedOut:
		return true
	default:
		return false
	}
}

// IsValid returns true if the status is recognised.
func (s PairStatus) IsValid() bool {
	switch s {
	case PairPending, PairRunning, PairDone, PairSkipped, PairTimedOut:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s PairStatus) String() string {
	return string(s)
}

// CandidatePair is a pair of documents ranked for expensive analysis.
// Unique per (DocA, DocB, query); DocA sorts before DocB.
type CandidatePair struct {
	// ID is the pair identifier, unique within one query.
	ID string `json:"id"`

	// DocA and DocB are the member document IDs, DocA < DocB.
	DocA string `json:"doc_a"`
	DocB string `json:"doc_b"`

	// SimilarityScore is the cosine similarity between the members, 0-1.
	SimilarityScore float64 `json:"similarity_score"`

	// Tier is the priority bucket. Lower is analysed first; assignment
	// is monotonic and never revisited once the queue is built.
	Tier int `json:"tier"`

	// SameCluster is true when both members sit in the same cluster.
	SameCluster bool `json:"same_cluster"`

	// Status is the current lifecycle state.
	Status PairStatus `json:"status"`
}

// Verdict is the outcome of a conflict judgment.
type Verdict string

// Judgment outcomes.
const (
	// VerdictConflict means the documents contain contradictory claims.
	VerdictConflict Verdict = "conflict"

	// VerdictNoConflict means no contradiction was found.
	VerdictNoConflict Verdict = "no_conflict"

	// VerdictInconclusive means the judge could not decide, or the
	// provider failed after its retry.
	VerdictInconclusive Verdict = "inconclusive"
)

// IsValid returns true if the verdict is recognised.
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictConflict, VerdictNoConflict, VerdictInconclusive:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (v Verdict) String() string {
	return string(v)
}

// ConflictResult is the judgment recorded for one analysed pair.
// Produced at most once per pair per query; absent for pairs that were
// skipped or timed out.
type ConflictResult struct {
	// PairID links back to the candidate pair.
	PairID string `json:"pair_id"`

	// DocA and DocB are the member document IDs, for callers that do
	// not want to join against the pair list.
	DocA string `json:"doc_a"`
	DocB string `json:"doc_b"`

	// Verdict is the judgment outcome.
	Verdict Verdict `json:"verdict"`

	// Explanation is the judge's reasoning, possibly empty for
	// inconclusive results.
	Explanation string `json:"explanation"`

	// Confidence is the judge's self-reported confidence, 0-1.
	Confidence float64 `json:"confidence"`
}

// Budget is the per-query ceiling on expensive analysis work.
// The analyzer enforces it; downstream code only reads the usage.
type Budget struct {
	// MaxPairs is the maximum number of pairs dispatched.
	MaxPairs int

	// MaxWallClockMs bounds elapsed analysis time. Zero means no pair
	// is dispatched at all.
	MaxWallClockMs int64

	// MaxConcurrency caps simultaneous judgment calls.
	MaxConcurrency int

	// MaxCostUnits caps total provider spend. Each dispatched call is
	// charged at dispatch time and never refunded.
	MaxCostUnits int
}

// Stats is the budget accounting attached to every response.
type Stats struct {
	// PairsConsidered is the number of pairs that entered the queue,
	// including those skipped up front.
	PairsConsidered int `json:"pairs_considered"`

	// PairsAnalyzed is the number of pairs with a recorded judgment.
	PairsAnalyzed int `json:"pairs_analyzed"`

	// PairsSkipped is the number of pairs never dispatched.
	PairsSkipped int `json:"pairs_skipped"`

	// PairsTimedOut is the number of dispatched pairs that hit their
	// per-call timeout.
	PairsTimedOut int `json:"pairs_timed_out"`

	// WallClockMs is the elapsed analysis time.
	WallClockMs int64 `json:"wall_clock_ms"`

	// CostUnitsSpent is the total provider spend charged.
	CostUnitsSpent int `json:"cost_units_spent"`
}

// Report is the final response for one query. Once retrieval succeeded
// the engine always produces a report; budget exhaustion surfaces here
// as Degraded, never as an error.
type Report struct {
	// Results are the recorded judgments, tier order.
	Results []ConflictResult `json:"results"`

	// Clusters are the similarity groupings over the candidates.
	Clusters []Cluster `json:"clusters"`

	// Pairs is the full pair list with terminal statuses, for callers
	// that want to see what was and was not checked.
	Pairs []CandidatePair `json:"pairs"`

	// Degraded is true iff at least one pair was skipped or timed out.
	// Callers branch on it to present results as complete or partial.
	Degraded bool `json:"degraded"`

	// Stats is the budget accounting.
	Stats Stats `json:"stats"`
}

// AnalysisOptions configures one conflict-detection query.
// Zero-valued budget fields fall back to the configured defaults.
type AnalysisOptions struct {
	// Filter restricts retrieval to matching documents.
	Filter Filter

	// Limit is the maximum number of candidates retrieved (default 5).
	Limit int

	// MaxPairs overrides the default pair budget when > 0.
	MaxPairs int

	// MaxWallClockMs overrides the default wall-clock budget when set.
	// A negative value is rejected; an explicit zero is honoured and
	// skips every pair.
	MaxWallClockMs *int64

	// MaxConcurrency overrides the default concurrency cap when > 0.
	MaxConcurrency int

	// MaxCostUnits overrides the default cost budget when > 0.
	MaxCostUnits int
}

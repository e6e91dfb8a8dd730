package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/logger"
)

// PairKey identifies an unordered document pair. A sorts before B.
type PairKey struct {
	A string
	B string
}

// MakePairKey builds the canonical key for two document IDs.
func MakePairKey(a, b string) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// PairScores maps document pairs to their cosine similarity.
type PairScores map[PairKey]float64

// Clusterer computes pairwise similarity among candidates and groups
// them with single-linkage clustering. Fully local, no external calls,
// and order-independent: shuffling the input changes neither membership
// nor scores.
type Clusterer struct {
	settings domain.AnalysisSettings
}

// NewClusterer creates a new clusterer.
func NewClusterer(settings domain.AnalysisSettings) *Clusterer {
	return &Clusterer{settings: settings}
}

// Cluster scores candidate pairs and groups them. Above the approximate
// threshold only the top-k neighbour edges per document are retained,
// keeping the pair map O(n*k) instead of O(n^2) for large result sets.
// Empty input returns empty output; there is no error path.
func (c *Clusterer) Cluster(docs []domain.EnrichedDocument) ([]domain.Cluster, PairScores) {
	scores := make(PairScores)
	if len(docs) < 2 {
		return c.buildClusters(docs, scores), scores
	}

	if len(docs) > c.settings.ApproxCandidateThreshold {
		logger.Debug("Cluster: %d candidates, using top-%d neighbours",
			len(docs), c.settings.TopKNeighbours)
		scores = c.topKScores(docs)
	} else {
		scores = c.allPairScores(docs)
	}

	clusters := c.buildClusters(docs, scores)
	logger.Debug("Cluster: %d pairs scored, %d clusters", len(scores), len(clusters))
	return clusters, scores
}

// allPairScores computes every pairwise similarity.
func (c *Clusterer) allPairScores(docs []domain.EnrichedDocument) PairScores {
	scores := make(PairScores, len(docs)*(len(docs)-1)/2)
	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			key := MakePairKey(docs[i].Document.ID, docs[j].Document.ID)
			scores[key] = domain.Cosine(docs[i].Document.Vector, docs[j].Document.Vector)
		}
	}
	return scores
}

// topKScores retains only each document's k best neighbour edges.
func (c *Clusterer) topKScores(docs []domain.EnrichedDocument) PairScores {
	k := c.settings.TopKNeighbours
	if k < 1 {
		k = 1
	}

	type edge struct {
		key   PairKey
		score float64
	}

	scores := make(PairScores)
	for i := range docs {
		edges := make([]edge, 0, len(docs)-1)
		for j := range docs {
			if i == j {
				continue
			}
			key := MakePairKey(docs[i].Document.ID, docs[j].Document.ID)
			score, ok := scores[key]
			if !ok {
				score = domain.Cosine(docs[i].Document.Vector, docs[j].Document.Vector)
			}
			edges = append(edges, edge{key: key, score: score})
		}

		sort.Slice(edges, func(a, b int) bool { return edges[a].score > edges[b].score })
		if len(edges) > k {
			edges = edges[:k]
		}
		for _, e := range edges {
			scores[e.key] = e.score
		}
	}
	return scores
}

// buildClusters runs single-linkage grouping over edges that clear the
// linkage cutoff.
func (c *Clusterer) buildClusters(docs []domain.EnrichedDocument, scores PairScores) []domain.Cluster {
	if len(docs) == 0 {
		return []domain.Cluster{}
	}

	index := make(map[string]int, len(docs))
	for i := range docs {
		index[docs[i].Document.ID] = i
	}

	parent := make([]int, len(docs))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for key, score := range scores {
		if score >= c.settings.ClusterLinkageCutoff {
			union(index[key.A], index[key.B])
		}
	}

	members := make(map[int][]string)
	for i := range docs {
		root := find(i)
		members[root] = append(members[root], docs[i].Document.ID)
	}

	clusters := make([]domain.Cluster, 0, len(members))
	for _, ids := range members {
		sort.Strings(ids)
		clusters = append(clusters, domain.Cluster{
			ID:                 uuid.NewString(),
			MemberDocumentIDs:  ids,
			CentroidSimilarity: centroidSimilarity(ids, scores),
		})
	}

	// Stable output regardless of input or map iteration order.
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].MemberDocumentIDs[0] < clusters[j].MemberDocumentIDs[0]
	})

	return clusters
}

// centroidSimilarity is the mean pairwise similarity among members.
func centroidSimilarity(ids []string, scores PairScores) float64 {
	if len(ids) < 2 {
		return 1.0
	}
	var sum float64
	var n int
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if score, ok := scores[MakePairKey(ids[i], ids[j])]; ok {
				sum += score
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

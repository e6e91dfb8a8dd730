package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

// FilterInput is one structured filter condition.
type FilterInput struct {
	Field  string   `json:"field" jsonschema:"metadata field to filter on"`
	Op     string   `json:"op" jsonschema:"filter operator, eq or in"`
	Values []string `json:"values" jsonschema:"values to match"`
}

// DetectInput is the input schema for the detect_document_conflicts tool.
type DetectInput struct {
	Query          string        `json:"query" jsonschema:"the topic or question to check the corpus against"`
	Filters        []FilterInput `json:"filters,omitempty" jsonschema:"structured metadata filters, all must match"`
	Limit          int           `json:"limit,omitempty" jsonschema:"maximum number of candidate documents to retrieve"`
	MaxPairs       int           `json:"max_pairs,omitempty" jsonschema:"maximum number of document pairs to analyse"`
	MaxWallclockMs *int64        `json:"max_wallclock_ms,omitempty" jsonschema:"wall-clock budget in milliseconds, 0 skips all pairs"`
	MaxConcurrency int           `json:"max_concurrency,omitempty" jsonschema:"maximum simultaneous judgment calls"`
	MaxCostUnits   int           `json:"max_cost_units,omitempty" jsonschema:"provider spend ceiling in cost units"`
}

// DetectOutput is the output schema for the detect_document_conflicts tool.
type DetectOutput struct {
	Results  []ConflictOutput `json:"results"`
	Clusters []ClusterOutput  `json:"clusters"`
	Pairs    []PairOutput     `json:"pairs"`
	Degraded bool             `json:"degraded"`
	Stats    domain.Stats     `json:"stats"`
}

// ConflictOutput is one recorded judgment.
type ConflictOutput struct {
	PairID      string  `json:"pair_id"`
	DocA        string  `json:"doc_a"`
	DocB        string  `json:"doc_b"`
	Verdict     string  `json:"verdict"`
	Explanation string  `json:"explanation,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// ClusterOutput is one similarity grouping.
type ClusterOutput struct {
	ID                 string   `json:"id"`
	MemberDocumentIDs  []string `json:"member_document_ids"`
	CentroidSimilarity float64  `json:"centroid_similarity"`
}

// PairOutput is one candidate pair with its terminal status.
type PairOutput struct {
	ID              string  `json:"id"`
	DocA            string  `json:"doc_a"`
	DocB            string  `json:"doc_b"`
	SimilarityScore float64 `json:"similarity_score"`
	Tier            int     `json:"tier"`
	SameCluster     bool    `json:"same_cluster"`
	Status          string  `json:"status"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "detect_document_conflicts",
		Description: "Find documents related to a query and check them against each other for contradictory claims",
	}, s.handleDetectConflicts)
}

// handleDetectConflicts handles the detect_document_conflicts tool invocation.
func (s *Server) handleDetectConflicts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DetectInput,
) (*mcp.CallToolResult, DetectOutput, error) {
	opts := domain.AnalysisOptions{
		Filter:         filterFromInput(input.Filters),
		Limit:          input.Limit,
		MaxPairs:       input.MaxPairs,
		MaxWallClockMs: input.MaxWallclockMs,
		MaxConcurrency: input.MaxConcurrency,
		MaxCostUnits:   input.MaxCostUnits,
	}

	report, err := s.ports.Conflict.DetectConflicts(ctx, input.Query, opts)
	if err != nil {
		return nil, DetectOutput{}, err
	}

	return nil, outputFromReport(report), nil
}

// filterFromInput converts tool filter conditions to the domain filter.
func filterFromInput(filters []FilterInput) domain.Filter {
	if len(filters) == 0 {
		return domain.Filter{}
	}
	conditions := make([]domain.FilterCondition, len(filters))
	for i, f := range filters {
		conditions[i] = domain.FilterCondition{
			Field:  f.Field,
			Op:     domain.FilterOp(f.Op),
			Values: f.Values,
		}
	}
	return domain.Filter{Conditions: conditions}
}

// outputFromReport converts a domain report to the tool output shape.
func outputFromReport(report *domain.Report) DetectOutput {
	out := DetectOutput{
		Results:  make([]ConflictOutput, len(report.Results)),
		Clusters: make([]ClusterOutput, len(report.Clusters)),
		Pairs:    make([]PairOutput, len(report.Pairs)),
		Degraded: report.Degraded,
		Stats:    report.Stats,
	}
	for i, r := range report.Results {
		out.Results[i] = ConflictOutput{
			PairID:      r.PairID,
			DocA:        r.DocA,
			DocB:        r.DocB,
			Verdict:     r.Verdict.String(),
			Explanation: r.Explanation,
			Confidence:  r.Confidence,
		}
	}
	for i, c := range report.Clusters {
		out.Clusters[i] = ClusterOutput{
			ID:                 c.ID,
			MemberDocumentIDs:  c.MemberDocumentIDs,
			CentroidSimilarity: c.CentroidSimilarity,
		}
	}
	for i, p := range report.Pairs {
		out.Pairs[i] = PairOutput{
			ID:              p.ID,
			DocA:            p.DocA,
			DocB:            p.DocB,
			SimilarityScore: p.SimilarityScore,
			Tier:            p.Tier,
			SameCluster:     p.SameCluster,
			Status:          p.Status.String(),
		}
	}
	return out
}

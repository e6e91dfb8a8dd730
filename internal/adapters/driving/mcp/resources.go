package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for Crosscheck resources.
const uriScheme = "crosscheck://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Effective analysis settings and budget defaults",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)
}

// handleSettingsResource returns the effective analysis settings.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	settings := s.ports.Conflict.Settings()

	// Stable wire shape independent of the domain struct.
	type settingsInfo struct {
		MaxPairs                 int     `json:"max_pairs"`
		MaxWallClockMs           int64   `json:"max_wallclock_ms"`
		MaxConcurrency           int     `json:"max_concurrency"`
		MaxCostUnits             int     `json:"max_cost_units"`
		SimilarityThreshold      float64 `json:"similarity_threshold"`
		ClusterLinkageCutoff     float64 `json:"cluster_linkage_cutoff"`
		PerCallTimeoutMs         int64   `json:"per_call_timeout_ms"`
		RetryAttempts            int     `json:"retry_attempts"`
		RetrieveLimit            int     `json:"retrieve_limit"`
		MaxRetrieveLimit         int     `json:"max_retrieve_limit"`
		ApproxCandidateThreshold int     `json:"approx_candidate_threshold"`
		TopKNeighbours           int     `json:"top_k_neighbours"`
		CrossClusterPenalty      float64 `json:"cross_cluster_penalty"`
		CostPerCall              int     `json:"cost_per_call"`
		TierSize                 int     `json:"tier_size"`
	}

	info := settingsInfo{
		MaxPairs:                 settings.MaxPairs,
		MaxWallClockMs:           settings.MaxWallClockMs,
		MaxConcurrency:           settings.MaxConcurrency,
		MaxCostUnits:             settings.MaxCostUnits,
		SimilarityThreshold:      settings.SimilarityThreshold,
		ClusterLinkageCutoff:     settings.ClusterLinkageCutoff,
		PerCallTimeoutMs:         settings.PerCallTimeoutMs,
		RetryAttempts:            settings.RetryAttempts,
		RetrieveLimit:            settings.RetrieveLimit,
		MaxRetrieveLimit:         settings.MaxRetrieveLimit,
		ApproxCandidateThreshold: settings.ApproxCandidateThreshold,
		TopKNeighbours:           settings.TopKNeighbours,
		CrossClusterPenalty:      settings.CrossClusterPenalty,
		CostPerCall:              settings.CostPerCall,
		TierSize:                 settings.TierSize,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

package cli

import (
	"context"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

// mockConflictService implements driving.ConflictService for CLI tests.
type mockConflictService struct {
	report    *domain.Report
	settings  domain.AnalysisSettings
	err       error
	lastQuery string
	lastOpts  domain.AnalysisOptions
}

func (m *mockConflictService) DetectConflicts(
	_ context.Context,
	query string,
	opts domain.AnalysisOptions,
) (*domain.Report, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.report == nil && m.err == nil {
		return &domain.Report{}, nil
	}
	return m.report, m.err
}

func (m *mockConflictService) Settings() domain.AnalysisSettings {
	return m.settings
}

// setupTestServices installs mock services and returns a cleanup function
// restoring the previous ones.
func setupTestServices() (*mockConflictService, func()) {
	oldConflict := conflictService
	oldConfig := configStore

	mock := &mockConflictService{
		settings: domain.DefaultAnalysisSettings(),
		report: &domain.Report{
			Results: []domain.ConflictResult{
				{
					PairID:      "pair-1",
					DocA:        "doc-a",
					DocB:        "doc-b",
					Verdict:     domain.VerdictConflict,
					Explanation: "intervals disagree",
					Confidence:  0.88,
				},
			},
			Pairs: []domain.CandidatePair{
				{ID: "pair-1", DocA: "doc-a", DocB: "doc-b", Status: domain.PairDone},
			},
			Stats: domain.Stats{PairsConsidered: 1, PairsAnalyzed: 1, CostUnitsSpent: 1},
		},
	}
	conflictService = mock
	configStore = nil

	return mock, func() {
		conflictService = oldConflict
		configStore = oldConfig
	}
}

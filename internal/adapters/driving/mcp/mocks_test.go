package mcp

import (
	"context"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

// mockConflictService is a mock implementation of driving.ConflictService.
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
	return m.report, m.err
}

func (m *mockConflictService) Settings() domain.AnalysisSettings {
	return m.settings
}

package services

import (
	"context"
	"strings"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driving"
	"github.com/custodia-labs/crosscheck/internal/logger"
)

// Ensure ConflictAnalysisService implements the interface.
var _ driving.ConflictService = (*ConflictAnalysisService)(nil)

// ConflictAnalysisService runs the full cross-document pipeline:
// retrieve -> enrich -> cluster -> prioritize -> analyze -> report.
// Only the analyze stage performs slow, costly external calls; every
// other stage is deterministic and fast.
type ConflictAnalysisService struct {
	retriever   *Retriever
	enricher    *Enricher
	clusterer   *Clusterer
	prioritizer *Prioritizer
	analyzer    *Analyzer
	settings    domain.AnalysisSettings
}

// NewConflictAnalysisService wires the pipeline. The judge may be nil;
// analysis then degrades to clustering with every pair skipped.
func NewConflictAnalysisService(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	judge driven.ConflictJudge,
	settings domain.AnalysisSettings,
) *ConflictAnalysisService {
	// Pace judgment calls to roughly one per 100ms regardless of how
	// generous the configured budget is.
	pacer := rate.NewLimiter(rate.Limit(10), settings.MaxConcurrency)

	return &ConflictAnalysisService{
		retriever:   NewRetriever(store, embedder, settings),
		enricher:    NewEnricher(),
		clusterer:   NewClusterer(settings),
		prioritizer: NewPrioritizer(settings),
		analyzer:    NewAnalyzer(judge, settings, pacer),
		settings:    settings,
	}
}

// Settings returns the effective analysis defaults.
func (s *ConflictAnalysisService) Settings() domain.AnalysisSettings {
	return s.settings
}

// DetectConflicts implements driving.ConflictService.
func (s *ConflictAnalysisService) DetectConflicts(
	ctx context.Context, query string, opts domain.AnalysisOptions,
) (*domain.Report, error) {
	logger.Section("Conflict Detection")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	budget := s.settings.BudgetFor(opts)

	docs, err := s.retriever.Retrieve(ctx, query, opts.Filter, opts.Limit)
	if err != nil {
		return nil, err
	}

	enriched, enrichErrs := s.enricher.Enrich(docs)
	for _, e := range enrichErrs {
		// Per-item isolation: malformed candidates are excluded and
		// logged, the query continues.
		logger.Warn("Candidate excluded: %v", e)
	}

	clusters, scores := s.clusterer.Cluster(enriched)
	pairs := s.prioritizer.Prioritize(scores, clusters, budget.MaxPairs)

	working := make(map[string]domain.EnrichedDocument, len(enriched))
	for i := range enriched {
		working[enriched[i].Document.ID] = enriched[i]
	}

	outcome := s.analyzer.Analyze(ctx, pairs, working, budget)
	report := BuildReport(clusters, outcome)

	logger.Info("Report: %d results, degraded=%t, %d/%d pairs analysed",
		len(report.Results), report.Degraded, report.Stats.PairsAnalyzed, report.Stats.PairsConsidered)
	return &report, nil
}

package driving

import (
	"context"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

// ConflictService runs cross-document conflict analysis for one query.
type ConflictService interface {
	// DetectConflicts retrieves candidates for the query, clusters
	// them, and analyses the highest-priority pairs under the
	// effective budget.
	//
	// Only retrieval failures and invalid filters return an error.
	// Budget exhaustion is not an error: the report comes back with
	// Degraded set and per-pair statuses explaining what was not
	// checked.
	DetectConflicts(ctx context.Context, query string, opts domain.AnalysisOptions) (*domain.Report, error)

	// Settings returns the effective analysis defaults.
	Settings() domain.AnalysisSettings
}

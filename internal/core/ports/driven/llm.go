package driven

import (
	"context"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

// Judgment is the raw outcome of one conflict judgment call, before the
// engine attaches pair identity to it.
type Judgment struct {
	// Verdict is the judge's decision.
	Verdict domain.Verdict

	// Explanation is the judge's reasoning.
	Explanation string

	// Confidence is the self-reported confidence, 0-1.
	Confidence float64
}

// ConflictJudge performs LLM-backed conflict judgments between two
// document texts. The engine wraps it with budgets, timeouts, and a
// bounded retry; implementations only need to make one call.
//
// Implementations may include:
//   - Anthropic (Claude)
//   - Ollama (local models)
type ConflictJudge interface {
	// Judge decides whether the two texts contain contradictory
	// claims. Implementations honour ctx cancellation; the engine
	// passes a per-call deadline derived from the query deadline.
	Judge(ctx context.Context, textA, textB string) (Judgment, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

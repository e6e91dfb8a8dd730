package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
	"github.com/custodia-labs/crosscheck/internal/logger"
)

// providerCheckTimeout bounds the startup reachability probes.
const providerCheckTimeout = 5 * time.Second

// CheckProviders pings the embedding service and the conflict judge and
// returns one error per unreachable provider. Unreachable providers are
// not fatal: retrieval fails per query and judgments degrade to skipped
// pairs, so callers decide whether to warn or abort. A nil judge is
// allowed and not reported.
func CheckProviders(ctx context.Context, embedder driven.EmbeddingService, judge driven.ConflictJudge) []error {
	checkCtx, cancel := context.WithTimeout(ctx, providerCheckTimeout)
	defer cancel()

	var errs []error

	if embedder != nil {
		if err := embedder.Ping(checkCtx); err != nil {
			errs = append(errs, fmt.Errorf("embedding service %s: %w", embedder.ModelName(), err))
		} else {
			logger.Debug("Embedding service ready: model=%s dims=%d",
				embedder.ModelName(), embedder.Dimensions())
		}
	}

	if judge != nil {
		if err := judge.Ping(checkCtx); err != nil {
			errs = append(errs, fmt.Errorf("conflict judge %s: %w", judge.ModelName(), err))
		} else {
			logger.Debug("Conflict judge ready: model=%s", judge.ModelName())
		}
	}

	return errs
}

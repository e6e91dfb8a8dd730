package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
	"github.com/custodia-labs/crosscheck/internal/logger"
)

// controllerState is the analyzer's global lifecycle.
type controllerState string

const (
	// stateAccepting dispatches pending pairs up to the concurrency cap.
	stateAccepting controllerState = "accepting"

	// stateDraining lets in-flight calls finish but dispatches nothing
	// new. Entered on budget exhaustion.
	stateDraining controllerState = "draining"

	// stateClosed means all in-flight calls have settled.
	stateClosed controllerState = "closed"
)

// AnalysisOutcome is what the analyzer hands to the aggregator: terminal
// pair statuses, recorded judgments, and spent budget.
type AnalysisOutcome struct {
	// Pairs is the full pair list; every entry carries a terminal
	// status on return.
	Pairs []domain.CandidatePair

	// Results are the recorded judgments, in queue order.
	Results []domain.ConflictResult

	// CostUnitsSpent is the total charged at dispatch time.
	CostUnitsSpent int

	// WallClockMs is the elapsed analysis time.
	WallClockMs int64
}

// Analyzer consumes the tiered pair queue under a budget, fanning out
// judgment calls through a bounded worker pool.
//
// Budget exhaustion is a state transition (accepting -> draining), not
// an error: running calls finish within their own per-call timeout and
// the remaining pending pairs are marked skipped. A hard caller
// cancellation instead interrupts in-flight calls, since their contexts
// descend from the caller's.
type Analyzer struct {
	judge    driven.ConflictJudge
	settings domain.AnalysisSettings
	pacer    *rate.Limiter
}

// NewAnalyzer creates a new budgeted analyzer. The pacer spreads
// judgment calls out so a generous budget still cannot burst the
// provider; pass nil to disable pacing.
func NewAnalyzer(judge driven.ConflictJudge, settings domain.AnalysisSettings, pacer *rate.Limiter) *Analyzer {
	return &Analyzer{
		judge:    judge,
		settings: settings,
		pacer:    pacer,
	}
}

// budgetLedger is the only shared mutable state between workers.
type budgetLedger struct {
	mu         sync.Mutex
	spentPairs int
	spentCost  int
	state      controllerState
}

// tryCharge admits one dispatch if the budget allows it, charging pairs
// and cost up front. Charges are never refunded, so spend can only
// overshoot by calls already admitted before draining began.
func (l *budgetLedger) tryCharge(budget domain.Budget, costPerCall int, elapsed time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != stateAccepting {
		return false
	}
	if l.spentPairs >= budget.MaxPairs ||
		l.spentCost+costPerCall > budget.MaxCostUnits ||
		elapsed.Milliseconds() >= budget.MaxWallClockMs {
		l.state = stateDraining
		return false
	}

	l.spentPairs++
	l.spentCost += costPerCall
	return true
}

func (l *budgetLedger) spent() (pairs, cost int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.spentPairs, l.spentCost
}

// Analyze runs the state machine over the queue. Pairs must arrive in
// tier order with non-pending entries already terminal; it returns only
// once every pair holds a terminal status.
func (a *Analyzer) Analyze(
	ctx context.Context,
	pairs []domain.CandidatePair,
	docs map[string]domain.EnrichedDocument,
	budget domain.Budget,
) AnalysisOutcome {
	start := time.Now()
	out := AnalysisOutcome{Pairs: make([]domain.CandidatePair, len(pairs))}
	copy(out.Pairs, pairs)

	if a.judge == nil {
		// No judge configured: nothing can be dispatched.
		skipPending(out.Pairs)
		out.WallClockMs = time.Since(start).Milliseconds()
		return out
	}

	ledger := &budgetLedger{state: stateAccepting}
	if budget.MaxWallClockMs <= 0 || budget.MaxPairs <= 0 || budget.MaxCostUnits <= 0 {
		ledger.state = stateDraining
	}

	concurrency := budget.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	results := make([]*domain.ConflictResult, len(out.Pairs))
	var wg sync.WaitGroup

	logger.Section("Budgeted Analysis")
	logger.Debug("Budget: pairs=%d, wallclock=%dms, concurrency=%d, cost=%d",
		budget.MaxPairs, budget.MaxWallClockMs, concurrency, budget.MaxCostUnits)

dispatch:
	for i := range out.Pairs {
		if out.Pairs[i].Status != domain.PairPending {
			continue
		}

		// Hard cancellation: interrupt, do not drain.
		if ctx.Err() != nil {
			break dispatch
		}

		// Acquire the worker slot first. Charging only happens at the
		// moment the pair can actually run, so time spent waiting for a
		// slot counts against the wall-clock budget and nothing new is
		// dispatched once it has expired.
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}

		if !ledger.tryCharge(budget, a.settings.CostPerCall, time.Since(start)) {
			<-sem
			break dispatch
		}

		out.Pairs[i].Status = domain.PairRunning
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			a.runPair(ctx, &out.Pairs[idx], docs, &results[idx])
		}(i)
	}

	// Drain: running calls settle within their per-call timeout; on a
	// cancelled ctx they abort immediately.
	wg.Wait()
	ledger.mu.Lock()
	ledger.state = stateClosed
	ledger.mu.Unlock()

	// Every pair not dispatched ends up skipped, so nothing is ever
	// left pending in the final accounting.
	skipPending(out.Pairs)

	for i := range results {
		if results[i] != nil {
			out.Results = append(out.Results, *results[i])
		}
	}

	_, out.CostUnitsSpent = ledger.spent()
	out.WallClockMs = time.Since(start).Milliseconds()

	logger.Info("Analysis closed: %d results, %d cost units, %dms",
		len(out.Results), out.CostUnitsSpent, out.WallClockMs)
	return out
}

// runPair executes one judgment call with its per-call timeout and
// bounded retry. Every dispatched pair ends terminal: done (possibly
// inconclusive) or timed_out. The pair and result slots are owned by
// this worker alone.
func (a *Analyzer) runPair(
	ctx context.Context,
	pair *domain.CandidatePair,
	docs map[string]domain.EnrichedDocument,
	slot **domain.ConflictResult,
) {
	docA, okA := docs[pair.DocA]
	docB, okB := docs[pair.DocB]
	if !okA || !okB {
		// Should not happen; guard so the pair still terminates.
		pair.Status = domain.PairDone
		*slot = &domain.ConflictResult{
			PairID:      pair.ID,
			DocA:        pair.DocA,
			DocB:        pair.DocB,
			Verdict:     domain.VerdictInconclusive,
			Explanation: "candidate documents missing from working set",
		}
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, a.settings.PerCallTimeout())
	defer cancel()

	if a.pacer != nil {
		if err := a.pacer.Wait(callCtx); err != nil {
			pair.Status = domain.PairTimedOut
			return
		}
	}

	judgment, err := a.judgeWithRetry(callCtx, docA.Document.Content, docB.Document.Content)
	switch {
	case err == nil:
		pair.Status = domain.PairDone
		*slot = &domain.ConflictResult{
			PairID:      pair.ID,
			DocA:        pair.DocA,
			DocB:        pair.DocB,
			Verdict:     judgment.Verdict,
			Explanation: judgment.Explanation,
			Confidence:  judgment.Confidence,
		}

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// Per-call timeout or caller cancellation mid-flight.
		logger.Warn("Pair %s timed out: %v", pair.ID, err)
		pair.Status = domain.PairTimedOut

	default:
		// Provider failure after the bounded retry. Recorded, never
		// silently dropped.
		logger.Warn("Pair %s inconclusive after retry: %v", pair.ID, err)
		pair.Status = domain.PairDone
		*slot = &domain.ConflictResult{
			PairID:      pair.ID,
			DocA:        pair.DocA,
			DocB:        pair.DocB,
			Verdict:     domain.VerdictInconclusive,
			Explanation: "judgment provider failed: " + err.Error(),
		}
	}
}

// judgeWithRetry makes the judgment call with one bounded retry on
// provider errors. Context errors are never retried.
func (a *Analyzer) judgeWithRetry(ctx context.Context, textA, textB string) (driven.Judgment, error) {
	var lastErr error
	backoff := 200 * time.Millisecond

	for attempt := 0; attempt <= a.settings.RetryAttempts; attempt++ {
		if attempt > 0 {
			logger.Debug("Judgment retry %d after %v", attempt, backoff)
			select {
			case <-ctx.Done():
				return driven.Judgment{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		judgment, err := a.judge.Judge(ctx, textA, textB)
		if err == nil {
			if !judgment.Verdict.IsValid() {
				judgment.Verdict = domain.VerdictInconclusive
			}
			return judgment, nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return driven.Judgment{}, err
		}
		lastErr = err
	}

	return driven.Judgment{}, lastErr
}

// skipPending marks every remaining pending pair skipped.
func skipPending(pairs []domain.CandidatePair) {
	for i := range pairs {
		if pairs[i].Status == domain.PairPending {
			pairs[i].Status = domain.PairSkipped
		}
	}
}

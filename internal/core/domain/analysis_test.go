package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairStatusIsTerminal(t *testing.T) {
	assert.False(t, PairPending.IsTerminal())
	assert.False(t, PairRunning.IsTerminal())
	assert.True(t, PairDone.IsTerminal())
	assert.True(t, PairSkipped.IsTerminal())
	assert.True(t, PairTimedOut.IsTerminal())
}

func TestPairStatusIsValid(t *testing.T) {
	for _, s := range []PairStatus{PairPending, PairRunning, PairDone, PairSkipped, PairTimedOut} {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, PairStatus("cancelled").IsValid())
}

func TestVerdictIsValid(t *testing.T) {
	for _, v := range []Verdict{VerdictConflict, VerdictNoConflict, VerdictInconclusive} {
		assert.True(t, v.IsValid(), v.String())
	}
	assert.False(t, Verdict("maybe").IsValid())
}

func TestSourceTypeIsValid(t *testing.T) {
	for _, s := range []SourceType{SourceTypeGit, SourceTypeWiki, SourceTypeIssue, SourceTypeFile} {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, SourceType("email").IsValid())
}

func TestBudgetFor(t *testing.T) {
	settings := DefaultAnalysisSettings()

	t.Run("defaults when options are zero", func(t *testing.T) {
		b := settings.BudgetFor(AnalysisOptions{})
		assert.Equal(t, DefaultMaxPairs, b.MaxPairs)
		assert.Equal(t, int64(DefaultMaxWallClockMs), b.MaxWallClockMs)
		assert.Equal(t, DefaultMaxConcurrency, b.MaxConcurrency)
		assert.Equal(t, DefaultMaxCostUnits, b.MaxCostUnits)
	})

	t.Run("per-call overrides win", func(t *testing.T) {
		wall := int64(250)
		b := settings.BudgetFor(AnalysisOptions{
			MaxPairs:       7,
			MaxWallClockMs: &wall,
			MaxConcurrency: 3,
			MaxCostUnits:   4,
		})
		assert.Equal(t, 7, b.MaxPairs)
		assert.Equal(t, int64(250), b.MaxWallClockMs)
		assert.Equal(t, 3, b.MaxConcurrency)
		assert.Equal(t, 4, b.MaxCostUnits)
	})

	t.Run("explicit zero wall clock is honoured", func(t *testing.T) {
		wall := int64(0)
		b := settings.BudgetFor(AnalysisOptions{MaxWallClockMs: &wall})
		assert.Equal(t, int64(0), b.MaxWallClockMs)
	})
}

func TestAnalysisSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultAnalysisSettings().Validate())

	bad := DefaultAnalysisSettings()
	bad.MaxConcurrency = 0
	assert.Error(t, bad.Validate())

	bad = DefaultAnalysisSettings()
	bad.SimilarityThreshold = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultAnalysisSettings()
	bad.PerCallTimeoutMs = 0
	assert.Error(t, bad.Validate())
}

package file

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

// setupTestStore creates a config store in a temp directory.
func setupTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStoreSetGet(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Set("analysis.max_pairs", int64(5)))
	require.NoError(t, store.Set("server.host", "localhost"))
	require.NoError(t, store.Set("analysis.similarity_threshold", 0.7))
	require.NoError(t, store.Set("server.debug", true))

	assert.Equal(t, 5, store.GetInt("analysis.max_pairs"))
	assert.Equal(t, "localhost", store.GetString("server.host"))
	assert.InDelta(t, 0.7, store.GetFloat("analysis.similarity_threshold"), 0.001)
	assert.True(t, store.GetBool("server.debug"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStoreTypeMismatches(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Set("key", "text"))

	assert.Equal(t, 0, store.GetInt("key"))
	assert.Equal(t, 0.0, store.GetFloat("key"))
	assert.False(t, store.GetBool("key"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStoreGetFloatFromInt(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Set("key", int64(3)))
	assert.Equal(t, 3.0, store.GetFloat("key"))
}

func TestConfigStorePersistsAcrossLoads(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("analysis.max_pairs", int64(7)))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, reopened.GetInt("analysis.max_pairs"))
}

func TestConfigStoreFlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	content := "[analysis]\nmax_pairs = 4\nsimilarity_threshold = 0.6\n\n[vector.qdrant]\nhost = \"db.local\"\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))
	require.NoError(t, store.Load())

	assert.Equal(t, 4, store.GetInt("analysis.max_pairs"))
	assert.InDelta(t, 0.6, store.GetFloat("analysis.similarity_threshold"), 0.001)
	assert.Equal(t, "db.local", store.GetString("vector.qdrant.host"))
}

func TestSettingsFromStoreDefaults(t *testing.T) {
	store := setupTestStore(t)

	settings, err := SettingsFromStore(store)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAnalysisSettings(), settings)
}

func TestSettingsFromStoreOverrides(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Set(KeyMaxPairs, int64(8)))
	require.NoError(t, store.Set(KeySimilarityThreshold, 0.3))
	require.NoError(t, store.Set(KeyMaxWallClockMs, int64(0)))
	require.NoError(t, store.Set(KeyCostPerCall, int64(2)))

	settings, err := SettingsFromStore(store)
	require.NoError(t, err)
	assert.Equal(t, 8, settings.MaxPairs)
	assert.InDelta(t, 0.3, settings.SimilarityThreshold, 0.001)
	assert.Equal(t, int64(0), settings.MaxWallClockMs)
	assert.Equal(t, 2, settings.CostPerCall)

	// Untouched fields keep defaults.
	assert.Equal(t, domain.DefaultMaxConcurrency, settings.MaxConcurrency)
	assert.Equal(t, domain.DefaultTierSize, settings.TierSize)
}

func TestSettingsFromStoreInvalidFallsBackToDefaults(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Set(KeySimilarityThreshold, 1.5))

	settings, err := SettingsFromStore(store)
	require.Error(t, err)
	assert.Equal(t, domain.DefaultAnalysisSettings(), settings)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("analysis.max_pairs", int64(2)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = store.Watch(ctx, func() {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	content := "[analysis]\nmax_pairs = 9\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
	assert.Equal(t, 9, store.GetInt("analysis.max_pairs"))

	cancel()
	<-done
}

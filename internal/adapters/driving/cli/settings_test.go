package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsCmd_Show(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[Budget]")
	assert.Contains(t, buf.String(), "[Similarity]")
	assert.Contains(t, buf.String(), "Max pairs: 2")
}

func TestSettingsCmd_ShowWithoutService(t *testing.T) {
	oldService := conflictService
	conflictService = nil
	defer func() {
		conflictService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflict service not configured")
}

func TestSettingsCmd_SetRequiresConfigStore(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "set", "analysis.max_pairs", "4"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config store not configured")
}

func TestParseConfigValue(t *testing.T) {
	assert.Equal(t, int64(4), parseConfigValue("4"))
	assert.Equal(t, 0.6, parseConfigValue("0.6"))
	assert.Equal(t, true, parseConfigValue("true"))
	assert.Equal(t, "ollama", parseConfigValue("ollama"))
}

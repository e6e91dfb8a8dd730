package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage analysis settings",
	Long: `View and configure analysis settings: budgets, similarity thresholds,
and clustering parameters.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value and persist it immediately.

Keys use dot notation, e.g.:
  crosscheck settings set analysis.max_pairs 4
  crosscheck settings set analysis.similarity_threshold 0.6`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if conflictService == nil {
		return errors.New("conflict service not configured")
	}

	s := conflictService.Settings()

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Budget]")
	cmd.Printf("  Max pairs: %d\n", s.MaxPairs)
	cmd.Printf("  Max wall clock: %dms\n", s.MaxWallClockMs)
	cmd.Printf("  Max concurrency: %d\n", s.MaxConcurrency)
	cmd.Printf("  Max cost units: %d\n", s.MaxCostUnits)
	cmd.Printf("  Cost per call: %d\n", s.CostPerCall)
	cmd.Printf("  Per-call timeout: %dms\n", s.PerCallTimeoutMs)
	cmd.Printf("  Retry attempts: %d\n", s.RetryAttempts)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Default limit: %d\n", s.RetrieveLimit)
	cmd.Printf("  Max limit: %d\n", s.MaxRetrieveLimit)
	cmd.Println()

	cmd.Println("[Similarity]")
	cmd.Printf("  Pair threshold: %.2f\n", s.SimilarityThreshold)
	cmd.Printf("  Cluster linkage cutoff: %.2f\n", s.ClusterLinkageCutoff)
	cmd.Printf("  Cross-cluster penalty: %.2f\n", s.CrossClusterPenalty)
	cmd.Printf("  Tier size: %d\n", s.TierSize)
	cmd.Printf("  Approx mode threshold: %d candidates\n", s.ApproxCandidateThreshold)
	cmd.Printf("  Top-k neighbours: %d\n", s.TopKNeighbours)
	cmd.Println()

	if configStore != nil {
		cmd.Printf("Config file: %s\n", configStore.Path())
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	if err := configStore.Set(key, parseConfigValue(raw)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s = %s\n", key, raw)
	return nil
}

// parseConfigValue keeps TOML types sensible: integers stay integers,
// floats stay floats, booleans stay booleans, everything else a string.
func parseConfigValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

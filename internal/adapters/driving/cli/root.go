// Package cli provides the command-line interface for Crosscheck.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driving"
	"github.com/custodia-labs/crosscheck/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by the composition root before Execute runs.
var (
	conflictService driving.ConflictService
	configStore     driven.ConfigStore
)

var rootCmd = &cobra.Command{
	Use:   "crosscheck",
	Short: "Cross-document conflict detection over your indexed corpus",
	Long: `Crosscheck retrieves documents related to a query, groups them by
similarity, and checks the most promising pairs against each other for
contradictory claims, under an explicit pair, time, and cost budget.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verboseFlag)
	},
}

var verboseFlag bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging to stderr")
}

// SetServices injects the service implementations used by the commands.
// Must be called before Execute.
func SetServices(conflict driving.ConflictService, config driven.ConfigStore) {
	conflictService = conflict
	configStore = config
}

// SetVersion overrides the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context, so
// long-running commands stop on cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

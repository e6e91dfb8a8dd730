package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

var (
	detectLimit        int
	detectFilters      []string
	detectMaxPairs     int
	detectWallclockMs  int64
	detectConcurrency  int
	detectMaxCostUnits int
	detectJSON         bool
)

var detectCmd = &cobra.Command{
	Use:   "detect [query]",
	Short: "Detect conflicting claims across documents",
	Long: `Retrieves the documents most related to the query, clusters them by
similarity, and checks the highest-priority pairs against each other for
contradictory claims.

Expensive analysis runs under a budget. When the budget runs out the
report is marked degraded and unchecked pairs are listed with their
status instead of silently dropped.

Filters restrict retrieval by metadata, one condition per flag:
  --filter source_type=wiki          equality
  --filter space=ops,eng             membership (comma-separated values)`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().IntVarP(&detectLimit, "limit", "n", 0, "maximum number of candidate documents")
	detectCmd.Flags().StringArrayVar(&detectFilters, "filter", nil, "metadata filter, field=value or field=v1,v2")
	detectCmd.Flags().IntVar(&detectMaxPairs, "max-pairs", 0, "maximum number of pairs to analyse")
	detectCmd.Flags().Int64Var(&detectWallclockMs, "max-wallclock-ms", -1, "wall-clock budget in milliseconds (0 skips all pairs)")
	detectCmd.Flags().IntVar(&detectConcurrency, "max-concurrency", 0, "maximum simultaneous judgment calls")
	detectCmd.Flags().IntVar(&detectMaxCostUnits, "max-cost-units", 0, "provider spend ceiling")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "output the full report as JSON")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	query := args[0]

	if conflictService == nil {
		return errors.New("conflict service not configured")
	}

	filter, err := parseFilters(detectFilters)
	if err != nil {
		return err
	}

	opts := domain.AnalysisOptions{
		Filter:         filter,
		Limit:          detectLimit,
		MaxPairs:       detectMaxPairs,
		MaxConcurrency: detectConcurrency,
		MaxCostUnits:   detectMaxCostUnits,
	}
	if detectWallclockMs >= 0 {
		ms := detectWallclockMs
		opts.MaxWallClockMs = &ms
	}

	ctx := context.Background()
	report, err := conflictService.DetectConflicts(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("conflict detection failed: %w", err)
	}

	if detectJSON {
		return outputReportJSON(cmd, report)
	}

	return outputReportText(cmd, report)
}

// parseFilters converts --filter flags into a domain filter.
// A comma in the value makes it a membership condition.
func parseFilters(raw []string) (domain.Filter, error) {
	if len(raw) == 0 {
		return domain.Filter{}, nil
	}

	conditions := make([]domain.FilterCondition, 0, len(raw))
	for _, f := range raw {
		field, value, ok := strings.Cut(f, "=")
		if !ok || field == "" || value == "" {
			return domain.Filter{}, fmt.Errorf("invalid filter %q: expected field=value", f)
		}

		values := strings.Split(value, ",")
		op := domain.FilterOpEq
		if len(values) > 1 {
			op = domain.FilterOpIn
		}
		conditions = append(conditions, domain.FilterCondition{
			Field:  field,
			Op:     op,
			Values: values,
		})
	}
	return domain.Filter{Conditions: conditions}, nil
}

func outputReportJSON(cmd *cobra.Command, report *domain.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputReportText(cmd *cobra.Command, report *domain.Report) error {
	if report.Degraded {
		cmd.Println("Partial results: the analysis budget ran out before every pair was checked.")
		cmd.Println()
	}

	if len(report.Results) == 0 {
		cmd.Println("No pairs analysed.")
	} else {
		cmd.Println("Judgments:")
		cmd.Println()
		for i, r := range report.Results {
			cmd.Printf("  [%d] %s vs %s: %s (%.2f)\n", i+1, r.DocA, r.DocB, r.Verdict, r.Confidence)
			if r.Explanation != "" {
				cmd.Printf("      %s\n", r.Explanation)
			}
			cmd.Println()
		}
	}

	unchecked := 0
	for _, p := range report.Pairs {
		if p.Status == domain.PairSkipped || p.Status == domain.PairTimedOut {
			unchecked++
		}
	}
	if unchecked > 0 {
		cmd.Printf("Unchecked pairs: %d (see --json for details)\n", unchecked)
	}

	cmd.Printf("Considered %d pairs, analysed %d, spent %d cost units in %dms\n",
		report.Stats.PairsConsidered, report.Stats.PairsAnalyzed,
		report.Stats.CostUnitsSpent, report.Stats.WallClockMs)
	return nil
}

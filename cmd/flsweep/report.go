package main

import (
	"fmt"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/analysis"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/results"
	"github.com/spf13/cobra"
)

var (
	reportRounds   string
	reportClasses  string
	targetAccuracy float64
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize convergence, fitted curves and label skew of a finished sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		rounds, err := results.ReadTable(reportRounds)
		if err != nil {
			return err
		}
		var classes *results.Table
		if reportClasses != "" {
			classes, err = results.ReadTable(reportClasses)
			if err != nil {
				return err
			}
		}

		reports, err := analysis.BuildReport(rounds, classes, targetAccuracy)
		if err != nil {
			return err
		}

		for _, r := range reports {
			logger.Info(fmt.Sprintf("%s: rounds=%d, final accuracy=%.4f, converged=%t", r.Label, r.Rounds, r.FinalAccuracy, r.Converged))
			if r.Function != "" {
				logger.Info(fmt.Sprintf("  fitted %s", r.Function))
			}
			if r.TargetRound >= 0 {
				logger.Info(fmt.Sprintf("  expected to reach accuracy %.2f in round %d", targetAccuracy, r.TargetRound))
			} else {
				logger.Info(fmt.Sprintf("  accuracy %.2f not reachable by the fitted curve", targetAccuracy))
			}
			for _, skew := range r.Skew {
				logger.Info(fmt.Sprintf("  client %d: %d samples, %d classes, KL=%.4f", skew.ClientId, skew.Samples, skew.Classes, skew.Divergence))
			}
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportRounds, "rounds", "", "per-round CSV")
	reportCmd.Flags().StringVar(&reportClasses, "classes", "", "class distribution CSV")
	reportCmd.Flags().Float64Var(&targetAccuracy, "target-accuracy", 0.8, "accuracy to predict the round for")
	_ = reportCmd.MarkFlagRequired("rounds")
	rootCmd.AddCommand(reportCmd)
}

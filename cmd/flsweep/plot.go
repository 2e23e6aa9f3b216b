package main

import (
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/plotting"
	"github.com/spf13/cobra"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render charts from sweep result files",
}

var plotSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Final metrics vs number of clients, and metrics over rounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := plotter(cmd).Summary(stringFlag(cmd, "summary"), stringFlag(cmd, "rounds"))
		return err
	},
}

var plotParticipationCmd = &cobra.Command{
	Use:   "participation",
	Short: "Accuracy and loss per client count and participation fraction",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := plotter(cmd).Participation(stringFlag(cmd, "rounds"))
		return err
	},
}

var plotSeedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "Spread of final accuracy across seeds and convergence per client count",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := plotter(cmd).Seeds(stringFlag(cmd, "summary"), stringFlag(cmd, "rounds"))
		return err
	},
}

var plotNonIidCmd = &cobra.Command{
	Use:   "noniid [alpha=rounds.csv...]",
	Short: "Compare rounds files recorded with different Dirichlet alphas",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = plotting.DefaultAlphaInputs
		}
		inputs, err := plotting.ParseAlphaInputs(args)
		if err != nil {
			return err
		}
		_, err = plotter(cmd).NonIid(inputs)
		return err
	},
}

func init() {
	plotSummaryCmd.Flags().String("summary", "results_clients.csv", "summary CSV")
	plotSummaryCmd.Flags().String("rounds", "results_rounds.csv", "per-round CSV")
	plotSummaryCmd.Flags().String("plots-dir", ".", "directory for the PNG files")

	plotParticipationCmd.Flags().String("rounds", "results_clients_participation_rounds_20251030_003543.csv", "per-round CSV of a participation sweep")
	plotParticipationCmd.Flags().String("plots-dir", "plots_clients_participation", "directory for the PNG files")

	plotSeedsCmd.Flags().String("summary", "results_clients_seeds_summary_NonIID.csv", "summary CSV")
	plotSeedsCmd.Flags().String("rounds", "results_clients_seeds_rounds_NonIID.csv", "per-round CSV")
	plotSeedsCmd.Flags().String("plots-dir", "plots_alpha10.0", "directory for the PNG files")

	plotNonIidCmd.Flags().String("plots-dir", "plots_nonIID_comparison", "directory for the PNG files")

	plotCmd.AddCommand(plotSummaryCmd, plotParticipationCmd, plotSeedsCmd, plotNonIidCmd)
	rootCmd.AddCommand(plotCmd)
}

func plotter(cmd *cobra.Command) *plotting.Plotter {
	return plotting.NewPlotter(logger, stringFlag(cmd, "plots-dir"))
}

func stringFlag(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}

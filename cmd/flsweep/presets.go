package main

import (
	"fmt"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/sweep"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the configured sweeps",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range cfg.SweepNames() {
			sweepConfig := cfg.Sweeps[name]
			if err := sweepConfig.Validate(); err != nil {
				logger.Warn(fmt.Sprintf("%s: %s", name, err.Error()))
				continue
			}
			logger.Info(fmt.Sprintf("%s: %d runs over %v, %d rounds each, summary %s", name,
				len(sweep.Grid(sweepConfig)), sweep.Dimensions(sweepConfig), sweepConfig.NumServerRounds, sweepConfig.SummaryFile))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

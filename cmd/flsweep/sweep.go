package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/events"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner"
	flwrrunner "github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner/flwr"
	replayrunner "github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner/replay"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/sweep"
	"github.com/spf13/cobra"
)

var replayDir string

var sweepCmd = &cobra.Command{
	Use:   "sweep <name>",
	Short: "Run a configured sweep to completion",
	Long: `Runs every combination of the named sweep through the flwr CLI, one after the
other, and writes the summary, per-round and class distribution CSVs. Interrupting
stops after the current run and still writes what was collected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		sweepConfig, err := cfg.Sweep(name)
		if err != nil {
			return err
		}

		r, err := newRunner()
		if err != nil {
			return err
		}

		eventBus := events.NewEventBus()
		runFinishedChan := make(chan events.Event, 1)
		eventBus.Subscribe(common.RUN_FINISHED_EVENT_TYPE, runFinishedChan)
		defer eventBus.Unsubscribe(common.RUN_FINISHED_EVENT_TYPE, runFinishedChan)
		go logProgress(runFinishedChan)

		sweeper, err := sweep.NewSweeper(r, eventBus, logger, cfg.Flwr, name, sweepConfig, cfg.OutputDir)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := sweeper.Run(ctx)
		if err != nil {
			return err
		}
		if report.Canceled {
			return fmt.Errorf("sweep %s canceled after %d of %d runs", name, len(report.Summaries), len(sweep.Grid(sweepConfig)))
		}
		logger.Info(fmt.Sprintf("Sweep %s done: %d runs, %d failed, %d timed out", name, len(report.Summaries),
			report.Count(common.STATUS_FAILED), report.Count(common.STATUS_TIMEOUT)))
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&replayDir, "replay", "", "replay recorded logs from this directory instead of running flwr")
	rootCmd.AddCommand(sweepCmd)
}

func newRunner() (runner.IRunner, error) {
	if replayDir != "" {
		logger.Info(fmt.Sprintf("Replaying recorded logs from %s", replayDir))
		replayRunner, err := replayrunner.NewReplayRunner(replayDir)
		if err != nil {
			return nil, err
		}
		return replayRunner, nil
	}
	return flwrrunner.NewFlwrRunner(logger), nil
}

func logProgress(eventChan <-chan events.Event) {
	for event := range eventChan {
		runFinishedEvent, ok := event.Data.(events.RunFinishedEvent)
		if !ok {
			continue
		}
		logger.Debug(fmt.Sprintf("[%d/%d] %s: %s", runFinishedEvent.Index+1, runFinishedEvent.Total,
			runFinishedEvent.Summary.Combination, runFinishedEvent.Summary.Status))
	}
}

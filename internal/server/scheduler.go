package server

import (
	"fmt"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/config"
	"github.com/hashicorp/go-hclog"
	"github.com/robfig/cron/v3"
)

// NewScheduler registers the configured cron schedules; each tick starts its sweep
// the same way the start route does. The returned cron is not started.
func NewScheduler(logger hclog.Logger, handler *Handler, cfg *config.Config) (*cron.Cron, error) {
	logger = logger.Named("scheduler")
	scheduler := cron.New(cron.WithParser(cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)))

	for _, schedule := range cfg.Server.Schedules {
		if _, err := cfg.Sweep(schedule.Sweep); err != nil {
			return nil, fmt.Errorf("invalid schedule %q: %w", schedule.Spec, err)
		}

		sweepName := schedule.Sweep
		_, err := scheduler.AddFunc(schedule.Spec, func() {
			runId, err := handler.StartSweep(sweepName)
			if err != nil {
				logger.Warn(fmt.Sprintf("Scheduled sweep %s not started: %s", sweepName, err.Error()))
				return
			}
			logger.Info(fmt.Sprintf("Scheduled sweep %s started with run ID: %s", sweepName, runId))
		})
		if err != nil {
			return nil, fmt.Errorf("invalid schedule %q for sweep %s: %w", schedule.Spec, schedule.Sweep, err)
		}
		logger.Info(fmt.Sprintf("Sweep %s scheduled at %q", schedule.Sweep, schedule.Spec))
	}

	return scheduler, nil
}

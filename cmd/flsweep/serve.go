package main

import (
	"context"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/events"
	flwrrunner "github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner/flwr"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/server"
	"github.com/spf13/cobra"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start and stop sweeps over HTTP and run the configured schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port != 0 {
			cfg.Server.Port = port
		}

		eventBus := events.NewEventBus()
		handler := server.NewHandler(logger, eventBus, flwrrunner.NewFlwrRunner(logger), cfg)
		defer handler.Close()

		scheduler, err := server.NewScheduler(logger, handler, cfg)
		if err != nil {
			return err
		}
		scheduler.Start()

		return server.StartHttpServer(logger, cfg.Server.Port, server.NewRouter(handler),
			func(ctx context.Context) {
				<-scheduler.Stop().Done()
			},
			handler.StopAll,
		)
	},
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
